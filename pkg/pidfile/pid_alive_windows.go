// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package pidfile

import "os"

func isPidAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
