// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

//go:build unix && !linux

package pidfile

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isPidAlive(pid int) bool {
	// signal 0 only checks for existence
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
