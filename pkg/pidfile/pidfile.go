// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package pidfile guards against two servers sharing a run directory.
package pidfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

var (
	ErrPidFileAccess   = errors.New("pid file access failed")
	ErrPidIsNotAlive   = errors.New("process is not alive")
	ErrPidIsStillAlive = errors.New("process is already running")
)

// readPidFile returns the pid stored at path if that process is alive.
func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPidFileAccess, err)
	}
	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: invalid pid %q", ErrPidIsNotAlive, data)
	}
	if !isPidAlive(pid) {
		return 0, ErrPidIsNotAlive
	}
	return pid, nil
}

// Create writes the current pid to path, creating its directory if needed.
// If the process that wrote an existing file is still running, its pid is
// returned with ErrPidIsStillAlive. Unreadable or stale files are replaced.
func Create(path string) (int, error) {
	old, err := readPidFile(path)
	if err == nil {
		return old, ErrPidIsStillAlive
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	pid := os.Getpid()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return pid, nil
}

// Delete removes the pid file. A missing file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
