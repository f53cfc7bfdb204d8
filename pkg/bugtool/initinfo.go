// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bugtool

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cilium/monitoring-poc/pkg/defaults"
	"github.com/cilium/monitoring-poc/pkg/logger"
)

// InitInfo is written by the server at startup so that pocctl and the bugtool
// can find it without flags.
type InitInfo struct {
	ServerAddr  string `json:"server_address"`
	MetricsAddr string `json:"metrics_address"`
	HealthAddr  string `json:"health_address"`
	GopsAddr    string `json:"gops_address"`
	GopsPath    string `json:"gops_path"`
	LogFile     string `json:"log_file"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

func LoadInitInfo() (*InitInfo, error) {
	return doLoadInitInfo(defaults.InitInfoFile)
}

// SaveInitInfo records info, and the gops binary if one is in PATH.
func SaveInitInfo(info *InitInfo) error {
	if path, err := exec.LookPath("gops"); err == nil {
		info.GopsPath = path
	} else {
		logger.GetLogger().Debug("gops not found in PATH, bugtool won't dump stacks unless given --gops")
	}
	return doSaveInitInfo(defaults.InitInfoFile, info)
}

// RemoveInitInfo removes the info file once the server stopped.
func RemoveInitInfo() error {
	if err := os.Remove(defaults.InitInfoFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func doLoadInitInfo(fname string) (*InitInfo, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var info InitInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fname, err)
	}
	return &info, nil
}

// doSaveInitInfo replaces fname atomically, so readers never see a partial
// file.
func doSaveInitInfo(fname string, info *InitInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(fname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fname)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fname)
}
