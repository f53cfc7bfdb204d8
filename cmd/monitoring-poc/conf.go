// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cilium/monitoring-poc/pkg/option"
)

const configName = "monitoring-poc"

var (
	adminConfDir       = "/etc/monitoring-poc/"
	adminConfDropIn    = "/etc/monitoring-poc/monitoring-poc.conf.d/"
	packageConfDropIns = []string{
		"/usr/lib/monitoring-poc/monitoring-poc.conf.d/",
		"/usr/local/lib/monitoring-poc/monitoring-poc.conf.d/",
	}
)

// configSource is a yaml file (monitoring-poc.yaml in dir) or a drop-in
// directory with one file per key.
type configSource struct {
	dir    string
	dropIn bool
}

func (s configSource) merge() error {
	if s.dropIn {
		if st, err := os.Stat(s.dir); err != nil {
			return err
		} else if !st.IsDir() {
			return fmt.Errorf("'%s' is not a directory", s.dir)
		}
		cm, err := option.ReadDirConfig(s.dir)
		if err != nil {
			return err
		}
		if err := viper.MergeConfigMap(cm); err != nil {
			return fmt.Errorf("merging %s: %w", s.dir, err)
		}
		return nil
	}

	file := filepath.Join(s.dir, configName+".yaml")
	st, err := os.Stat(file)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("config file '%s' is not a regular file", file)
	}
	viper.SetConfigFile(file)
	return viper.MergeInConfig()
}

// readConfigSettings merges, from lowest to highest priority, the package
// drop-ins, the yaml files in the working and admin directories, the admin
// drop-ins and the --config-dir directory. Environment variables override all
// of them. Only --config-dir is required to exist.
func readConfigSettings(adminDir string, adminDropIn string, packageDropIns []string) error {
	viper.SetEnvPrefix("monitoring_poc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")

	var sources []configSource
	for _, dir := range packageDropIns {
		sources = append(sources, configSource{dir: dir, dropIn: true})
	}
	sources = append(sources,
		configSource{dir: "."},
		configSource{dir: adminDir},
		configSource{dir: adminDropIn, dropIn: true},
	)
	for _, src := range sources {
		if err := src.merge(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithField("path", src.dir).WithError(err).Warn("Ignoring config source")
		}
	}

	// viper.IsSet could return true on an empty string reset
	if dir := viper.GetString(option.KeyConfigDir); dir != "" {
		if err := (configSource{dir: dir, dropIn: true}).merge(); err != nil {
			return fmt.Errorf("failed to read config from %s: %w", dir, err)
		}
		log.WithField(option.KeyConfigDir, dir).Info("Loaded config from directory")
	}
	return nil
}
