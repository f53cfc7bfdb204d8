// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cilium/monitoring-poc/pkg/logger"
)

// Config contains all the configuration used by the monitoring-poc server.
var Config = config{
	LogOpts: logger.DefaultOptions(),
}

type config struct {
	Debug bool

	ServerAddress   string
	ShutdownTimeout time.Duration

	AppName     string
	Environment string

	LogOpts                 logger.Options
	LogFile                 string
	LogFileMaxSizeMB        int
	LogFileMaxBackups       int
	LogFileCompress         bool
	LogFileRotationInterval time.Duration

	LokiURL           string
	LokiBatchInterval time.Duration

	GopsAddr  string
	PprofAddr string

	MetricsServer            string
	EnableProcessMetrics     bool
	DecrementInFlightOnAbort bool

	HealthServerAddress  string
	HealthServerInterval int

	RateLimit          int
	RateLimitInterval  time.Duration
	RateLimitCacheSize int

	DBCacheSize  int
	LatencyScale float64

	PidFile string
}

// IsProduction reports whether the server runs in the production
// environment, where error responses don't include debugging details.
func (c *config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ReadDirConfig reads the given directory and returns a map that maps the
// filename to the contents of that file. Directories and hidden files are
// skipped.
func ReadDirConfig(dirName string) (map[string]any, error) {
	m := map[string]any{}
	files, err := os.ReadDir(dirName)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to read configuration directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
			continue
		}

		fName := filepath.Join(dirName, f.Name())

		// the file can still be a symlink to a directory
		if f.Type()&os.ModeSymlink != 0 {
			absFileName, _ := filepath.EvalSymlinks(fName)
			st, err := os.Lstat(absFileName)
			if err != nil || st.IsDir() {
				continue
			}
		}

		b, err := os.ReadFile(fName)
		if err != nil {
			return nil, fmt.Errorf("unable to read configuration file %q: %w", fName, err)
		}
		m[f.Name()] = strings.TrimSpace(string(b))
	}
	return m, nil
}
