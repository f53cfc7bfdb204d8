// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/cilium/lumberjack/v2"
)

type FileOptions struct {
	Filename         string
	MaxSizeMB        int
	MaxBackups       int
	Compress         bool
	RotationInterval time.Duration
}

// SetupLogFile makes DefaultLogger write to a rotated file in addition to
// stdout. The returned writer must be closed on shutdown.
func SetupLogFile(ctx context.Context, opts FileOptions) io.Closer {
	writer := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}
	if opts.RotationInterval != 0 {
		DefaultLogger.WithField("duration", opts.RotationInterval).Info("Periodically rotating log files")
		go func() {
			ticker := time.NewTicker(opts.RotationInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := writer.Rotate(); err != nil {
						DefaultLogger.WithError(err).
							WithField("filename", opts.Filename).
							Warn("Failed to rotate log file")
					}
				}
			}
		}()
	}
	DefaultLogger.SetOutput(io.MultiWriter(os.Stdout, writer))
	return writer
}
