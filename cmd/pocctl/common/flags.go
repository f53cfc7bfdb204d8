// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package common

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cilium/monitoring-poc/pkg/bugtool"
	"github.com/cilium/monitoring-poc/pkg/defaults"
	"github.com/cilium/monitoring-poc/pkg/logger"
)

const (
	KeyDebug         = "debug"          // bool
	KeyOutput        = "output"         // string
	KeyServerAddress = "server-address" // string
	KeyTimeout       = "timeout"        // duration
	KeyRetries       = "retries"        // int
)

var (
	Debug         bool
	ServerAddress string
	Timeout       time.Duration
	Retries       int
)

// ResolveServerAddress returns the server address given by the user from the
// command line flag, if not set, try to read from monitoring-poc-info.json,
// and, if the file doesn't exist, returns the default value.
func ResolveServerAddress() string {
	if ServerAddress != "" {
		return ServerAddress
	}

	info, err := bugtool.LoadInitInfo()
	if err != nil || info.ServerAddr == "" {
		logger.GetLogger().WithError(err).WithField(
			"defaultServerAddress", defaults.DefaultServerAddress,
		).Debug("failed to resolve server address reading init info file, using default value")
		return defaults.DefaultServerAddress
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"InitInfoFile":  defaults.InitInfoFile,
		"ServerAddress": info.ServerAddr,
	}).Debug("resolved server address using info file")
	return info.ServerAddr
}
