// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package defaults

import "time"

const (
	// DefaultRunDir is the default run directory for runtime
	DefaultRunDir = "/var/run/monitoring-poc/"

	// InitInfoFile is the file location for the info file.
	// After initialization, InitInfoFile will contain a json representation of InitInfo
	// Used by the client cli to guess the server address
	InitInfoFile = DefaultRunDir + "monitoring-poc-info.json"

	// DefaultPidFile is the pid file of the running server
	DefaultPidFile = DefaultRunDir + "monitoring-poc.pid"

	// DefaultServerAddress is where the HTTP service listens
	DefaultServerAddress = "localhost:3000"

	// DefaultAppName is the service name in logs and Loki labels
	DefaultAppName = "monitoring-poc"

	// DefaultEnvironment is used when no environment is configured
	DefaultEnvironment = "development"

	// DefaultHealthServerAddress is the address of the gRPC health server
	DefaultHealthServerAddress = ":6789"

	// DefaultHealthServerInterval is the health check interval, in seconds
	DefaultHealthServerInterval = 10

	// DefaultShutdownTimeout bounds the graceful shutdown of the servers
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultLokiBatchInterval is the interval between two Loki pushes
	DefaultLokiBatchInterval = 5 * time.Second

	// DefaultLogsPermission is the permission of log files
	DefaultLogsPermission = "600"
)
