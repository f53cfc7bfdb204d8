// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cilium/monitoring-poc/pkg/defaults"
	"github.com/cilium/monitoring-poc/pkg/logger"
)

const (
	KeyConfigDir = "config-dir"
	KeyDebug     = "debug"

	KeyServerAddress   = "server-address"
	KeyShutdownTimeout = "shutdown-timeout"

	KeyAppName     = "app-name"
	KeyEnvironment = "environment"

	KeyLogLevel                = "log-level"
	KeyLogFormat               = "log-format"
	KeyLogFile                 = "log-file"
	KeyLogFileMaxSizeMB        = "log-file-max-size-mb"
	KeyLogFileMaxBackups       = "log-file-max-backups"
	KeyLogFileCompress         = "log-file-compress"
	KeyLogFileRotationInterval = "log-file-rotation-interval"

	KeyLokiURL           = "loki-url"
	KeyLokiBatchInterval = "loki-batch-interval"

	KeyGopsAddr  = "gops-address"
	KeyPprofAddr = "pprof-address"

	KeyMetricsServer            = "metrics-server"
	KeyEnableProcessMetrics     = "enable-process-metrics"
	KeyDecrementInFlightOnAbort = "decrement-inflight-on-abort"

	KeyHealthServerAddress = "health-server-address"
	KeyHealthTimeInterval  = "health-server-interval"

	KeyRateLimit          = "rate-limit"
	KeyRateLimitInterval  = "rate-limit-interval"
	KeyRateLimitCacheSize = "rate-limit-cache-size"

	KeyDBCacheSize  = "db-cache-size"
	KeyLatencyScale = "latency-scale"

	KeyPidFile = "pid-file"
)

func ReadAndSetFlags() error {
	Config.Debug = viper.GetBool(KeyDebug)

	Config.ServerAddress = viper.GetString(KeyServerAddress)
	Config.ShutdownTimeout = viper.GetDuration(KeyShutdownTimeout)

	Config.AppName = viper.GetString(KeyAppName)
	Config.Environment = viper.GetString(KeyEnvironment)

	logOpts, err := logger.ParseOptions(viper.GetString(KeyLogLevel), viper.GetString(KeyLogFormat))
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Ignoring user-configured log options")
	}
	Config.LogOpts = logOpts
	Config.LogFile = viper.GetString(KeyLogFile)
	Config.LogFileMaxSizeMB = viper.GetInt(KeyLogFileMaxSizeMB)
	Config.LogFileMaxBackups = viper.GetInt(KeyLogFileMaxBackups)
	Config.LogFileCompress = viper.GetBool(KeyLogFileCompress)
	Config.LogFileRotationInterval = viper.GetDuration(KeyLogFileRotationInterval)

	Config.LokiURL = viper.GetString(KeyLokiURL)
	Config.LokiBatchInterval = viper.GetDuration(KeyLokiBatchInterval)

	Config.GopsAddr = viper.GetString(KeyGopsAddr)
	Config.PprofAddr = viper.GetString(KeyPprofAddr)

	Config.MetricsServer = viper.GetString(KeyMetricsServer)
	Config.EnableProcessMetrics = viper.GetBool(KeyEnableProcessMetrics)
	Config.DecrementInFlightOnAbort = viper.GetBool(KeyDecrementInFlightOnAbort)

	Config.HealthServerAddress = viper.GetString(KeyHealthServerAddress)
	Config.HealthServerInterval = viper.GetInt(KeyHealthTimeInterval)

	Config.RateLimit = viper.GetInt(KeyRateLimit)
	Config.RateLimitInterval = viper.GetDuration(KeyRateLimitInterval)
	Config.RateLimitCacheSize = viper.GetInt(KeyRateLimitCacheSize)

	Config.DBCacheSize = viper.GetInt(KeyDBCacheSize)
	Config.LatencyScale = viper.GetFloat64(KeyLatencyScale)

	Config.PidFile = viper.GetString(KeyPidFile)

	if Config.ShutdownTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyShutdownTimeout, Config.ShutdownTimeout)
	}
	if Config.LatencyScale < 0 {
		return fmt.Errorf("%s can't be negative, got %v", KeyLatencyScale, Config.LatencyScale)
	}
	if Config.RateLimit >= 0 && Config.RateLimitInterval <= 0 {
		return fmt.Errorf("%s must be positive when rate limiting is enabled", KeyRateLimitInterval)
	}
	if Config.RateLimitCacheSize <= 0 || Config.DBCacheSize <= 0 {
		return fmt.Errorf("%s and %s must be positive", KeyRateLimitCacheSize, KeyDBCacheSize)
	}
	return nil
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigDir, "", "Configuration directory that contains a file for each option")
	flags.BoolP(KeyDebug, "d", false, "Enable debug messages. Equivalent to '--log-level=debug'")

	flags.String(KeyServerAddress, defaults.DefaultServerAddress, "HTTP server address")
	flags.Duration(KeyShutdownTimeout, defaults.DefaultShutdownTimeout, "Maximum time to wait for in-flight requests on shutdown")

	flags.String(KeyAppName, defaults.DefaultAppName, "Application name, added to logs as the service field")
	flags.String(KeyEnvironment, defaults.DefaultEnvironment, "Deployment environment. Error responses include debugging details unless set to 'production'")

	flags.String(KeyLogLevel, "info", "Set log level")
	flags.String(KeyLogFormat, "text", "Set log format")
	flags.String(KeyLogFile, "", "Also write logs to this file. Disabled by default")
	flags.Int(KeyLogFileMaxSizeMB, 10, "Size in MB for rotating log files")
	flags.Int(KeyLogFileMaxBackups, 5, "Number of rotated log files to retain")
	flags.Bool(KeyLogFileCompress, false, "Compress rotated log files")
	flags.Duration(KeyLogFileRotationInterval, 0, "Interval at which to rotate log files in addition to rotating them by size")

	flags.String(KeyLokiURL, "", "Loki server URL (e.g. 'http://localhost:3100'). Disabled by default")
	flags.Duration(KeyLokiBatchInterval, defaults.DefaultLokiBatchInterval, "Interval between two pushes to Loki")

	flags.String(KeyGopsAddr, "", "gops server address (e.g. 'localhost:8118'). Disabled by default")
	flags.String(KeyPprofAddr, "", "Profile via pprof http")

	flags.String(KeyMetricsServer, "", "Dedicated metrics server address (e.g. ':2112'). Metrics are always served on /metrics of the main server")
	flags.Bool(KeyEnableProcessMetrics, true, "Expose Go runtime and process metrics")
	flags.Bool(KeyDecrementInFlightOnAbort, false, "Decrement the in-flight requests gauge when a request is aborted")

	flags.String(KeyHealthServerAddress, defaults.DefaultHealthServerAddress, "Health server address (e.g. ':6789'). An empty address disables the health server")
	flags.Int(KeyHealthTimeInterval, defaults.DefaultHealthServerInterval, "Health server interval in seconds")

	flags.Int(KeyRateLimit, -1, "Maximum number of requests per client IP and rate limit interval. Set to -1 to disable")
	flags.Duration(KeyRateLimitInterval, time.Minute, "Rate limit interval")
	flags.Int(KeyRateLimitCacheSize, 10000, "Number of client IPs tracked by the rate limiter")

	flags.Int(KeyDBCacheSize, 128, "Size of the simulated database user cache")
	flags.Float64(KeyLatencyScale, 1, "Scale applied to all simulated delays. Set to 0 to disable them")

	flags.String(KeyPidFile, defaults.DefaultPidFile, "Pid file. An empty path disables it")
}
