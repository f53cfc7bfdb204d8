// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"context"
	"fmt"
	"net/http"
	pprofhttp "net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gops "github.com/google/gops/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/cilium/monitoring-poc/pkg/bugtool"
	"github.com/cilium/monitoring-poc/pkg/health"
	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/config"
	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
	"github.com/cilium/monitoring-poc/pkg/option"
	"github.com/cilium/monitoring-poc/pkg/pidfile"
	"github.com/cilium/monitoring-poc/pkg/server"
	"github.com/cilium/monitoring-poc/pkg/version"
	"github.com/cilium/monitoring-poc/pkg/workload"
)

var log = logger.GetLogger()

func saveInitInfo() error {
	info := bugtool.InitInfo{
		ServerAddr:  option.Config.ServerAddress,
		MetricsAddr: option.Config.MetricsServer,
		HealthAddr:  option.Config.HealthServerAddress,
		GopsAddr:    option.Config.GopsAddr,
		LogFile:     option.Config.LogFile,
		Environment: option.Config.Environment,
		Version:     version.Version,
	}
	return bugtool.SaveInitInfo(&info)
}

// setupLogging configures the logger and its sinks. The returned function
// flushes and closes the sinks.
func setupLogging() (func(), error) {
	if raw := option.Config.LokiURL; raw != "" {
		u, err := url.Parse(raw)
		if err == nil && ((u.Scheme != "http" && u.Scheme != "https") || u.Host == "") {
			err = fmt.Errorf("%q is not an http(s) URL", raw)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", option.KeyLokiURL, err)
		}
	}
	logger.SetupLogging(option.Config.LogOpts, option.Config.Debug)
	logger.SetService(option.Config.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	var closers []func()
	if option.Config.LogFile != "" {
		writer := logger.SetupLogFile(ctx, logger.FileOptions{
			Filename:         option.Config.LogFile,
			MaxSizeMB:        option.Config.LogFileMaxSizeMB,
			MaxBackups:       option.Config.LogFileMaxBackups,
			Compress:         option.Config.LogFileCompress,
			RotationInterval: option.Config.LogFileRotationInterval,
		})
		closers = append(closers, func() { writer.Close() })
	}
	if option.Config.LokiURL != "" {
		hook := logger.NewLokiHook(logger.LokiOptions{
			URL:           option.Config.LokiURL,
			BatchInterval: option.Config.LokiBatchInterval,
			Labels: map[string]string{
				"job":         option.Config.AppName,
				"application": option.Config.AppName,
				"environment": option.Config.Environment,
			},
		})
		logger.DefaultLogger.AddHook(hook)
		done := make(chan struct{})
		go func() {
			hook.Run(ctx)
			close(done)
		}()
		closers = append(closers, func() { <-done })
	}

	return func() {
		cancel()
		// closers run in reverse, the log file must stay open until the
		// last push
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func serverConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Environment = option.Config.Environment
	cfg.Delay = workload.Delayer(option.Config.LatencyScale)
	cfg.DecrementInFlightOnAbort = option.Config.DecrementInFlightOnAbort
	cfg.RateLimit = option.Config.RateLimit
	cfg.RateLimitInterval = option.Config.RateLimitInterval
	cfg.RateLimitCacheSize = option.Config.RateLimitCacheSize
	cfg.DBCacheSize = option.Config.DBCacheSize
	cfg.Seed = uint64(time.Now().UnixNano())
	return cfg
}

func monitoringPocExecute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Logging should always be bootstrapped first. Do not add any code above this!
	stopLogging, err := setupLogging()
	if err != nil {
		log.Fatal(err)
	}
	defer stopLogging()

	log.WithField("version", version.Version).Info("Starting monitoring-poc")
	log.WithField("config", viper.AllSettings()).Info("config settings")

	if option.Config.PidFile != "" {
		pid, err := pidfile.Create(option.Config.PidFile)
		if err != nil {
			return fmt.Errorf("failed to create pid file %s (pid %d): %w", option.Config.PidFile, pid, err)
		}
		defer pidfile.Delete(option.Config.PidFile)
	}

	if option.Config.PprofAddr != "" {
		go func() {
			if err := servePprof(option.Config.PprofAddr); err != nil {
				log.Warnf("serving pprof via http: %v", err)
			}
		}()
	}

	allMetrics, err := config.InitAllMetrics(metrics.NewRegistry(), config.Options{
		ProcessMetrics: option.Config.EnableProcessMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	allMetrics.Health.Set(healthmetrics.Application, true)
	allMetrics.Health.Set(healthmetrics.Metrics, true)

	srv, err := server.New(serverConfig(), allMetrics)
	if err != nil {
		return err
	}

	go func() {
		s := <-sigs
		log.Infof("Received signal %s, shutting down...", s)
		cancel()
	}()

	if option.Config.HealthServerAddress != "" {
		err := health.StartHealthServer(ctx, option.Config.HealthServerAddress,
			option.Config.HealthServerInterval, allMetrics.Health, allMetrics.GRPC)
		if err != nil {
			return err
		}
	}

	var (
		wg         sync.WaitGroup
		metricsErr error
	)
	if option.Config.MetricsServer != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metricsErr = metrics.EnableMetrics(ctx, option.Config.MetricsServer, allMetrics.Registry)
			if metricsErr != nil {
				log.WithError(metricsErr).Error("Metrics server failed")
			}
		}()
	}

	if err := saveInitInfo(); err != nil {
		log.WithError(err).Warn("Failed to save init info")
	} else {
		defer bugtool.RemoveInitInfo()
	}

	err = srv.ListenAndServe(ctx, option.Config.ServerAddress, option.Config.ShutdownTimeout)
	cancel()
	wg.Wait()
	return multierr.Combine(err, metricsErr)
}

func execute() error {
	rootCmd := &cobra.Command{
		Use:     "monitoring-poc",
		Short:   "Run the monitoring-poc HTTP server",
		Version: version.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := option.ReadAndSetFlags(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			if option.Config.GopsAddr != "" {
				log.WithField("addr", option.Config.GopsAddr).Info("Starting gops server")
				if err := gops.Listen(gops.Options{
					Addr:                   option.Config.GopsAddr,
					ReuseSocketAddrAndPort: true,
				}); err != nil {
					log.WithError(err).Fatal("Failed to start gops")
				}
				defer gops.Close()
			}

			if err := monitoringPocExecute(); err != nil {
				log.WithError(err).Error("Failed to run monitoring-poc")
				return err
			}
			return nil
		},
	}

	cobra.OnInitialize(func() {
		if err := readConfigSettings(adminConfDir, adminConfDropIn, packageConfDropIns); err != nil {
			log.WithError(err).Fatal("Failed to read config")
		}
	})

	flags := rootCmd.PersistentFlags()
	option.AddFlags(flags)
	viper.BindPFlags(flags)
	return rootCmd.Execute()
}

func servePprof(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprofhttp.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprofhttp.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprofhttp.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprofhttp.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprofhttp.Trace)
	return http.ListenAndServe(addr, mux)
}
