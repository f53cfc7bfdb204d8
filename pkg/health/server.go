// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package health

import (
	"context"
	"fmt"
	"net"
	"time"

	grpcmetrics "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	gh "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
)

var (
	log = logger.GetLogger().WithField(logfields.LogSubsys, "health")
)

// StartHealthServer starts a gRPC health server on address. The liveness
// service status is re-evaluated every interval seconds until ctx is done.
func StartHealthServer(ctx context.Context, address string, interval int, status *healthmetrics.Status, serverMetrics *grpcmetrics.ServerMetrics) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC health server: %w", err)
	}
	Serve(ctx, listener, time.Duration(interval)*time.Second, status, serverMetrics)
	return nil
}

// Serve serves the gRPC health service on listener.
func Serve(ctx context.Context, listener net.Listener, interval time.Duration, status *healthmetrics.Status, serverMetrics *grpcmetrics.ServerMetrics) {
	healthServer := gh.NewServer()
	update := func() {
		servingStatus, err := GetHealth(status)
		if err != nil {
			log.WithError(err).Debug("Application is not healthy")
		}
		healthServer.SetServingStatus(LivenessService, servingStatus)
	}
	update()

	var opts []grpc.ServerOption
	if serverMetrics != nil {
		opts = append(opts,
			grpc.ChainUnaryInterceptor(serverMetrics.UnaryServerInterceptor()),
			grpc.ChainStreamInterceptor(serverMetrics.StreamServerInterceptor()),
		)
	}
	grpcHealthServer := grpc.NewServer(opts...)
	grpc_health_v1.RegisterHealthServer(grpcHealthServer, healthServer)
	if serverMetrics != nil {
		serverMetrics.InitializeMetrics(grpcHealthServer)
	}

	go func() {
		log.WithFields(logrus.Fields{
			logfields.Address: listener.Addr().String(),
			"interval":        interval,
		}).Info("Starting gRPC health server")
		if err := grpcHealthServer.Serve(listener); err != nil {
			log.WithError(err).Error("gRPC health server failed")
		}
	}()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				healthServer.Shutdown() // set all services to NOT_SERVING
				grpcHealthServer.Stop()
				return
			}
		}
	}()
}
