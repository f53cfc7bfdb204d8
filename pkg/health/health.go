// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package health

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
)

// LivenessService is the name of the service reported by the health server.
const LivenessService = "liveness"

// GetHealth evaluates the health of the application from the health status
// metric. It's healthy only if all components are.
func GetHealth(status *healthmetrics.Status) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	unhealthy := status.Unhealthy()
	if len(unhealthy) == 0 {
		return grpc_health_v1.HealthCheckResponse_SERVING, nil
	}
	names := make([]string, 0, len(unhealthy))
	for _, c := range unhealthy {
		names = append(names, c.String())
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		fmt.Errorf("unhealthy components: %s", strings.Join(names, ", "))
}
