// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"net/http"
	"strings"
)

// handlerFunc is a route handler. A returned error is rendered by the error
// handler, so it must not have written a response.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type route struct {
	group       string
	method      string
	path        string
	description string
	handler     handlerFunc
}

func (rt *route) pattern() string {
	return rt.method + " " + rt.path
}

// displayPath is the path as shown to users.
func (rt *route) displayPath() string {
	return strings.TrimSuffix(rt.path, "{$}")
}

const (
	groupBasic    = "Basic"
	groupLoadTest = "Load test"
	groupErrors   = "Error"
	groupDatabase = "Database"
	groupSystem   = "System"
)

func (s *Server) routeTable() []route {
	return []route{
		{groupBasic, http.MethodGet, "/{$}", "Root endpoint - Basic response", s.root},
		{groupBasic, http.MethodGet, "/success", "Returns 200 OK success response", s.success},
		{groupBasic, http.MethodGet, "/error", "Returns 500 Internal Server Error", s.serverError},
		{groupBasic, http.MethodGet, "/slow", "Simulates a 2-second delay before responding", s.slow},
		{groupBasic, http.MethodGet, "/demo-business-transaction", "Records a business transaction, failing with ?fail=true", s.businessTransaction},

		{groupLoadTest, http.MethodGet, "/load-test/cpu-intensive", "CPU intensive operation (calculates prime numbers)", s.cpuIntensive},
		{groupLoadTest, http.MethodGet, "/load-test/memory-intensive", "Memory intensive operation (creates large arrays)", s.memoryIntensive},
		{groupLoadTest, http.MethodGet, "/load-test/random-latency", "Random response times (0-2000ms)", s.randomLatency},
		{groupLoadTest, http.MethodGet, "/load-test/extreme-cpu", "Extreme CPU load using recursive Fibonacci calculation (?n=, at most 45)", s.extremeCPU},
		{groupLoadTest, http.MethodGet, "/load-test/memory-leak", "Memory leak simulation that adds items to a global array", s.memoryLeak},
		{groupLoadTest, http.MethodGet, "/load-test/reset-memory-leak", "Resets the memory leak simulation", s.resetMemoryLeak},
		{groupLoadTest, http.MethodGet, "/load-test/heavy-io", "Heavy I/O operations simulation", s.heavyIO},
		{groupLoadTest, http.MethodGet, "/load-test/complex-query", "Complex database query simulation with joins and aggregations", s.complexQuery},
		{groupLoadTest, http.MethodGet, "/load-test/concurrent-workload", "Concurrent workload running multiple operations in parallel", s.concurrentWorkload},

		{groupErrors, http.MethodGet, "/errors/not-found", "Returns 404 Not Found response", s.statusError(http.StatusNotFound, "Resource not found", "Not Found")},
		{groupErrors, http.MethodGet, "/errors/bad-request", "Returns 400 Bad Request response", s.statusError(http.StatusBadRequest, "Bad request", "Invalid parameters")},
		{groupErrors, http.MethodGet, "/errors/unauthorized", "Returns 401 Unauthorized response", s.statusError(http.StatusUnauthorized, "Authentication required", "Unauthorized")},
		{groupErrors, http.MethodGet, "/errors/forbidden", "Returns 403 Forbidden response", s.statusError(http.StatusForbidden, "Access denied", "Forbidden")},
		{groupErrors, http.MethodGet, "/errors/exception", "Panics (handled by the recovery middleware)", s.exception},
		{groupErrors, http.MethodGet, "/errors/debug-error", "Returns detailed error information for debugging", s.debugError},
		{groupErrors, http.MethodGet, "/errors/multi-error-test", "Generates multiple error types in logs for Grafana testing", s.multiErrorTest},
		{groupErrors, http.MethodGet, "/errors/grafana-error-test", "Creates a comprehensive error log entry with all possible properties for Grafana testing", s.grafanaErrorTest},

		{groupDatabase, http.MethodGet, "/db/users", "Get all users from simulated database", s.users},
		{groupDatabase, http.MethodGet, "/db/users/{id}", "Get a user by ID with related posts", s.user},
		{groupDatabase, http.MethodGet, "/db/posts", "Get all posts from simulated database", s.posts},
		{groupDatabase, http.MethodGet, "/db/posts/{id}", "Get a post by ID with comments and author", s.post},
		{groupDatabase, http.MethodGet, "/db/db-error", "Simulates a database connection error", s.databaseError},
		{groupDatabase, http.MethodGet, "/db/slow-query", "Simulates a slow database query (3 seconds)", s.slowQuery},
		{groupDatabase, http.MethodGet, "/db/ora-00942", "Simulates ORA-00942: table or view does not exist", s.databaseError},
		{groupDatabase, http.MethodGet, "/db/syntax-error", "Simulates an SQL syntax error", s.databaseError},
		{groupDatabase, http.MethodGet, "/db/deadlock", "Simulates ORA-00060: deadlock detected", s.databaseError},
		{groupDatabase, http.MethodGet, "/db/ora-01652", "Simulates ORA-01652: unable to extend temp segment", s.databaseError},
		{groupDatabase, http.MethodGet, "/db/foreign-key", "Simulates ORA-02291: integrity constraint violated", s.databaseError},

		{groupSystem, http.MethodGet, "/metrics", "Prometheus metrics endpoint", s.metricsEndpoint},
		{groupSystem, http.MethodGet, "/health", "Basic health check", s.health},
		{groupSystem, http.MethodGet, "/health/detailed", "Uptime, memory usage and requests in flight", s.healthDetailed},
		{groupSystem, http.MethodGet, "/docs", "This documentation page", s.docs},
	}
}

type routeGroup struct {
	name   string
	routes []*route
}

// routeGroups groups the routes, keeping their order.
func routeGroups(routes []route) []routeGroup {
	var groups []routeGroup
	for i := range routes {
		rt := &routes[i]
		if len(groups) == 0 || groups[len(groups)-1].name != rt.group {
			groups = append(groups, routeGroup{name: rt.group})
		}
		g := &groups[len(groups)-1]
		g.routes = append(g.routes, rt)
	}
	return groups
}
