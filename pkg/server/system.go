// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
	"github.com/cilium/monitoring-poc/pkg/metrics/healthmetrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/memmetrics"
)

// DetailedHealth is the response of /health/detailed.
type DetailedHealth struct {
	Status         string             `json:"status" yaml:"status"`
	Uptime         float64            `json:"uptime" yaml:"uptime"`
	Timestamp      string             `json:"timestamp" yaml:"timestamp"`
	Memory         map[string]string  `json:"memory" yaml:"memory"`
	ActiveRequests map[string]float64 `json:"activeRequests" yaml:"activeRequests"`
	Components     map[string]bool    `json:"components" yaml:"components"`
}

func (s *Server) metricsEndpoint(w http.ResponseWriter, r *http.Request) error {
	metrics.Handler(s.metrics.Registry).ServeHTTP(w, r)
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	return nil
}

func (s *Server) detailedHealth() *DetailedHealth {
	h := &DetailedHealth{
		Status:         "UP",
		Uptime:         time.Since(s.start).Seconds(),
		Timestamp:      timestamp(),
		Memory:         make(map[string]string),
		ActiveRequests: make(map[string]float64),
		Components:     make(map[string]bool),
	}
	usage := memmetrics.ReadUsage()
	for _, typ := range []memmetrics.MemoryType{memmetrics.RSS, memmetrics.HeapTotal, memmetrics.HeapUsed, memmetrics.External} {
		h.Memory[typ.String()] = fmt.Sprintf("%.0f MB", toMB(usage[typ]))
	}
	for _, method := range consts.HTTPMethods {
		h.ActiveRequests[method] = s.activeRequests(method)
	}
	for _, c := range healthmetrics.Components {
		h.Components[c.String()] = s.metrics.Health.Healthy(c)
	}
	return h
}

func (s *Server) activeRequests(method string) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField(logfields.Panic, r).Warn("Error getting active requests metrics")
			v = 0
		}
	}()
	return s.metrics.HTTP.ActiveRequests.Value(method)
}

func (s *Server) healthDetailed(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, s.detailedHealth())
	return nil
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>API Documentation - Monitoring POC v2</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 0 auto; padding: 20px; }
    h1 { color: #2c3e50; }
    h2 { color: #3498db; margin-top: 30px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
    th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
    th { background-color: #f2f2f2; font-weight: bold; }
    .method { font-weight: bold; color: #3498db; }
    .path { font-family: monospace; background-color: #f5f5f5; padding: 2px 4px; border-radius: 3px; }
  </style>
</head>
<body>
  <h1>API Documentation - Monitoring POC v2</h1>
  <p>This API provides various endpoints for testing and monitoring.</p>
{{- range .Groups}}
  <h2>{{.Name}} endpoints</h2>
  <table>
    <tr><th>Method</th><th>Path</th><th>Description</th></tr>
{{- range .Endpoints}}
    <tr><td class="method">{{.Method}}</td><td class="path">{{.Path}}</td><td>{{.Description}}</td></tr>
{{- end}}
  </table>
{{- end}}
  <h2>Testing Instructions</h2>
  <p>To test these endpoints and observe metrics, use tools like curl. For example:</p>
  <pre>curl http://{{.Host}}/success</pre>
</body>
</html>
`))

type docsEndpoint struct {
	Method      string
	Path        string
	Description string
}

type docsGroup struct {
	Name      string
	Endpoints []docsEndpoint
}

type docsPage struct {
	Host   string
	Groups []docsGroup
}

func (s *Server) docs(w http.ResponseWriter, r *http.Request) error {
	page := docsPage{Host: r.Host}
	for _, g := range routeGroups(s.routes) {
		dg := docsGroup{Name: g.name}
		for _, rt := range g.routes {
			dg.Endpoints = append(dg.Endpoints, docsEndpoint{
				Method:      rt.method,
				Path:        rt.displayPath(),
				Description: rt.description,
			})
		}
		page.Groups = append(page.Groups, dg)
	}

	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, &page); err != nil {
		return fmt.Errorf("failed to render documentation: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
	return nil
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) error {
	log.WithField(logfields.Path, r.URL.RequestURI()).Warn("Route not found")
	writeJSON(w, http.StatusNotFound, map[string]any{
		"message":   "Not Found",
		"path":      r.URL.Path,
		"method":    r.Method,
		"timestamp": timestamp(),
	})
	return nil
}
