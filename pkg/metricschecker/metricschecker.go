// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package metricschecker checks scraped metrics in tests.
package metricschecker

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	model "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/multierr"
)

// MetricsChecker checks metric families indexed by name.
type MetricsChecker interface {
	Check(metrics map[string]*model.MetricFamily) error
}

// Checker runs all checkers and reports every failure.
func Checker(checkers ...MetricsChecker) MetricsChecker {
	return &MultiMetricsChecker{checkers: checkers}
}

type MultiMetricsChecker struct {
	checkers []MetricsChecker
}

func (m *MultiMetricsChecker) Check(metrics map[string]*model.MetricFamily) error {
	var errs []error
	for _, c := range m.checkers {
		if err := c.Check(metrics); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &MultiMetricsCheckError{inner: errs}
}

var scrapeClient = &http.Client{Timeout: 10 * time.Second}

// CheckUrl scrapes url and checks the result.
func CheckUrl(checker MetricsChecker, url string) error {
	resp, err := scrapeClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s fetching %s", resp.Status, url)
	}
	families, err := parse(resp.Body)
	if err != nil {
		return err
	}
	return checker.Check(families)
}

// CheckGatherer checks the families gathered from g.
func CheckGatherer(checker MetricsChecker, g prometheus.Gatherer) error {
	gathered, err := g.Gather()
	if err != nil {
		return err
	}
	families := make(map[string]*model.MetricFamily, len(gathered))
	for _, mf := range gathered {
		families[mf.GetName()] = mf
	}
	return checker.Check(families)
}

// ParseText parses metrics in the text exposition format.
func ParseText(text string) (map[string]*model.MetricFamily, error) {
	return parse(strings.NewReader(text))
}

// CheckText parses text and checks the result.
func CheckText(checker MetricsChecker, text string) error {
	families, err := ParseText(text)
	if err != nil {
		return err
	}
	return checker.Check(families)
}

func parse(r io.Reader) (map[string]*model.MetricFamily, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("parsing metrics: %w", err)
	}
	return families, nil
}

func getMetric(metrics map[string]*model.MetricFamily, name string) (*model.MetricFamily, error) {
	switch mf, ok := metrics[name]; {
	case !ok:
		return nil, fmt.Errorf("no such metric with name %s", name)
	case mf == nil:
		return nil, fmt.Errorf("nil metric with name %s", name)
	default:
		return mf, nil
	}
}

// MetricsCheckError holds the failed checks of one metric.
type MetricsCheckError struct {
	name  string
	inner []error
}

func (e *MetricsCheckError) Error() string {
	return fmt.Sprintf("'%s' checks failed: %v", e.name, e.Inner())
}

func (e *MetricsCheckError) Inner() error {
	return multierr.Combine(e.inner...)
}

// MultiMetricsCheckError holds the failures of a MultiMetricsChecker.
type MultiMetricsCheckError struct {
	inner []error
}

func (e *MultiMetricsCheckError) Error() string {
	return fmt.Sprintf("multiple metrics checks failed: %v", e.Inner())
}

func (e *MultiMetricsCheckError) Inner() error {
	return multierr.Combine(e.inner...)
}

// Unwrap exposes the failures to errors.As.
func (e *MultiMetricsCheckError) Unwrap() []error {
	return e.inner
}
