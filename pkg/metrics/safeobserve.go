// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/cilium/monitoring-poc/pkg/logger"
	"github.com/cilium/monitoring-poc/pkg/logger/logfields"
)

// Observer is implemented by *Histogram and *Gauge.
type Observer interface {
	Definition() Definition
	Observe(v float64, lvs ...string) error
}

// SafeObserve records raw into h, never failing or panicking.
//
// raw is coerced to a float64: numeric types, numeric strings, json.Number
// and bools are accepted, time.Duration is converted to seconds. Values that
// can't be coerced, as well as NaN, infinite and negative ones, are dropped
// with a warning. Errors returned by Observe (e.g. *LabelArityError) and
// panics are logged and swallowed.
func SafeObserve(h Observer, labels []string, raw any) {
	safeRecord(h, labels, raw, true)
}

// SafeSet is like SafeObserve for gauges. Negative values are accepted.
func SafeSet(g *Gauge, labels []string, raw any) {
	safeRecord(g, labels, raw, false)
}

func safeRecord(o Observer, labels []string, raw any, nonNegative bool) {
	var name string
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithFields(logrus.Fields{
				logfields.Metric: name,
				logfields.Labels: labels,
				logfields.Value:  raw,
				logfields.Panic:  r,
			}).Error("Recovered panic while recording metric")
		}
	}()

	name = o.Definition().Name
	v, err := ToFloat64(raw)
	if err == nil && nonNegative && v < 0 {
		err = &InvalidValueError{Metric: name, Value: raw, Reason: "value is negative"}
	}
	if err != nil {
		logger.GetLogger().WithFields(logrus.Fields{
			logfields.Metric:    name,
			logfields.Labels:    labels,
			logfields.Value:     raw,
			logfields.ValueType: fmt.Sprintf("%T", raw),
		}).WithError(err).Warn("Dropping invalid metric observation")
		return
	}

	if err := o.Observe(v, labels...); err != nil {
		logger.GetLogger().WithFields(logrus.Fields{
			logfields.Metric: name,
			logfields.Labels: labels,
			logfields.Value:  raw,
		}).WithError(err).Error("Failed to record metric")
	}
}

// LogUpdateError logs err, if any, returned by a metric update on a path that
// must not fail because of metrics.
func LogUpdateError(err error) {
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to update metric")
	}
}

// ToFloat64 coerces raw into a finite float64.
func ToFloat64(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case nil:
		return 0, &InvalidValueError{Value: raw, Reason: "value is nil"}
	case time.Duration:
		v = x.Seconds()
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(x))
		if err != nil {
			return 0, &InvalidValueError{Value: raw, Reason: err.Error()}
		}
		v = f
	default:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return 0, &InvalidValueError{Value: raw, Reason: err.Error()}
		}
		v = f
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidValueError{Value: raw, Reason: "value is not finite"}
	}
	return v, nil
}
