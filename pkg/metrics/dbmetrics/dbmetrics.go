// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package dbmetrics

import (
	"time"

	"github.com/cilium/monitoring-poc/pkg/metrics"
	"github.com/cilium/monitoring-poc/pkg/metrics/consts"
)

type Operation int

const (
	OpSelect Operation = iota
	OpJoin
	OpAggregate
)

var operationLabelValues = map[Operation]string{
	OpSelect:    "select",
	OpJoin:      "join",
	OpAggregate: "aggregate",
}

func (o Operation) String() string {
	return operationLabelValues[o]
}

type Entity int

const (
	EntityUsers Entity = iota
	EntityPosts
	EntityComments
)

var entityLabelValues = map[Entity]string{
	EntityUsers:    "users",
	EntityPosts:    "posts",
	EntityComments: "comments",
}

func (e Entity) String() string {
	return entityLabelValues[e]
}

var (
	operationLabel = metrics.ConstrainedLabel{
		Name:   "operation",
		Values: []string{OpSelect.String(), OpJoin.String(), OpAggregate.String()},
	}
	entityLabel = metrics.ConstrainedLabel{
		Name:   "entity",
		Values: []string{EntityUsers.String(), EntityPosts.String(), EntityComments.String()},
	}
)

type Metrics struct {
	QueriesTotal  *metrics.Counter
	QueryDuration *metrics.Histogram
}

func NewMetrics(group *metrics.Group) (*Metrics, error) {
	queriesTotal, err := group.NewCounter(metrics.NewOpts(
		consts.MetricsNamespace, "database", "queries_total",
		"Total number of database queries",
		[]metrics.ConstrainedLabel{operationLabel, entityLabel}, nil,
	))
	if err != nil {
		return nil, err
	}
	queryDuration, err := group.NewHistogram(metrics.HistogramOpts{
		Opts: metrics.NewOpts(
			consts.MetricsNamespace, "database", "query_duration_seconds",
			"Duration of database queries in seconds",
			[]metrics.ConstrainedLabel{operationLabel, entityLabel}, nil,
		),
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	})
	if err != nil {
		return nil, err
	}
	return &Metrics{
		QueriesTotal:  queriesTotal,
		QueryDuration: queryDuration,
	}, nil
}

// TrackQuery records a completed query.
func (m *Metrics) TrackQuery(op Operation, entity Entity, d time.Duration) {
	labels := []string{op.String(), entity.String()}
	metrics.LogUpdateError(m.QueriesTotal.Inc(labels...))
	metrics.SafeObserve(m.QueryDuration, labels, d)
}
