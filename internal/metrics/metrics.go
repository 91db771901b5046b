// Package metrics exposes prometheus instrumentation for protocol
// operations and the event pipeline.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twoside",
			Name:      "operations_total",
			Help:      "Total number of protocol operations processed",
		},
		[]string{"status", "kind"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "twoside",
			Name:      "operation_duration_seconds",
			Help:      "Operation duration in seconds, submission included",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"kind"},
	)

	feeSharesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twoside",
			Name:      "fee_shares_total",
			Help:      "Cumulative fee shares in base units, per beneficiary",
		},
		[]string{"beneficiary"},
	)

	eventsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twoside",
			Name:      "events_indexed_total",
			Help:      "Protocol events persisted to the off-chain trail",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Collector records protocol activity into the default prometheus registry.
type Collector struct{}

// NewCollector returns the collector, registering the metric set on first use.
func NewCollector() *Collector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			operationsTotal, operationDuration, feeSharesTotal, eventsIndexed,
		)
	})
	return &Collector{}
}

// RecordOperation records one finished operation.
func (c *Collector) RecordOperation(ctx context.Context, kind string, duration time.Duration, success bool) {
	status := "success"
	switch {
	case ctx.Err() != nil:
		status = "cancelled"
	case !success:
		status = "failed"
	}

	operationsTotal.WithLabelValues(status, kind).Inc()
	operationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordFeeShares adds one settled fee split to the beneficiary counters.
func (c *Collector) RecordFeeShares(developerShare, founderShare uint64) {
	feeSharesTotal.WithLabelValues("developer").Add(float64(developerShare))
	feeSharesTotal.WithLabelValues("founder").Add(float64(founderShare))
}

// RecordEventIndexed counts one event written to the trail.
func (c *Collector) RecordEventIndexed(eventType string) {
	eventsIndexed.WithLabelValues(eventType).Inc()
}

// Reset clears all metric series (useful for testing).
func (c *Collector) Reset() {
	operationsTotal.Reset()
	operationDuration.Reset()
	feeSharesTotal.Reset()
	eventsIndexed.Reset()
}
