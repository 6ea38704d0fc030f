// Package metrics exposes Prometheus instrumentation for collection sync.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeRemoteFail = "remote_error"
	OutcomeBusy       = "busy"
	OutcomeStale      = "stale"
)

// Recorder receives synchronizer events. The synchronizer depends on this
// interface so tests and metric-less setups can pass Nop.
type Recorder interface {
	RecordOperation(op, outcome string)
	RecordRemoteLatency(op string, d time.Duration)
	SetSnapshotSize(n int)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOperation(string, string)            {}
func (Nop) RecordRemoteLatency(string, time.Duration) {}
func (Nop) SetSnapshotSize(int)                       {}

// Collector records synchronizer events as Prometheus metrics.
type Collector struct {
	operations    *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	snapshotItems prometheus.Gauge
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoop_sync_operations_total",
			Help: "Synchronizer operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoop_remote_latency_seconds",
			Help:    "Latency of remote store calls in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		snapshotItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scoop_snapshot_items",
			Help: "Items in the current snapshot.",
		}),
	}
	reg.MustRegister(c.operations, c.remoteLatency, c.snapshotItems)
	return c
}

// RecordOperation counts one finished operation.
func (c *Collector) RecordOperation(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// RecordRemoteLatency observes the duration of a remote call.
func (c *Collector) RecordRemoteLatency(op string, d time.Duration) {
	c.remoteLatency.WithLabelValues(op).Observe(d.Seconds())
}

// SetSnapshotSize sets the snapshot gauge.
func (c *Collector) SetSnapshotSize(n int) {
	c.snapshotItems.Set(float64(n))
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
