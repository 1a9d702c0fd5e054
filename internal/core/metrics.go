package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the CHV repository.
type Metrics struct {
	// Records created by entity kind
	RecordsCreated *prometheus.CounterVec

	// Notification attempts by tier and result ("ok", "error")
	Notifications *prometheus.CounterVec

	// Snapshot operations by op ("save", "load") and result
	SnapshotOps *prometheus.CounterVec

	// Snapshot save latency
	SnapshotLatency prometheus.Histogram
}

// NewMetrics registers the repository metrics on reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RecordsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chvcore_records_created_total",
			Help: "Total records created by entity kind",
		}, []string{"entity"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chvcore_notifications_total",
			Help: "Total escalation notification attempts by tier and result",
		}, []string{"tier", "result"}),

		SnapshotOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chvcore_snapshot_operations_total",
			Help: "Total snapshot save and load operations by result",
		}, []string{"op", "result"}),

		SnapshotLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chvcore_snapshot_save_duration_seconds",
			Help:    "Duration of snapshot serialisation and slot write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a newly created record.
func (m *Metrics) IncrementCreated(entity string) {
	if m != nil {
		m.RecordsCreated.WithLabelValues(entity).Inc()
	}
}

// IncrementNotification records a delivery attempt for a tier.
func (m *Metrics) IncrementNotification(tier string, err error) {
	if m != nil {
		m.Notifications.WithLabelValues(tier, resultLabel(err)).Inc()
	}
}

// IncrementSnapshot records a snapshot operation.
func (m *Metrics) IncrementSnapshot(op string, err error) {
	if m != nil {
		m.SnapshotOps.WithLabelValues(op, resultLabel(err)).Inc()
	}
}

// ObserveSnapshotLatency records the duration of a snapshot save.
func (m *Metrics) ObserveSnapshotLatency(d time.Duration) {
	if m != nil {
		m.SnapshotLatency.Observe(d.Seconds())
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
