package may

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics instruments a Store. A nil *storeMetrics is valid and
// counts nothing, so call sites never need to branch on whether metrics
// were configured.
type storeMetrics struct {
	ops            *prometheus.CounterVec
	decodeFailures prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &storeMetrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "may_operations_total",
			Help: "Datastore operations, labeled by kind.",
		}, []string{"op"}),
		decodeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "may_decode_failures_total",
			Help: "Stored blobs that failed to decode and were treated as absent.",
		}),
	}
}

func (m *storeMetrics) op(name string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(name).Inc()
}

func (m *storeMetrics) decodeFailure() {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}
