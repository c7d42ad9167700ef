// Package metrics holds the engine's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

// Registry returns the registry all engine collectors are registered on.
func Registry() *prometheus.Registry {
	return registry
}

var (
	Propagations = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "viewengine",
		Subsystem: "controller",
		Name:      "propagations_total",
		Help:      "Debounced state propagations delivered to the query and URL sinks",
	}, []string{"entity_type"})

	CoalescedMutations = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "viewengine",
		Subsystem: "controller",
		Name:      "coalesced_mutations_total",
		Help:      "Mutations whose pending propagation was superseded inside the debounce window",
	}, []string{"entity_type"})

	StaleDiscards = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "viewengine",
		Subsystem: "controller",
		Name:      "stale_discards_total",
		Help:      "Async results discarded because a newer mutation superseded them",
	}, []string{"operation"})

	ReorderReverts = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "viewengine",
		Subsystem: "ordering",
		Name:      "reverts_total",
		Help:      "Optimistic reorders reverted after a failed confirmation",
	})

	CountRefreshes = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "viewengine",
		Subsystem: "gateway",
		Name:      "count_refreshes_total",
		Help:      "Record count refreshes by result",
	}, []string{"result"})

	CountRefreshDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "viewengine",
		Subsystem: "gateway",
		Name:      "count_refresh_seconds",
		Help:      "Latency of record count refreshes",
		Buckets:   prometheus.DefBuckets,
	})
)
