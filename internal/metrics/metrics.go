// Package metrics exposes the refresh pipeline's Prometheus instruments,
// grounded on control_plane/observability/metrics.go's promauto package-var
// style (global vectors registered once at import time).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshCyclesTotal counts completed refresh cycles by outcome.
	RefreshCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendarlite_refresh_cycles_total",
		Help: "Total number of refresh pipeline cycles, by outcome",
	}, []string{"outcome"}) // outcome: success, partial, failed

	// SourceFetchesTotal counts per-source fetch attempts by outcome.
	SourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendarlite_source_fetches_total",
		Help: "Total ICS source fetch attempts, by source and outcome",
	}, []string{"source", "outcome"}) // outcome: success, not_modified, failed

	// EventsIngested tracks the number of events carried by the most recent
	// successful window swap.
	EventsIngested = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calendarlite_events_ingested",
		Help: "Number of events in the current event window",
	})

	// RefreshDurationSeconds tracks the wall time of a full refresh cycle.
	RefreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calendarlite_refresh_duration_seconds",
		Help:    "Duration of a full refresh pipeline cycle",
		Buckets: prometheus.DefBuckets,
	})

	// SourceCircuitState is registered for each source's breaker state
	// (0=closed, 1=half_open, 2=open); no code path sets it, so /metrics
	// carries no series for it.
	SourceCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "calendarlite_source_circuit_state",
		Help: "ICS source circuit breaker state (0=closed, 1=half_open, 2=open)",
	}, []string{"source"})

	// SkipStoreSize is registered for the number of active skip entries;
	// no code path sets it, so it reports 0.
	SkipStoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calendarlite_skip_store_size",
		Help: "Number of currently active skip entries",
	})

	// AlexaRequestsTotal is registered for Alexa endpoint hits by intent and
	// status; no handler increments it, so /metrics carries no series for it.
	AlexaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendarlite_alexa_requests_total",
		Help: "Total Alexa handler invocations, by intent and http status",
	}, []string{"intent", "status"})
)
