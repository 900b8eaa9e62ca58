// Package metrics exposes the router's Prometheus instruments. They are
// registered on the default registry at import time and served by the REST
// process on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RouteRequests counts every routing decision returned to a caller,
	// keyed by how the decision was reached.
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskmate_route_requests_total",
			Help: "Routing decisions returned, by mode, reason and category",
		},
		[]string{"mode", "reason", "category"},
	)

	// RouteLatency tracks end to end latency of one routing turn.
	RouteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskmate_route_latency_seconds",
			Help:    "End to end duration of a routing turn in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"mode"},
	)

	// GateEffects counts heuristic gate rule hits.
	GateEffects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskmate_gate_effects_total",
			Help: "Heuristic gate rule hits, by effect and rule name",
		},
		[]string{"effect", "rule"},
	)

	// MatcherLatency tracks the embed plus search phase.
	MatcherLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskmate_matcher_latency_seconds",
			Help:    "Duration of the similarity matching phase in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 2.5},
		},
	)

	// MatcherDegraded counts matcher runs that produced no usable signal.
	MatcherDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deskmate_matcher_degraded_total",
			Help: "Similarity matcher runs that failed or timed out",
		},
	)

	// LLMLatency tracks arbitration and clarification model calls.
	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskmate_llm_latency_seconds",
			Help:    "Duration of model calls in seconds, by operation",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		},
		[]string{"operation"},
	)

	// ArbitrationOutcomes counts whether arbitration used the model's answer
	// or fell back deterministically.
	ArbitrationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskmate_arbitration_outcomes_total",
			Help: "Arbitration results, by outcome (model or fallback)",
		},
		[]string{"outcome"},
	)

	// ClarificationOutcomes counts how pending clarifications ended.
	ClarificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskmate_clarification_outcomes_total",
			Help: "Pending clarification resolutions, by outcome",
		},
		[]string{"outcome"},
	)

	// ClarificationsOpen is the number of conversations with an open question.
	ClarificationsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deskmate_clarifications_open",
			Help: "Conversations currently holding a pending clarification",
		},
	)

	// DecisionCache counts redis decision cache lookups.
	DecisionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskmate_decision_cache_total",
			Help: "Decision cache lookups, by result (hit or miss)",
		},
		[]string{"result"},
	)

	// PrototypeCatalogSize is the number of live examples per category.
	PrototypeCatalogSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deskmate_prototype_catalog_size",
			Help: "Prototype examples in the active snapshot, by category",
		},
		[]string{"category"},
	)

	// SupersededTurns counts in-flight turns abandoned because a newer
	// message arrived on the same conversation.
	SupersededTurns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deskmate_superseded_turns_total",
			Help: "Routing turns discarded after being superseded mid-flight",
		},
	)
)
