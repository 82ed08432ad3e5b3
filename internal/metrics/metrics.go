// Package metrics registers the runtime's Prometheus instrumentation: state
// transitions, tool-turn outcomes, tool-turn-budget hits, SSE errors, and
// provider request latency (spec §4.9).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram the runtime increments. The agent
// runtime updates them; the Anthropic adapter's SSE parsing loop never
// touches them, so stream dispatch takes no metric locks.
type Metrics struct {
	// StateTransitions counts agent state-machine transitions.
	// Labels: from, to (idle|waiting_for_llm|executing_tool)
	StateTransitions *prometheus.CounterVec

	// ToolTurns counts tool dispatches by tool name and outcome.
	// Labels: tool, outcome (success|error)
	ToolTurns *prometheus.CounterVec

	// ToolTurnLimitReached counts turns where max_tool_turns was hit.
	ToolTurnLimitReached prometheus.Counter

	// SSEErrors counts failed provider round trips (stream errors, HTTP
	// errors, cancellations) by the id.Kind of the returned error.
	// Labels: category (an id.Kind value, e.g. provider|rate_limit|io|unknown)
	SSEErrors *prometheus.CounterVec

	// ProviderRequestDuration measures non-streaming and streaming provider
	// request latency in seconds.
	ProviderRequestDuration prometheus.Histogram
}

// New creates and registers every metric with the default registry. Call
// once at process startup.
func New() *Metrics {
	return &Metrics{
		StateTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikigai_state_transitions_total",
				Help: "Agent state-machine transitions by from/to state",
			},
			[]string{"from", "to"},
		),

		ToolTurns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikigai_tool_turns_total",
				Help: "Tool dispatches by tool name and outcome",
			},
			[]string{"tool", "outcome"},
		),

		ToolTurnLimitReached: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ikigai_tool_turn_limit_reached_total",
				Help: "Turns where max_tool_turns was reached",
			},
		),

		SSEErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikigai_sse_errors_total",
				Help: "Anthropic SSE stream errors by category",
			},
			[]string{"category"},
		),

		ProviderRequestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ikigai_provider_request_duration_seconds",
				Help:    "Provider request latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}
}
