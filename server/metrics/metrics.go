// Package metrics exposes Prometheus collectors for the dashboard backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts calls to third-party APIs by provider and outcome.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obel",
		Name:      "upstream_requests_total",
		Help:      "Third-party API calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	// AssistantTurns counts assistant chat turns by outcome
	// (ok, validation_error, upstream_error).
	AssistantTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obel",
		Name:      "assistant_turns_total",
		Help:      "Assistant chat turns by outcome.",
	}, []string{"outcome"})

	// AssistantTurnDuration observes end-to-end assistant turn latency.
	AssistantTurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "obel",
		Name:      "assistant_turn_duration_seconds",
		Help:      "End-to-end assistant turn latency.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequests counts inbound HTTP requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obel",
		Name:      "http_requests_total",
		Help:      "Inbound HTTP requests by path and status class.",
	}, []string{"path", "status"})
)

// ObserveUpstream records one third-party call result.
func ObserveUpstream(provider string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(provider, outcome).Inc()
}
