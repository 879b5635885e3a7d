// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"step", "outcome"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "conversation_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"step"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of active conversation sessions",
		},
	)

	ExtractionHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_hits_total",
			Help: "Total number of field-extraction rule matches",
		},
		[]string{"rule"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM completion requests",
		},
		[]string{"outcome"},
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "llm_request_duration_seconds",
			Help: "Duration of LLM completion requests in seconds",
		},
	)

	RequestsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "requests_throttled_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
