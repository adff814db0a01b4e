package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gepa_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	MutationRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_mutation_rounds_total",
		Help: "Total mutation rounds by outcome",
	}, []string{"status"})

	MutationRoundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gepa_mutation_round_duration_seconds",
		Help:    "End-to-end mutation round duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	SuggestionsParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_suggestions_parsed_total",
		Help: "Suggestions parsed from reflections by format",
	}, []string{"format"})

	SuggestionsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gepa_suggestions_dropped_total",
		Help: "Malformed suggestions dropped during parsing",
	})

	EditsBuiltTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_edits_built_total",
		Help: "Prompt edits built by operation",
	}, []string{"operation"})

	EditConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_edit_conflicts_total",
		Help: "Conflict groups detected by type",
	}, []string{"type"})

	GenerationRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gepa_generation_request_duration_seconds",
		Help:    "Response generation duration during evaluation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	CandidateFitness = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gepa_candidate_fitness",
		Help:    "Fitness scores of evaluated candidates",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
)
