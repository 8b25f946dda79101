package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Observed from the HTTP layer and the ticketing applier only; engine stages
// stay free of shared state.
var (
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "call_decision_analyses_total",
		Help: "Analyses run, by outcome (composed, input_error, reasoning_unavailable, unknown_taxonomy).",
	}, []string{"outcome"})

	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "call_decision_decisions_total",
		Help: "Composed decisions, by incident type.",
	}, []string{"incident_type"})

	FollowUpsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "call_decision_follow_ups_total",
		Help: "Decisions that continue an already-open incident.",
	})

	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "call_decision_analysis_duration_seconds",
		Help:    "Wall time of one full analysis.",
		Buckets: prometheus.DefBuckets,
	})

	ApplierResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "call_decision_applier_results_total",
		Help: "Ticketing applier outcomes (applied, routed_to_review, failed).",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		AnalysesTotal,
		DecisionsTotal,
		FollowUpsTotal,
		AnalysisDuration,
		ApplierResultsTotal,
	)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
