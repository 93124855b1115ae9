// Package observability exposes Prometheus counters and histograms for the
// ingestion pipeline and the HTTP surface.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docrag_http_requests_total",
		Help: "Total HTTP requests by route and status code.",
	}, []string{"route", "status"})

	IngestionStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docrag_ingestion_stage_duration_seconds",
		Help:    "Duration of each ingestion pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	IngestionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docrag_ingestion_runs_total",
		Help: "Total ingestion pipeline runs by terminal status.",
	}, []string{"status"})

	RetrievalCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docrag_retrieval_candidates",
		Help:    "Number of candidates returned by a vector-store search before rerank.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200},
	})

	LLMProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docrag_llm_provider_calls_total",
		Help: "Total LLM provider calls by provider and outcome.",
	}, []string{"provider", "outcome"})
)

// Handler serves the standard Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
