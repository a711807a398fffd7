package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_requests_total",
			Help: "Discovery requests by outcome",
		},
		[]string{"outcome"},
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_duration_seconds",
			Help:    "Wall-clock duration of discovery requests",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 6, 8, 10},
		},
	)

	stepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_step_failures_total",
			Help: "Enrichment step failures by step",
		},
		[]string{"step"},
	)

	crmWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_crm_writes_total",
			Help: "CRM record writes by result",
		},
		[]string{"result"},
	)

	timeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_timeouts_total",
			Help: "Discovery batches cut short by the batch deadline",
		},
	)

	activeEnrichments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discovery_enrichments_active",
			Help: "Per-place enrichment pipelines currently running",
		},
	)
)

// Request outcomes.
const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeInvalid = "invalid"
	outcomeConfig  = "config_error"
	outcomeSearch  = "search_error"
)
