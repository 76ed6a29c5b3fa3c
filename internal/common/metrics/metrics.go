// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Lead rule outcomes.
var (
	LeadRoutingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_routing_total",
			Help: "Leads routed, by assigned owner",
		},
		[]string{"owner"},
	)

	LeadAutoConvertTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_auto_convert_total",
			Help: "Auto-conversion decisions, by outcome",
		},
		[]string{"outcome"},
	)

	LeadViewsSelectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_views_selected_total",
			Help: "View selections, by view kind",
		},
		[]string{"kind"},
	)

	LeadPipelineResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_pipeline_results",
			Help:    "Leads left after the filter pipeline",
			Buckets: []float64{0, 1, 5, 20, 100, 500, 1000},
		},
		[]string{"view"},
	)
)

const (
	OutcomeConverted    = "converted"
	OutcomeEligible     = "eligible"
	OutcomeNotEligible  = "not_eligible"
	OutcomeAlreadyFinal = "already_converted"
)
