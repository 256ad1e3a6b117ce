package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claim_predictions_total",
		Help: "Total number of claim predictions, by verdict.",
	}, []string{"verdict"})
	predictionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claim_prediction_failures_total",
		Help: "Total number of failed predictions, by pipeline stage.",
	}, []string{"stage"})
	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claim_prediction_duration_seconds",
		Help:    "Duration of transform + predict for one record.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claim_score_cache_hits_total",
		Help: "Total number of predictions served from the score cache.",
	})
	formRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claim_form_rejections_total",
		Help: "Total number of submissions rejected by field validation.",
	})
)

// RecordRejection counts a submission that failed field validation.
func RecordRejection() {
	formRejections.Inc()
}
