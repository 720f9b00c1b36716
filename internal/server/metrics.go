package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus instruments.
type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	CheckDuration      prometheus.Histogram
	ImageFindingsTotal prometheus.Counter
	ModelCallsTotal    *prometheus.CounterVec
	ReceiptWriteErrors prometheus.Counter
}

// NewMetrics registers the instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postcheck_checks_total",
			Help: "Completed checks by platform and verdict level.",
		}, []string{"platform", "level"}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "postcheck_check_duration_seconds",
			Help:    "Wall time of one check, including image and model calls.",
			Buckets: prometheus.DefBuckets,
		}),
		ImageFindingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "postcheck_image_findings_total",
			Help: "Image heuristic findings emitted.",
		}),
		ModelCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postcheck_model_calls_total",
			Help: "External model reviews by outcome.",
		}, []string{"outcome"}),
		ReceiptWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "postcheck_receipt_write_errors_total",
			Help: "Receipt log append failures (non-fatal).",
		}),
	}
}
