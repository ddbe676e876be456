package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment operations by outcome",
		},
		[]string{"operation", "outcome"}, // credit_purchase|contact_fee x started|succeeded|failed|...
	)

	DuplicateHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_duplicate_hits_total",
			Help: "Idempotency key reuses detected",
		},
		[]string{"operation"},
	)

	ReaperDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "idempotency_reaped_total",
			Help: "Expired idempotency records deleted",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(PaymentsTotal)
	prometheus.MustRegister(DuplicateHits)
	prometheus.MustRegister(ReaperDeleted)
	prometheus.MustRegister(WorkerQueueDepth)
}
