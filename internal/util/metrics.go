package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_created_total",
		Help: "Total number of checkout orders created",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	WebhookCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_callbacks_total",
		Help: "Total number of payment webhook callbacks by outcome",
	}, []string{"outcome"})

	WebhookSignatureFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_failures_total",
		Help: "Total number of webhook callbacks rejected for bad signatures",
	})

	WebhookAmountMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_amount_mismatch_total",
		Help: "Total number of webhook callbacks rejected for amount mismatch",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders confirmed paid",
	})

	AnalysesConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyses_consumed_total",
		Help: "Total number of paid orders consumed for analysis",
	})

	AnalysesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analyses_rejected_total",
		Help: "Total number of rejected analysis consumption attempts",
	}, []string{"reason"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
