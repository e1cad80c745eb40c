// AngelaMos | 2026
// metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AttachmentOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_operations_total",
			Help: "Attachment store and release calls by outcome.",
		},
		[]string{"op", "outcome"},
	)

	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_deliveries_total",
			Help: "Outbound mail attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	PaymentConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expense_version_conflicts_total",
			Help: "Expense writes rejected because a concurrent write won.",
		},
	)
)

func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
