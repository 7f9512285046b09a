package metrics

import (
	"errors"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingOperations counts ledger operations by outcome.
	BookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "operations_total",
			Help:      "The total number of booking ledger operations",
		},
		[]string{"operation", "outcome"},
	)

	BookingOperationDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "booking",
			Name:       "operation_duration_seconds",
			Help:       "Time spent in booking ledger operations",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"operation"},
	)

	// RefundedAmount is the sum of refunds issued by user cancellations.
	RefundedAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "refunded_amount_total",
			Help:      "The total amount refunded on user cancellations",
		},
	)

	PaymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payments",
			Name:      "recorded_total",
			Help:      "The total number of payment ledger rows appended",
		},
		[]string{"method"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Name:      "publish_failed_total",
			Help:      "The total number of events that could not be published",
		},
		[]string{"topic"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "The total number of handled HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome buckets an operation error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStorageFailure):
		return "storage_failure"
	case domain.IsClientError(err):
		return "rejected"
	default:
		return "error"
	}
}
