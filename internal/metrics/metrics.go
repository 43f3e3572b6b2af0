package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aulabook",
			Name:      "reservation_submitted_total",
			Help:      "Count of reservation submissions by outcome.",
		},
		[]string{"outcome"},
	)

	adminDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aulabook",
			Name:      "admin_decision_total",
			Help:      "Count of admin decisions over pending reservations.",
		},
		[]string{"decision"},
	)

	cancellationRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aulabook",
			Name:      "cancellation_requested_total",
			Help:      "Count of cancellation requests raised by requesters.",
		},
	)

	cancellationResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aulabook",
			Name:      "cancellation_resolved_total",
			Help:      "Count of cancellation resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	reservationsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aulabook",
			Name:      "reservations_closed_total",
			Help:      "Count of approved reservations retired by the expiry sweep.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aulabook",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationSubmitted,
			adminDecision,
			cancellationRequested,
			cancellationResolved,
			reservationsClosed,
			httpRequests,
		)
	})
}

func IncReservationSubmitted(outcome string) {
	reservationSubmitted.WithLabelValues(outcome).Inc()
}

func IncAdminDecision(decision string) {
	adminDecision.WithLabelValues(decision).Inc()
}

func IncCancellationRequested() {
	cancellationRequested.Inc()
}

func IncCancellationResolved(outcome string) {
	cancellationResolved.WithLabelValues(outcome).Inc()
}

func AddReservationsClosed(n int64) {
	reservationsClosed.Add(float64(n))
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
