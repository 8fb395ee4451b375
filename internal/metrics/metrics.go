package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_booking_transitions_total",
		Help: "Booking status transitions by target status",
	}, []string{"status"})

	PaymentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_payment_transitions_total",
		Help: "Payment intent status transitions by target status",
	}, []string{"status"})

	SeatsRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_seats_restored_total",
		Help: "Seats returned to table inventory by expiration or cancellation",
	})
)

// IncBookingTransition records a booking reaching status.
func IncBookingTransition(status string) {
	BookingTransitionsTotal.WithLabelValues(status).Inc()
}

func IncPaymentTransition(status string) {
	PaymentTransitionsTotal.WithLabelValues(status).Inc()
}

func AddSeatsRestored(n int) {
	if n <= 0 {
		return
	}
	SeatsRestoredTotal.Add(float64(n))
}
