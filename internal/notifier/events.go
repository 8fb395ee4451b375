package notifier

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentCreated   = "payment.created"
	EventPaymentConfirmed = "payment.confirmed"
)

// Cancellation reasons carried by BookingCancelled.
const (
	ReasonExpired = "expired"
	ReasonAdmin   = "admin"
)

type BookingCreated struct {
	BookingID   string     `json:"booking_id"`
	EventID     string     `json:"event_id"`
	TableID     string     `json:"table_id,omitempty"`
	Seats       int        `json:"seats"`
	TotalAmount *float64   `json:"total_amount,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

type BookingCancelled struct {
	BookingID     string    `json:"booking_id"`
	EventID       string    `json:"event_id"`
	TableID       string    `json:"table_id,omitempty"`
	Seats         int       `json:"seats"`
	SeatsRestored int       `json:"seats_restored"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentCreated is enriched with booking context when the booking could be
// loaded; those fields stay empty otherwise.
type PaymentCreated struct {
	PaymentID  string    `json:"payment_id"`
	BookingID  string    `json:"booking_id"`
	Amount     float64   `json:"amount"`
	EventID    string    `json:"event_id,omitempty"`
	TableID    string    `json:"table_id,omitempty"`
	Seats      int       `json:"seats,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PaymentConfirmed struct {
	PaymentID      string    `json:"payment_id"`
	BookingID      string    `json:"booking_id"`
	Amount         float64   `json:"amount"`
	ConfirmedBy    string    `json:"confirmed_by"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
	BookingUpdated bool      `json:"booking_updated"`
}
