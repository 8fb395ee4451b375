package kafka

import "time"

// Commands consumed BY Reservation Service (from the admin tooling)

type ConfirmPaymentCommand struct {
	PaymentID   string    `json:"payment_id"`
	ConfirmedBy string    `json:"confirmed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

type CancelPaymentCommand struct {
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

type CancelBookingCommand struct {
	BookingID string    `json:"booking_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
