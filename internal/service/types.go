package service

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
)

type ReserveInput struct {
	EventID     string   `json:"event_id" validate:"notblank"`
	TableID     string   `json:"table_id" validate:"notblank"`
	Seats       int      `json:"seats" validate:"gte=1"`
	TotalAmount *float64 `json:"total_amount,omitempty" validate:"omitempty,gte=0"`
}

type CancelBookingInput struct {
	BookingID string `json:"booking_id" validate:"notblank"`
	Reason    string `json:"reason"`
}

type CreateIntentInput struct {
	BookingID string  `json:"booking_id" validate:"notblank"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

type ConfirmPaymentInput struct {
	PaymentID   string `json:"payment_id" validate:"notblank"`
	ConfirmedBy string `json:"confirmed_by" validate:"notblank"`
}

type SweepOutput struct {
	Expired int       `json:"expired"`
	At      time.Time `json:"at"`
}

// BookingOutput pairs a booking with the payment intents that reference it.
type BookingOutput struct {
	*models.Booking
	Payments []*models.PaymentIntent `json:"payments,omitempty"`
}
