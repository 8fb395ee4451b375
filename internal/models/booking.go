package models

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
)

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "reserved"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusExpired   BookingStatus = "expired"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions lists every legal edge. Terminal states have none.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusReserved: {BookingStatusPaid, BookingStatusExpired, BookingStatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusReserved, BookingStatusPaid, BookingStatusExpired, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s.Valid() && len(bookingTransitions[s]) == 0
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, to := range bookingTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	TableID     string        `json:"table_id,omitempty"`
	SeatsBooked int           `json:"seats_booked"`
	Status      BookingStatus `json:"status"`
	CreatedAt   int64         `json:"created_at"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	TotalAmount *float64      `json:"total_amount,omitempty"`
}

// IsStale reports whether the reservation has outlived its expiry at now.
func (b *Booking) IsStale(now time.Time) bool {
	return b.Status == BookingStatusReserved && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// Transition moves the booking to next. Leaving reserved drops the expiry,
// so a paid booking never carries one.
func (b *Booking) Transition(next BookingStatus) error {
	if b.Status == BookingStatusPaid && next != BookingStatusPaid {
		return errors.ErrBookingAlreadyPaid
	}
	if !b.Status.CanTransitionTo(next) {
		return errors.ErrInvalidTransition
	}

	b.Status = next
	b.ExpiresAt = nil
	return nil
}

// HoldsSeats reports whether the booking still has seats taken from a table.
func (b *Booking) HoldsSeats() bool {
	return b.TableID != "" && b.SeatsBooked > 0
}

func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
