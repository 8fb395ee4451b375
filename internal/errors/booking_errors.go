package errors

import "errors"

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingAlreadyPaid = errors.New("booking already paid")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrEventNotFound      = errors.New("event not found")
	ErrTableNotFound      = errors.New("table not found")
	ErrInsufficientSeats  = errors.New("not enough seats available")
)
