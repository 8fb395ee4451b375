package errors

import "errors"

var (
	ErrPaymentNotFound    = errors.New("payment intent not found")
	ErrPaymentAlreadyPaid = errors.New("payment intent already paid")
	ErrPaymentCancelled   = errors.New("payment intent cancelled")
)
