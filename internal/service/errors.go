package service

import (
	"errors"

	domainErrors "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
)

// classify maps domain sentinels onto the status-coded errors callers see.
// Anything unrecognised becomes a 500 with the cause kept for logs.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *pkgErrors.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	switch {
	case errors.Is(err, domainErrors.ErrBookingNotFound):
		return pkgErrors.NotFound("Booking not found").Wrap(err)
	case errors.Is(err, domainErrors.ErrPaymentNotFound):
		return pkgErrors.NotFound("Payment intent not found").Wrap(err)
	case errors.Is(err, domainErrors.ErrEventNotFound):
		return pkgErrors.NotFound("Event not found").Wrap(err)
	case errors.Is(err, domainErrors.ErrTableNotFound):
		return pkgErrors.NotFound("Table not found").Wrap(err)
	case errors.Is(err, domainErrors.ErrPaymentAlreadyPaid):
		return pkgErrors.Conflict("Payment intent is already paid").Wrap(err)
	case errors.Is(err, domainErrors.ErrPaymentCancelled):
		return pkgErrors.Conflict("Payment intent is cancelled").Wrap(err)
	case errors.Is(err, domainErrors.ErrBookingAlreadyPaid):
		return pkgErrors.Conflict("Booking is already paid").Wrap(err)
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		return pkgErrors.Conflict("Illegal status transition").Wrap(err)
	case errors.Is(err, domainErrors.ErrInsufficientSeats):
		return pkgErrors.Conflict("Not enough seats available").Wrap(err)
	default:
		return pkgErrors.Internal("Internal server error", err)
	}
}
