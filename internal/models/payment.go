package models

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

const PaymentMethodManual = "manual"

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusCancelled},
}

func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// CheckTransition returns nil when s may move to next and the sentinel that
// explains the rejection otherwise.
func (s PaymentStatus) CheckTransition(next PaymentStatus) error {
	for _, to := range paymentTransitions[s] {
		if to == next {
			return nil
		}
	}

	switch s {
	case PaymentStatusPaid:
		return errors.ErrPaymentAlreadyPaid
	case PaymentStatusCancelled:
		return errors.ErrPaymentCancelled
	default:
		return errors.ErrInvalidTransition
	}
}

type PaymentIntent struct {
	ID          string        `json:"id"`
	BookingID   string        `json:"booking_id"`
	Amount      float64       `json:"amount"`
	Status      PaymentStatus `json:"status"`
	Method      string        `json:"method"`
	ConfirmedBy string        `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	CreatedAt   int64         `json:"created_at"`
}

// PaymentStatusDetails carries the audit fields written with a status change.
type PaymentStatusDetails struct {
	ConfirmedBy string
	ConfirmedAt *time.Time
}

// Apply transitions p to status and records details.
func (p *PaymentIntent) Apply(status PaymentStatus, details PaymentStatusDetails) error {
	if err := p.Status.CheckTransition(status); err != nil {
		return err
	}

	p.Status = status
	if details.ConfirmedBy != "" {
		p.ConfirmedBy = details.ConfirmedBy
	}
	if details.ConfirmedAt != nil {
		at := details.ConfirmedAt.UTC()
		p.ConfirmedAt = &at
	}
	return nil
}
