package notifier

import "context"

// BookingNotifier receives booking lifecycle events.
type BookingNotifier interface {
	BookingCreated(ctx context.Context, ev BookingCreated) error
	BookingCancelled(ctx context.Context, ev BookingCancelled) error
}

// PaymentNotifier receives payment lifecycle events.
type PaymentNotifier interface {
	PaymentCreated(ctx context.Context, ev PaymentCreated) error
	PaymentConfirmed(ctx context.Context, ev PaymentConfirmed) error
}

// Notifier is a channel that serves both slots.
type Notifier interface {
	BookingNotifier
	PaymentNotifier
}

// Emitter is what the state machines see. Emit calls never fail and never
// block on the downstream channel.
type Emitter interface {
	EmitBookingCreated(ctx context.Context, ev BookingCreated)
	EmitBookingCancelled(ctx context.Context, ev BookingCancelled)
	EmitPaymentCreated(ctx context.Context, ev PaymentCreated)
	EmitPaymentConfirmed(ctx context.Context, ev PaymentConfirmed)
}

type Noop struct{}

func (Noop) BookingCreated(context.Context, BookingCreated) error     { return nil }
func (Noop) BookingCancelled(context.Context, BookingCancelled) error { return nil }
func (Noop) PaymentCreated(context.Context, PaymentCreated) error     { return nil }
func (Noop) PaymentConfirmed(context.Context, PaymentConfirmed) error { return nil }

func (Noop) EmitBookingCreated(context.Context, BookingCreated)     {}
func (Noop) EmitBookingCancelled(context.Context, BookingCancelled) {}
func (Noop) EmitPaymentCreated(context.Context, PaymentCreated)     {}
func (Noop) EmitPaymentConfirmed(context.Context, PaymentConfirmed) {}
