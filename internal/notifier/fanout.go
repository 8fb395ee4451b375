package notifier

import (
	"context"
	"errors"
)

type fanout []Notifier

// NewFanout delivers each event to every channel in order. A failing
// channel does not stop the others; their errors are joined.
func NewFanout(ns ...Notifier) Notifier {
	out := make(fanout, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return Noop{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (f fanout) each(fn func(Notifier) error) error {
	var errs []error
	for _, n := range f {
		if err := fn(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) BookingCreated(ctx context.Context, ev BookingCreated) error {
	return f.each(func(n Notifier) error { return n.BookingCreated(ctx, ev) })
}

func (f fanout) BookingCancelled(ctx context.Context, ev BookingCancelled) error {
	return f.each(func(n Notifier) error { return n.BookingCancelled(ctx, ev) })
}

func (f fanout) PaymentCreated(ctx context.Context, ev PaymentCreated) error {
	return f.each(func(n Notifier) error { return n.PaymentCreated(ctx, ev) })
}

func (f fanout) PaymentConfirmed(ctx context.Context, ev PaymentConfirmed) error {
	return f.each(func(n Notifier) error { return n.PaymentConfirmed(ctx, ev) })
}
