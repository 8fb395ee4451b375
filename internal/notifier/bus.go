package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

const (
	DefaultBufferSize      = 256
	DefaultDispatchTimeout = 10 * time.Second
)

type dispatch struct {
	ctx   context.Context
	event string
	fn    func(ctx context.Context) error
}

// Bus hands events to the registered notifiers on a single worker
// goroutine, so they are delivered in emit order. Emit never blocks: when
// the buffer is full or the bus is closed the event is dropped and logged.
type Bus struct {
	booking BookingNotifier
	payment PaymentNotifier
	l       logger.Logger

	bufferSize int
	timeout    time.Duration

	queue  chan dispatch
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Bus)

func WithBookingNotifier(n BookingNotifier) Option {
	return func(b *Bus) {
		if n != nil {
			b.booking = n
		}
	}
}

func WithPaymentNotifier(n PaymentNotifier) Option {
	return func(b *Bus) {
		if n != nil {
			b.payment = n
		}
	}
}

// WithNotifier registers n in both slots.
func WithNotifier(n Notifier) Option {
	return func(b *Bus) {
		if n != nil {
			b.booking = n
			b.payment = n
		}
	}
}

func WithBufferSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

func WithDispatchTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBus starts the dispatch worker. Both slots default to Noop.
func NewBus(l logger.Logger, opts ...Option) *Bus {
	b := &Bus{
		booking:    Noop{},
		payment:    Noop{},
		l:          l,
		bufferSize: DefaultBufferSize,
		timeout:    DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.queue = make(chan dispatch, b.bufferSize)
	b.wg.Add(1)
	go b.run()

	return b
}

func (b *Bus) EmitBookingCreated(ctx context.Context, ev BookingCreated) {
	n := b.booking
	b.enqueue(ctx, EventBookingCreated, func(ctx context.Context) error {
		return n.BookingCreated(ctx, ev)
	})
}

func (b *Bus) EmitBookingCancelled(ctx context.Context, ev BookingCancelled) {
	n := b.booking
	b.enqueue(ctx, EventBookingCancelled, func(ctx context.Context) error {
		return n.BookingCancelled(ctx, ev)
	})
}

func (b *Bus) EmitPaymentCreated(ctx context.Context, ev PaymentCreated) {
	n := b.payment
	b.enqueue(ctx, EventPaymentCreated, func(ctx context.Context) error {
		return n.PaymentCreated(ctx, ev)
	})
}

func (b *Bus) EmitPaymentConfirmed(ctx context.Context, ev PaymentConfirmed) {
	n := b.payment
	b.enqueue(ctx, EventPaymentConfirmed, func(ctx context.Context) error {
		return n.PaymentConfirmed(ctx, ev)
	})
}

// Close stops accepting events and waits for queued ones to be delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) enqueue(ctx context.Context, event string, fn func(context.Context) error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.IncNotification(event, metrics.ResultDropped)
		b.l.Warnf(ctx, "notifier.Bus.enqueue: bus closed, dropping %s", event)
		return
	}

	// Detach from the caller so a finished request does not cancel delivery.
	d := dispatch{ctx: context.WithoutCancel(ctx), event: event, fn: fn}
	select {
	case b.queue <- d:
		metrics.SetNotificationQueueDepth(len(b.queue))
	default:
		metrics.IncNotification(event, metrics.ResultDropped)
		b.l.Warnf(ctx, "notifier.Bus.enqueue: buffer full (%d), dropping %s", b.bufferSize, event)
	}
}

func (b *Bus) run() {
	defer b.wg.Done()

	for d := range b.queue {
		metrics.SetNotificationQueueDepth(len(b.queue))
		b.deliver(d)
	}
}

func (b *Bus) deliver(d dispatch) {
	ctx, cancel := context.WithTimeout(d.ctx, b.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.IncNotification(d.event, metrics.ResultPanicked)
			b.l.Errorf(ctx, "notifier.Bus.deliver: %s panicked: %v", d.event, r)
		}
	}()

	if err := d.fn(ctx); err != nil {
		metrics.IncNotification(d.event, metrics.ResultFailed)
		b.l.Warnf(ctx, "notifier.Bus.deliver: %s: %v", d.event, err)
		return
	}

	metrics.IncNotification(d.event, metrics.ResultDelivered)
}
