package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	domainErrors "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	repository "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type BookingService interface {
	Reserve(ctx context.Context, in ReserveInput) (*models.Booking, error)
	Get(ctx context.Context, bID string) (*BookingOutput, error)
	Cancel(ctx context.Context, in CancelBookingInput) (*models.Booking, error)
	// ExpireStaleBookings expires every reserved booking whose hold ended
	// at or before now and that has no paid intent. It never fails; batch
	// errors are logged and reported as zero.
	ExpireStaleBookings(ctx context.Context, now time.Time) int
}

type bookingService struct {
	bRepo repository.BookingRepository
	pRepo repository.PaymentRepository
	emit  notifier.Emitter
	ttl   time.Duration
	l     logger.Logger
	now   func() time.Time
}

func NewBookingService(
	bRepo repository.BookingRepository,
	pRepo repository.PaymentRepository,
	emit notifier.Emitter,
	cfg config.BookingConfig,
	l logger.Logger,
) BookingService {
	if emit == nil {
		emit = notifier.Noop{}
	}
	return &bookingService{
		bRepo: bRepo,
		pRepo: pRepo,
		emit:  emit,
		ttl:   cfg.TTL(),
		l:     l,
		now:   time.Now,
	}
}

func (s *bookingService) Reserve(ctx context.Context, in ReserveInput) (*models.Booking, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	expAt := now.Add(s.ttl).UTC()
	b := &models.Booking{
		ID:          uuid.NewString(),
		EventID:     in.EventID,
		TableID:     in.TableID,
		SeatsBooked: in.Seats,
		Status:      models.BookingStatusReserved,
		CreatedAt:   models.EpochMillis(now),
		ExpiresAt:   &expAt,
		TotalAmount: in.TotalAmount,
	}

	if err := s.bRepo.Reserve(ctx, b); err != nil {
		s.l.Warnf(ctx, "service.bookingService.Reserve: %v", err)
		return nil, classify(err)
	}

	metrics.IncBookingTransition(string(models.BookingStatusReserved))

	s.emit.EmitBookingCreated(ctx, notifier.BookingCreated{
		BookingID:   b.ID,
		EventID:     b.EventID,
		TableID:     b.TableID,
		Seats:       b.SeatsBooked,
		TotalAmount: b.TotalAmount,
		ExpiresAt:   b.ExpiresAt,
		OccurredAt:  now,
	})

	return b, nil
}

func (s *bookingService) Get(ctx context.Context, bID string) (*BookingOutput, error) {
	b, err := s.bRepo.Get(ctx, bID)
	if err != nil {
		return nil, classify(err)
	}

	ps, err := s.pRepo.FindByBookingID(ctx, bID)
	if err != nil {
		s.l.Errorf(ctx, "service.bookingService.Get: %v", err)
		return nil, classify(err)
	}

	return &BookingOutput{Booking: b, Payments: ps}, nil
}

func (s *bookingService) Cancel(ctx context.Context, in CancelBookingInput) (*models.Booking, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	paid, err := s.hasPaidIntent(ctx, in.BookingID)
	if err != nil {
		s.l.Errorf(ctx, "service.bookingService.Cancel: %v", err)
		return nil, classify(err)
	}
	if paid {
		return nil, classify(domainErrors.ErrBookingAlreadyPaid)
	}

	b, restored, err := s.bRepo.Release(ctx, in.BookingID, models.BookingStatusCancelled)
	if err != nil {
		s.l.Warnf(ctx, "service.bookingService.Cancel: %v", err)
		return nil, classify(err)
	}

	metrics.IncBookingTransition(string(models.BookingStatusCancelled))
	metrics.AddSeatsRestored(restored)

	reason := in.Reason
	if reason == "" {
		reason = notifier.ReasonAdmin
	}
	s.emit.EmitBookingCancelled(ctx, notifier.BookingCancelled{
		BookingID:     b.ID,
		EventID:       b.EventID,
		TableID:       b.TableID,
		Seats:         b.SeatsBooked,
		SeatsRestored: restored,
		Reason:        reason,
		OccurredAt:    s.now(),
	})

	return b, nil
}

func (s *bookingService) ExpireStaleBookings(ctx context.Context, now time.Time) (expired int) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			metrics.IncSweepFailure("batch")
			s.l.Errorf(ctx, "service.bookingService.ExpireStaleBookings: panic: %v", r)
			expired = 0
		}
	}()

	n, err := s.expireStale(ctx, now)
	if err != nil {
		metrics.IncSweepFailure("batch")
		s.l.Errorf(ctx, "service.bookingService.ExpireStaleBookings: %v", err)
		return 0
	}

	metrics.ObserveSweep(n, time.Since(start))
	if n > 0 {
		s.l.Infof(ctx, "Expired %d stale booking(s) as of %s", n, now.UTC().Format(time.RFC3339))
	}

	return n
}

// expireStale persists each booking on its own: seats and status are
// written together, so a crash mid-sweep never leaves an expired booking
// holding seats.
func (s *bookingService) expireStale(ctx context.Context, now time.Time) (int, error) {
	bks, err := s.bRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list bookings: %w", err)
	}

	ps, err := s.pRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}

	paid := make(map[string]struct{})
	for _, p := range ps {
		if p.Status == models.PaymentStatusPaid {
			paid[p.BookingID] = struct{}{}
		}
	}

	expired := 0
	for _, b := range bks {
		if !b.IsStale(now) {
			continue
		}
		if _, ok := paid[b.ID]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			s.l.Warnf(ctx, "service.bookingService.expireStale: stopping early: %v", err)
			break
		}

		if s.expireOne(ctx, b, now) {
			expired++
		}
	}

	return expired, nil
}

func (s *bookingService) expireOne(ctx context.Context, b *models.Booking, now time.Time) bool {
	updated, restored, err := s.bRepo.Release(ctx, b.ID, models.BookingStatusExpired)
	if err != nil {
		// Someone else already moved it out of reserved.
		if errors.Is(err, domainErrors.ErrInvalidTransition) || errors.Is(err, domainErrors.ErrBookingAlreadyPaid) {
			s.l.Debugf(ctx, "service.bookingService.expireOne: booking %s: %v", b.ID, err)
			return false
		}
		metrics.IncSweepFailure("booking")
		s.l.Errorf(ctx, "service.bookingService.expireOne: booking %s: %v", b.ID, err)
		return false
	}

	metrics.IncBookingTransition(string(models.BookingStatusExpired))
	metrics.AddSeatsRestored(restored)

	s.emit.EmitBookingCancelled(ctx, notifier.BookingCancelled{
		BookingID:     updated.ID,
		EventID:       updated.EventID,
		TableID:       updated.TableID,
		Seats:         updated.SeatsBooked,
		SeatsRestored: restored,
		Reason:        notifier.ReasonExpired,
		OccurredAt:    now,
	})

	return true
}

func (s *bookingService) hasPaidIntent(ctx context.Context, bID string) (bool, error) {
	ps, err := s.pRepo.FindByBookingID(ctx, bID)
	if err != nil {
		return false, err
	}
	for _, p := range ps {
		if p.Status == models.PaymentStatusPaid {
			return true, nil
		}
	}
	return false, nil
}
