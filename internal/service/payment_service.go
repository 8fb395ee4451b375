package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	repository "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type PaymentService interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*models.PaymentIntent, error)
	Confirm(ctx context.Context, in ConfirmPaymentInput) (*models.PaymentIntent, error)
	Cancel(ctx context.Context, pID string) (*models.PaymentIntent, error)
	Get(ctx context.Context, pID string) (*models.PaymentIntent, error)
	ListByBooking(ctx context.Context, bID string) ([]*models.PaymentIntent, error)
}

type paymentService struct {
	pRepo repository.PaymentRepository
	bRepo repository.BookingRepository
	emit  notifier.Emitter
	l     logger.Logger
	now   func() time.Time
}

func NewPaymentService(
	pRepo repository.PaymentRepository,
	bRepo repository.BookingRepository,
	emit notifier.Emitter,
	l logger.Logger,
) PaymentService {
	if emit == nil {
		emit = notifier.Noop{}
	}
	return &paymentService{
		pRepo: pRepo,
		bRepo: bRepo,
		emit:  emit,
		l:     l,
		now:   time.Now,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, in CreateIntentInput) (*models.PaymentIntent, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.PaymentIntent{
		ID:        uuid.NewString(),
		BookingID: in.BookingID,
		Amount:    in.Amount,
		Status:    models.PaymentStatusPending,
		Method:    models.PaymentMethodManual,
		CreatedAt: models.EpochMillis(now),
	}

	if err := s.pRepo.Create(ctx, p); err != nil {
		s.l.Errorf(ctx, "service.paymentService.CreateIntent: %v", err)
		return nil, classify(err)
	}

	metrics.IncPaymentTransition(string(models.PaymentStatusPending))

	ev := notifier.PaymentCreated{
		PaymentID:  p.ID,
		BookingID:  p.BookingID,
		Amount:     p.Amount,
		OccurredAt: now,
	}
	// Booking context is enrichment only; a missing booking is not fatal.
	if b, err := s.bRepo.Get(ctx, p.BookingID); err == nil {
		ev.EventID = b.EventID
		ev.TableID = b.TableID
		ev.Seats = b.SeatsBooked
	} else {
		s.l.Debugf(ctx, "service.paymentService.CreateIntent: no booking context for %s: %v", p.BookingID, err)
	}
	s.emit.EmitPaymentCreated(ctx, ev)

	return p, nil
}

func (s *paymentService) Confirm(ctx context.Context, in ConfirmPaymentInput) (*models.PaymentIntent, error) {
	in.ConfirmedBy = strings.TrimSpace(in.ConfirmedBy)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p, err := s.pRepo.FindByID(ctx, in.PaymentID)
	if err != nil {
		return nil, classify(err)
	}

	if err := p.Status.CheckTransition(models.PaymentStatusPaid); err != nil {
		return nil, classify(err)
	}

	b, err := s.bRepo.Get(ctx, p.BookingID)
	if err != nil {
		return nil, classify(err)
	}

	if err := s.ensureBookingUnpaid(ctx, b, p.ID); err != nil {
		return nil, err
	}

	at := s.now().UTC()
	paid, err := s.pRepo.UpdateStatus(ctx, p.ID, models.PaymentStatusPaid, models.PaymentStatusDetails{
		ConfirmedBy: in.ConfirmedBy,
		ConfirmedAt: &at,
	})
	if err != nil {
		s.l.Warnf(ctx, "service.paymentService.Confirm: %v", err)
		return nil, classify(err)
	}

	metrics.IncPaymentTransition(string(models.PaymentStatusPaid))

	// Compensating update, not a transaction: the paid intent is the record
	// of truth. A failed booking write is logged and left for reconciliation;
	// the payment is never rolled back.
	bookingUpdated := true
	if _, err := s.bRepo.UpdateStatus(ctx, b.ID, models.BookingStatusPaid); err != nil {
		bookingUpdated = false
		s.l.Errorf(ctx, "service.paymentService.Confirm: payment %s paid but booking %s not updated: %v", paid.ID, b.ID, err)
	} else {
		metrics.IncBookingTransition(string(models.BookingStatusPaid))
	}

	s.emit.EmitPaymentConfirmed(ctx, notifier.PaymentConfirmed{
		PaymentID:      paid.ID,
		BookingID:      paid.BookingID,
		Amount:         paid.Amount,
		ConfirmedBy:    paid.ConfirmedBy,
		ConfirmedAt:    at,
		BookingUpdated: bookingUpdated,
	})

	return paid, nil
}

// ensureBookingUnpaid rejects a confirmation when the booking is already
// paid, either by its own status or through another intent.
func (s *paymentService) ensureBookingUnpaid(ctx context.Context, b *models.Booking, pID string) error {
	if b.Status == models.BookingStatusPaid {
		return classify(domainErrors.ErrBookingAlreadyPaid)
	}

	others, err := s.pRepo.FindByBookingID(ctx, b.ID)
	if err != nil {
		s.l.Errorf(ctx, "service.paymentService.ensureBookingUnpaid: %v", err)
		return classify(err)
	}
	for _, o := range others {
		if o.ID != pID && o.Status == models.PaymentStatusPaid {
			return classify(domainErrors.ErrBookingAlreadyPaid)
		}
	}

	return nil
}

func (s *paymentService) Cancel(ctx context.Context, pID string) (*models.PaymentIntent, error) {
	if strings.TrimSpace(pID) == "" {
		return nil, pkgErrors.InvalidInput("payment_id is required")
	}

	p, err := s.pRepo.UpdateStatus(ctx, pID, models.PaymentStatusCancelled, models.PaymentStatusDetails{})
	if err != nil {
		if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
			s.l.Warnf(ctx, "service.paymentService.Cancel: %v", err)
		}
		return nil, classify(err)
	}

	metrics.IncPaymentTransition(string(models.PaymentStatusCancelled))

	return p, nil
}

func (s *paymentService) Get(ctx context.Context, pID string) (*models.PaymentIntent, error) {
	p, err := s.pRepo.FindByID(ctx, pID)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (s *paymentService) ListByBooking(ctx context.Context, bID string) ([]*models.PaymentIntent, error) {
	if strings.TrimSpace(bID) == "" {
		return nil, pkgErrors.InvalidInput("booking_id is required")
	}

	ps, err := s.pRepo.FindByBookingID(ctx, bID)
	if err != nil {
		s.l.Errorf(ctx, "service.paymentService.ListByBooking: %v", err)
		return nil, classify(err)
	}
	return ps, nil
}
