package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	repository "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

var errBoom = errors.New("boom")

// recordingEmitter captures events synchronously.
type recordingEmitter struct {
	mu               sync.Mutex
	bookingCreated   []notifier.BookingCreated
	bookingCancelled []notifier.BookingCancelled
	paymentCreated   []notifier.PaymentCreated
	paymentConfirmed []notifier.PaymentConfirmed
}

func (r *recordingEmitter) EmitBookingCreated(_ context.Context, ev notifier.BookingCreated) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookingCreated = append(r.bookingCreated, ev)
}

func (r *recordingEmitter) EmitBookingCancelled(_ context.Context, ev notifier.BookingCancelled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookingCancelled = append(r.bookingCancelled, ev)
}

func (r *recordingEmitter) EmitPaymentCreated(_ context.Context, ev notifier.PaymentCreated) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paymentCreated = append(r.paymentCreated, ev)
}

func (r *recordingEmitter) EmitPaymentConfirmed(_ context.Context, ev notifier.PaymentConfirmed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paymentConfirmed = append(r.paymentConfirmed, ev)
}

// bookingRepoStub overrides selected methods of a real repository.
type bookingRepoStub struct {
	repository.BookingRepository
	getFunc          func(ctx context.Context, bID string) (*models.Booking, error)
	listFunc         func(ctx context.Context) ([]*models.Booking, error)
	releaseFunc      func(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, int, error)
	updateStatusFunc func(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, error)
}

func (s *bookingRepoStub) Get(ctx context.Context, bID string) (*models.Booking, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, bID)
	}
	return s.BookingRepository.Get(ctx, bID)
}

func (s *bookingRepoStub) List(ctx context.Context) ([]*models.Booking, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx)
	}
	return s.BookingRepository.List(ctx)
}

func (s *bookingRepoStub) Release(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, int, error) {
	if s.releaseFunc != nil {
		return s.releaseFunc(ctx, bID, status)
	}
	return s.BookingRepository.Release(ctx, bID, status)
}

func (s *bookingRepoStub) UpdateStatus(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, error) {
	if s.updateStatusFunc != nil {
		return s.updateStatusFunc(ctx, bID, status)
	}
	return s.BookingRepository.UpdateStatus(ctx, bID, status)
}

type fixture struct {
	mr       *miniredis.Miniredis
	bookings *bookingRepoStub
	events   repository.EventRepository
	payments repository.PaymentRepository
	emitter  *recordingEmitter
	bSvc     *bookingService
	pSvc     *paymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithEmitter(t, nil)
}

// newFixtureWithEmitter wires services to emit. A nil emit uses a recorder.
func newFixtureWithEmitter(t *testing.T, emit notifier.Emitter) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := pkgRedis.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cli.Close() })

	l := logger.NewNop()
	f := &fixture{
		mr:       mr,
		bookings: &bookingRepoStub{BookingRepository: repository.NewRedisBookingRepository(cli, l)},
		events:   repository.NewRedisEventRepository(cli, l),
		payments: repository.NewRedisPaymentRepository(cli, l),
		emitter:  &recordingEmitter{},
	}
	if emit == nil {
		emit = f.emitter
	}

	f.bSvc = NewBookingService(f.bookings, f.payments, emit, config.BookingConfig{TTLMinutes: 15}, l).(*bookingService)
	f.pSvc = NewPaymentService(f.payments, f.bookings, emit, l).(*paymentService)

	return f
}

func (f *fixture) seedEvent(t *testing.T, total, available int) {
	t.Helper()
	require.NoError(t, f.events.Save(context.Background(), &models.Event{
		ID:     "ev-1",
		Title:  "Gala",
		Tables: []models.Table{{ID: "t-1", SeatsTotal: total, SeatsAvailable: available}},
	}))
}

// seedBooking stores a reserved booking with a fixed id, taking its seats.
func (f *fixture) seedBooking(t *testing.T, id string, seats int, expiresAt time.Time) {
	t.Helper()
	exp := expiresAt.UTC()
	require.NoError(t, f.bookings.Reserve(context.Background(), &models.Booking{
		ID:          id,
		EventID:     "ev-1",
		TableID:     "t-1",
		SeatsBooked: seats,
		Status:      models.BookingStatusReserved,
		CreatedAt:   exp.Add(-15 * time.Minute).UnixMilli(),
		ExpiresAt:   &exp,
	}))
}

func (f *fixture) seatsAvailable(t *testing.T) int {
	t.Helper()
	ev, err := f.events.Get(context.Background(), "ev-1")
	require.NoError(t, err)
	tbl, err := ev.Table("t-1")
	require.NoError(t, err)
	return tbl.SeatsAvailable
}

func (f *fixture) bookingStatus(t *testing.T, id string) models.BookingStatus {
	t.Helper()
	b, err := f.bookings.Get(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func assertStatus(t *testing.T, want int, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, pkgErrors.StatusOf(err), "error: %v", err)
}
