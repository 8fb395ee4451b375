package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
)

func TestExpireStaleBookings_ExpiresAndRestoresSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-1", 2, now.Add(-time.Minute))
	require.Equal(t, 2, f.seatsAvailable(t))

	expired := f.bSvc.ExpireStaleBookings(ctx, now)

	assert.Equal(t, 1, expired)
	assert.Equal(t, 4, f.seatsAvailable(t))
	assert.Equal(t, models.BookingStatusExpired, f.bookingStatus(t, "bk-1"))

	require.Len(t, f.emitter.bookingCancelled, 1)
	ev := f.emitter.bookingCancelled[0]
	assert.Equal(t, "bk-1", ev.BookingID)
	assert.Equal(t, notifier.ReasonExpired, ev.Reason)
	assert.Equal(t, 2, ev.SeatsRestored)
}

func TestExpireStaleBookings_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	f.seedEvent(t, 10, 10)
	f.seedBooking(t, "bk-1", 2, now.Add(-time.Hour))
	f.seedBooking(t, "bk-2", 3, now)
	f.seedBooking(t, "bk-3", 1, now.Add(time.Second))
	require.Equal(t, 4, f.seatsAvailable(t))

	assert.Equal(t, 2, f.bSvc.ExpireStaleBookings(ctx, now))
	assert.Equal(t, 9, f.seatsAvailable(t))

	assert.Equal(t, 0, f.bSvc.ExpireStaleBookings(ctx, now))
	assert.Equal(t, 9, f.seatsAvailable(t))
	assert.Len(t, f.emitter.bookingCancelled, 2)

	assert.Equal(t, models.BookingStatusReserved, f.bookingStatus(t, "bk-3"))
}

func TestExpireStaleBookings_ClampsToSeatsTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-1", 3, now.Add(-time.Minute))
	// inventory was corrected out of band after the reservation
	f.seedEvent(t, 4, 3)

	assert.Equal(t, 1, f.bSvc.ExpireStaleBookings(ctx, now))
	assert.Equal(t, 4, f.seatsAvailable(t))
}

func TestExpireStaleBookings_SkipsBookingsWithPaidIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-2", 2, now.Add(-time.Minute))

	p, err := f.pSvc.CreateIntent(ctx, CreateIntentInput{BookingID: "bk-2", Amount: 5000})
	require.NoError(t, err)
	// payment recorded as paid but the booking write never happened
	_, err = f.payments.UpdateStatus(ctx, p.ID, models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "admin"})
	require.NoError(t, err)

	assert.Equal(t, 0, f.bSvc.ExpireStaleBookings(ctx, now.Add(time.Hour)))
	assert.Equal(t, models.BookingStatusReserved, f.bookingStatus(t, "bk-2"))
	assert.Equal(t, 2, f.seatsAvailable(t))
}

func TestExpireStaleBookings_PendingIntentDoesNotProtect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-1", 2, now.Add(-time.Minute))
	_, err := f.pSvc.CreateIntent(ctx, CreateIntentInput{BookingID: "bk-1", Amount: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, f.bSvc.ExpireStaleBookings(ctx, now))
}

func TestExpireStaleBookings_IsolatesPerBookingFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.seedEvent(t, 10, 10)
	f.seedBooking(t, "bk-a", 2, now.Add(-2*time.Minute))
	f.seedBooking(t, "bk-b", 3, now.Add(-time.Minute))

	inner := f.bookings.BookingRepository
	f.bookings.releaseFunc = func(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, int, error) {
		if bID == "bk-a" {
			return nil, 0, errBoom
		}
		return inner.Release(ctx, bID, status)
	}

	assert.Equal(t, 1, f.bSvc.ExpireStaleBookings(ctx, now))
	assert.Equal(t, models.BookingStatusReserved, f.bookingStatus(t, "bk-a"))
	assert.Equal(t, models.BookingStatusExpired, f.bookingStatus(t, "bk-b"))
	assert.Equal(t, 8, f.seatsAvailable(t))
}

func TestExpireStaleBookings_BatchFailureReturnsZero(t *testing.T) {
	f := newFixture(t)
	f.bookings.listFunc = func(context.Context) ([]*models.Booking, error) {
		return nil, errBoom
	}

	assert.Equal(t, 0, f.bSvc.ExpireStaleBookings(context.Background(), time.Now()))
}

func TestExpireStaleBookings_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	f.bookings.listFunc = func(context.Context) ([]*models.Booking, error) {
		panic("corrupt store")
	}

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, f.bSvc.ExpireStaleBookings(context.Background(), time.Now()))
	})
}

func TestReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	f.bSvc.now = func() time.Time { return now }
	f.seedEvent(t, 4, 4)

	amount := 120.5
	b, err := f.bSvc.Reserve(ctx, ReserveInput{EventID: "ev-1", TableID: "t-1", Seats: 3, TotalAmount: &amount})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.BookingStatusReserved, b.Status)
	assert.Equal(t, now.UnixMilli(), b.CreatedAt)
	require.NotNil(t, b.ExpiresAt)
	assert.True(t, b.ExpiresAt.Equal(now.Add(15*time.Minute)))
	assert.Equal(t, 1, f.seatsAvailable(t))

	require.Len(t, f.emitter.bookingCreated, 1)
	assert.Equal(t, b.ID, f.emitter.bookingCreated[0].BookingID)
}

func TestReserve_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEvent(t, 4, 1)

	tests := []struct {
		name string
		in   ReserveInput
		want int
	}{
		{"missing event", ReserveInput{TableID: "t-1", Seats: 1}, http.StatusBadRequest},
		{"blank table", ReserveInput{EventID: "ev-1", TableID: "  ", Seats: 1}, http.StatusBadRequest},
		{"zero seats", ReserveInput{EventID: "ev-1", TableID: "t-1"}, http.StatusBadRequest},
		{"unknown event", ReserveInput{EventID: "ev-x", TableID: "t-1", Seats: 1}, http.StatusNotFound},
		{"unknown table", ReserveInput{EventID: "ev-1", TableID: "t-x", Seats: 1}, http.StatusNotFound},
		{"not enough seats", ReserveInput{EventID: "ev-1", TableID: "t-1", Seats: 2}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bSvc.Reserve(ctx, tt.in)
			assertStatus(t, tt.want, err)
		})
	}

	assert.Equal(t, 1, f.seatsAvailable(t))
	assert.Empty(t, f.emitter.bookingCreated)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-1", 2, time.Now().Add(time.Hour))

	b, err := f.bSvc.Cancel(ctx, CancelBookingInput{BookingID: "bk-1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, b.Status)
	assert.Nil(t, b.ExpiresAt)
	assert.Equal(t, 4, f.seatsAvailable(t))

	require.Len(t, f.emitter.bookingCancelled, 1)
	assert.Equal(t, notifier.ReasonAdmin, f.emitter.bookingCancelled[0].Reason)

	_, err = f.bSvc.Cancel(ctx, CancelBookingInput{BookingID: "bk-1"})
	assertStatus(t, http.StatusConflict, err)
	assert.Equal(t, 4, f.seatsAvailable(t))

	_, err = f.bSvc.Cancel(ctx, CancelBookingInput{BookingID: "missing"})
	assertStatus(t, http.StatusNotFound, err)

	_, err = f.bSvc.Cancel(ctx, CancelBookingInput{})
	assertStatus(t, http.StatusBadRequest, err)
}

func TestCancel_PaidBookingIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-1", 2, time.Now().Add(time.Hour))
	f.seedBooking(t, "bk-2", 1, time.Now().Add(time.Hour))

	p, err := f.pSvc.CreateIntent(ctx, CreateIntentInput{BookingID: "bk-1", Amount: 10})
	require.NoError(t, err)
	_, err = f.pSvc.Confirm(ctx, ConfirmPaymentInput{PaymentID: p.ID, ConfirmedBy: "admin"})
	require.NoError(t, err)

	_, err = f.bSvc.Cancel(ctx, CancelBookingInput{BookingID: "bk-1", Reason: "customer request"})
	assertStatus(t, http.StatusConflict, err)
	assert.Equal(t, models.BookingStatusPaid, f.bookingStatus(t, "bk-1"))

	// paid through an intent while the booking write was lost
	p2, err := f.pSvc.CreateIntent(ctx, CreateIntentInput{BookingID: "bk-2", Amount: 10})
	require.NoError(t, err)
	_, err = f.payments.UpdateStatus(ctx, p2.ID, models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "admin"})
	require.NoError(t, err)

	_, err = f.bSvc.Cancel(ctx, CancelBookingInput{BookingID: "bk-2"})
	assertStatus(t, http.StatusConflict, err)
	assert.Equal(t, 1, f.seatsAvailable(t))
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedEvent(t, 4, 4)
	f.seedBooking(t, "bk-1", 2, time.Now().Add(time.Hour))
	_, err := f.pSvc.CreateIntent(ctx, CreateIntentInput{BookingID: "bk-1", Amount: 10})
	require.NoError(t, err)

	out, err := f.bSvc.Get(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "bk-1", out.ID)
	assert.Len(t, out.Payments, 1)

	_, err = f.bSvc.Get(ctx, "missing")
	res := response.FromError(err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestNewBookingService_TTLFallback(t *testing.T) {
	svc := NewBookingService(nil, nil, nil, config.BookingConfig{TTLMinutes: -4}, logger.NewNop()).(*bookingService)
	assert.Equal(t, 15*time.Minute, svc.ttl)
	assert.Equal(t, notifier.Noop{}, svc.emit)
}
