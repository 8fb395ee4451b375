package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

type repos struct {
	mr       *miniredis.Miniredis
	bookings BookingRepository
	events   EventRepository
	payments PaymentRepository
}

func setupMiniRedis(t *testing.T) repos {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := pkgRedis.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cli.Close() })

	l := logger.NewNop()
	return repos{
		mr:       mr,
		bookings: NewRedisBookingRepository(cli, l),
		events:   NewRedisEventRepository(cli, l),
		payments: NewRedisPaymentRepository(cli, l),
	}
}

func seedEvent(t *testing.T, r repos, available int) {
	t.Helper()
	err := r.events.Save(context.Background(), &models.Event{
		ID:    "ev-1",
		Title: "Gala",
		Tables: []models.Table{
			{ID: "t-1", SeatsTotal: 4, SeatsAvailable: available},
			{ID: "t-2", SeatsTotal: 6, SeatsAvailable: 6},
		},
	})
	require.NoError(t, err)
}

func reservedBooking(id string, seats int, expiresAt time.Time) *models.Booking {
	return &models.Booking{
		ID:          id,
		EventID:     "ev-1",
		TableID:     "t-1",
		SeatsBooked: seats,
		Status:      models.BookingStatusReserved,
		CreatedAt:   expiresAt.Add(-15 * time.Minute).UnixMilli(),
		ExpiresAt:   &expiresAt,
	}
}

func tableSeats(t *testing.T, r repos, tableID string) int {
	t.Helper()
	ev, err := r.events.Get(context.Background(), "ev-1")
	require.NoError(t, err)
	tbl, err := ev.Table(tableID)
	require.NoError(t, err)
	return tbl.SeatsAvailable
}

func TestBookingRepository_ReserveTakesSeats(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)

	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-1", 3, time.Now().Add(time.Minute))))
	assert.Equal(t, 1, tableSeats(t, r, "t-1"))

	err := r.bookings.Reserve(ctx, reservedBooking("bk-2", 2, time.Now().Add(time.Minute)))
	assert.ErrorIs(t, err, domainErrors.ErrInsufficientSeats)
	assert.Equal(t, 1, tableSeats(t, r, "t-1"))

	_, err = r.bookings.Get(ctx, "bk-2")
	assert.ErrorIs(t, err, domainErrors.ErrBookingNotFound)
}

func TestBookingRepository_ReserveUnknownTable(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)

	b := reservedBooking("bk-1", 1, time.Now())
	b.TableID = "missing"
	assert.ErrorIs(t, r.bookings.Reserve(ctx, b), domainErrors.ErrTableNotFound)

	b.EventID = "ev-missing"
	assert.ErrorIs(t, r.bookings.Reserve(ctx, b), domainErrors.ErrEventNotFound)
}

func TestBookingRepository_ListSortedByCreation(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)

	now := time.Now()
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-b", 1, now.Add(time.Minute))))
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-a", 1, now)))

	bks, err := r.bookings.List(ctx)
	require.NoError(t, err)
	require.Len(t, bks, 2)
	assert.Equal(t, "bk-a", bks[0].ID)
	assert.Equal(t, "bk-b", bks[1].ID)
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-1", 2, time.Now())))

	b, err := r.bookings.UpdateStatus(ctx, "bk-1", models.BookingStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, b.Status)
	assert.Nil(t, b.ExpiresAt)

	_, err = r.bookings.UpdateStatus(ctx, "bk-1", models.BookingStatusExpired)
	assert.ErrorIs(t, err, domainErrors.ErrBookingAlreadyPaid)

	_, err = r.bookings.UpdateStatus(ctx, "nope", models.BookingStatusPaid)
	assert.ErrorIs(t, err, domainErrors.ErrBookingNotFound)

	// seat counts are untouched by status updates
	assert.Equal(t, 2, tableSeats(t, r, "t-1"))
}

func TestBookingRepository_ReleaseRestoresOnce(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-1", 2, time.Now())))
	require.Equal(t, 2, tableSeats(t, r, "t-1"))

	b, restored, err := r.bookings.Release(ctx, "bk-1", models.BookingStatusExpired)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusExpired, b.Status)
	assert.Equal(t, 2, restored)
	assert.Equal(t, 4, tableSeats(t, r, "t-1"))

	_, _, err = r.bookings.Release(ctx, "bk-1", models.BookingStatusExpired)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	assert.Equal(t, 4, tableSeats(t, r, "t-1"))
}

func TestBookingRepository_ReleaseClampsToTotal(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-1", 2, time.Now())))

	// inventory drifted back to full capacity out of band
	seedEvent(t, r, 3)

	_, restored, err := r.bookings.Release(ctx, "bk-1", models.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 4, tableSeats(t, r, "t-1"))
}

func TestBookingRepository_ReleaseWithoutTable(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-1", 2, time.Now())))
	r.mr.Del(eventKey("ev-1"))

	b, restored, err := r.bookings.Release(ctx, "bk-1", models.BookingStatusExpired)
	require.NoError(t, err)
	assert.Equal(t, 0, restored)
	assert.Equal(t, models.BookingStatusExpired, b.Status)
}

func TestBookingRepository_ConcurrentReleaseRestoresOnce(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	seedEvent(t, r, 4)
	require.NoError(t, r.bookings.Reserve(ctx, reservedBooking("bk-1", 2, time.Now())))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := r.bookings.Release(ctx, "bk-1", models.BookingStatusExpired); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 4, tableSeats(t, r, "t-1"))
}

func TestEventRepository_SaveAllAndList(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()

	err := r.events.SaveAll(ctx, []*models.Event{
		{ID: "ev-2", Tables: []models.Table{{ID: "a", SeatsTotal: 2, SeatsAvailable: 2}}},
		{ID: "ev-1", Tables: []models.Table{{ID: "b", SeatsTotal: 8, SeatsAvailable: 5}}},
	})
	require.NoError(t, err)

	evs, err := r.events.List(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "ev-1", evs[0].ID)
	assert.Equal(t, 5, evs[0].Tables[0].SeatsAvailable)

	_, err = r.events.Get(ctx, "ev-3")
	assert.ErrorIs(t, err, domainErrors.ErrEventNotFound)
}

func TestPaymentRepository_Lifecycle(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()

	p := &models.PaymentIntent{
		ID:        "pi-1",
		BookingID: "bk-2",
		Amount:    5000,
		Status:    models.PaymentStatusPending,
		Method:    models.PaymentMethodManual,
		CreatedAt: time.Now().UnixMilli(),
	}
	require.NoError(t, r.payments.Create(ctx, p))
	require.NoError(t, r.payments.Create(ctx, &models.PaymentIntent{
		ID: "pi-2", BookingID: "bk-3", Amount: 10, Status: models.PaymentStatusPending, Method: models.PaymentMethodManual,
	}))

	got, err := r.payments.FindByID(ctx, "pi-1")
	require.NoError(t, err)
	assert.Equal(t, p.Amount, got.Amount)

	byBooking, err := r.payments.FindByBookingID(ctx, "bk-2")
	require.NoError(t, err)
	require.Len(t, byBooking, 1)
	assert.Equal(t, "pi-1", byBooking[0].ID)

	none, err := r.payments.FindByBookingID(ctx, "bk-none")
	require.NoError(t, err)
	assert.Empty(t, none)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	paid, err := r.payments.UpdateStatus(ctx, "pi-1", models.PaymentStatusPaid, models.PaymentStatusDetails{
		ConfirmedBy: "admin",
		ConfirmedAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.Status)
	assert.Equal(t, "admin", paid.ConfirmedBy)
	require.NotNil(t, paid.ConfirmedAt)
	assert.True(t, at.Equal(*paid.ConfirmedAt))

	_, err = r.payments.UpdateStatus(ctx, "pi-1", models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "other"})
	assert.ErrorIs(t, err, domainErrors.ErrPaymentAlreadyPaid)

	stored, err := r.payments.FindByID(ctx, "pi-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", stored.ConfirmedBy)

	all, err := r.payments.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = r.payments.FindByID(ctx, "pi-x")
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}

func TestPaymentRepository_ConcurrentConfirmSucceedsOnce(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	require.NoError(t, r.payments.Create(ctx, &models.PaymentIntent{
		ID: "pi-1", BookingID: "bk-1", Amount: 1, Status: models.PaymentStatusPending, Method: models.PaymentMethodManual,
	}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.payments.UpdateStatus(ctx, "pi-1", models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "admin"})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}

func TestPaymentRepository_ConcurrentConfirmOfSiblingsSucceedsOnce(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	for _, id := range []string{"pi-a", "pi-b"} {
		require.NoError(t, r.payments.Create(ctx, &models.PaymentIntent{
			ID: id, BookingID: "bk-2", Amount: 5000, Status: models.PaymentStatusPending, Method: models.PaymentMethodManual,
		}))
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, id := range []string{"pi-a", "pi-b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.payments.UpdateStatus(ctx, id, models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "admin"})
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.ErrorIs(t, err, domainErrors.ErrBookingAlreadyPaid)
		}
	}
	assert.Equal(t, 1, failed)

	ps, err := r.payments.FindByBookingID(ctx, "bk-2")
	require.NoError(t, err)
	paid := 0
	for _, p := range ps {
		if p.Status == models.PaymentStatusPaid {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
}

func TestPaymentRepository_ConfirmRejectedWhenSiblingPaid(t *testing.T) {
	r := setupMiniRedis(t)
	ctx := context.Background()
	for _, id := range []string{"pi-a", "pi-b"} {
		require.NoError(t, r.payments.Create(ctx, &models.PaymentIntent{
			ID: id, BookingID: "bk-2", Amount: 5000, Status: models.PaymentStatusPending, Method: models.PaymentMethodManual,
		}))
	}

	_, err := r.payments.UpdateStatus(ctx, "pi-a", models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "admin"})
	require.NoError(t, err)

	_, err = r.payments.UpdateStatus(ctx, "pi-b", models.PaymentStatusPaid, models.PaymentStatusDetails{ConfirmedBy: "admin"})
	assert.ErrorIs(t, err, domainErrors.ErrBookingAlreadyPaid)

	_, err = r.payments.UpdateStatus(ctx, "pi-b", models.PaymentStatusCancelled, models.PaymentStatusDetails{})
	assert.NoError(t, err)
}
