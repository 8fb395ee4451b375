package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	domainErrors "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

type BookingRepository interface {
	// Reserve persists a new booking and takes its seats from the table in
	// one transaction.
	Reserve(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, bID string) (*models.Booking, error)
	List(ctx context.Context) ([]*models.Booking, error)
	// UpdateStatus applies a status transition with compare-and-set
	// semantics. It never touches seat counts.
	UpdateStatus(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, error)
	// Release moves a reserved booking to expired or cancelled and gives
	// its seats back to the table in the same transaction. It returns the
	// updated booking and the number of seats actually restored.
	Release(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, int, error)
}

type redisBookingRepository struct {
	cli *pkgRedis.Client
	l   logger.Logger
}

func NewRedisBookingRepository(cli *pkgRedis.Client, l logger.Logger) BookingRepository {
	return &redisBookingRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisBookingRepository) Reserve(ctx context.Context, b *models.Booking) error {
	bKey := bookingKey(b.ID)
	keys := []string{bKey}
	if b.HoldsSeats() {
		keys = append(keys, eventKey(b.EventID))
	}

	err := watchTx(ctx, r.cli, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, bKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("booking %s already exists", b.ID)
		}

		var ev models.Event
		if b.HoldsSeats() {
			found, err := getJSON(ctx, tx, eventKey(b.EventID), &ev)
			if err != nil {
				return err
			}
			if !found {
				return domainErrors.ErrEventNotFound
			}
			t, err := ev.Table(b.TableID)
			if err != nil {
				return err
			}
			if err := t.Take(b.SeatsBooked); err != nil {
				return err
			}
		}

		bData, err := json.Marshal(b)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, bKey, bData, 0)
			pipe.SAdd(ctx, bookingIndexKey, b.ID)
			if b.HoldsSeats() {
				evData, err := json.Marshal(&ev)
				if err != nil {
					return err
				}
				pipe.Set(ctx, eventKey(ev.ID), evData, 0)
			}
			return nil
		})
		return err
	}, keys...)
	if err != nil {
		if !isDomainError(err) {
			r.l.Errorf(ctx, "redisBookingRepository.Reserve: %v", err)
		}
		return err
	}

	r.l.Debugf(ctx, "Booking reserved: booking_id=%s event_id=%s table_id=%s seats=%d",
		b.ID, b.EventID, b.TableID, b.SeatsBooked)

	return nil
}

func (r *redisBookingRepository) Get(ctx context.Context, bID string) (*models.Booking, error) {
	data, err := r.cli.Get(ctx, bookingKey(bID))
	if err != nil {
		if errors.Is(err, pkgRedis.Nil) {
			return nil, domainErrors.ErrBookingNotFound
		}
		r.l.Errorf(ctx, "redisBookingRepository.Get: %v", err)
		return nil, err
	}

	var b models.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.Get: %v", err)
		return nil, err
	}

	return &b, nil
}

func (r *redisBookingRepository) List(ctx context.Context) ([]*models.Booking, error) {
	bks, err := listJSON[models.Booking](ctx, r.cli, bookingIndexKey, bookingKey)
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.List: %v", err)
		return nil, err
	}

	sort.Slice(bks, func(i, j int) bool {
		if bks[i].CreatedAt == bks[j].CreatedAt {
			return bks[i].ID < bks[j].ID
		}
		return bks[i].CreatedAt < bks[j].CreatedAt
	})

	return bks, nil
}

func (r *redisBookingRepository) UpdateStatus(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, error) {
	key := bookingKey(bID)
	var b models.Booking

	err := watchTx(ctx, r.cli, func(tx *redis.Tx) error {
		b = models.Booking{}
		found, err := getJSON(ctx, tx, key, &b)
		if err != nil {
			return err
		}
		if !found {
			return domainErrors.ErrBookingNotFound
		}
		if err := b.Transition(status); err != nil {
			return err
		}

		data, err := json.Marshal(&b)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if !isDomainError(err) {
			r.l.Errorf(ctx, "redisBookingRepository.UpdateStatus: %v", err)
		}
		return nil, err
	}

	return &b, nil
}

func (r *redisBookingRepository) Release(ctx context.Context, bID string, status models.BookingStatus) (*models.Booking, int, error) {
	bKey := bookingKey(bID)
	var (
		b        models.Booking
		restored int
	)

	err := watchTx(ctx, r.cli, func(tx *redis.Tx) error {
		b, restored = models.Booking{}, 0

		found, err := getJSON(ctx, tx, bKey, &b)
		if err != nil {
			return err
		}
		if !found {
			return domainErrors.ErrBookingNotFound
		}
		if err := b.Transition(status); err != nil {
			return err
		}

		var (
			ev     models.Event
			evData []byte
		)
		if b.HoldsSeats() {
			eKey := eventKey(b.EventID)
			if err := tx.Watch(ctx, eKey).Err(); err != nil {
				return err
			}
			found, err := getJSON(ctx, tx, eKey, &ev)
			if err != nil {
				return err
			}
			// A vanished event or table leaves nothing to restore; the
			// booking still leaves reserved.
			if t, tErr := ev.Table(b.TableID); found && tErr == nil {
				restored = t.Release(b.SeatsBooked)
				if evData, err = json.Marshal(&ev); err != nil {
					return err
				}
			} else {
				r.l.Warnf(ctx, "redisBookingRepository.Release: no table %s in event %s for booking %s", b.TableID, b.EventID, bID)
			}
		}

		bData, err := json.Marshal(&b)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, bKey, bData, 0)
			if evData != nil {
				pipe.Set(ctx, eventKey(ev.ID), evData, 0)
			}
			return nil
		})
		return err
	}, bKey)
	if err != nil {
		if !isDomainError(err) {
			r.l.Errorf(ctx, "redisBookingRepository.Release: %v", err)
		}
		return nil, 0, err
	}

	r.l.Debugf(ctx, "Booking released: booking_id=%s status=%s seats_restored=%d", bID, status, restored)

	return &b, restored, nil
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domainErrors.ErrBookingNotFound,
		domainErrors.ErrBookingAlreadyPaid,
		domainErrors.ErrInvalidTransition,
		domainErrors.ErrEventNotFound,
		domainErrors.ErrTableNotFound,
		domainErrors.ErrInsufficientSeats,
		domainErrors.ErrPaymentNotFound,
		domainErrors.ErrPaymentAlreadyPaid,
		domainErrors.ErrPaymentCancelled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
