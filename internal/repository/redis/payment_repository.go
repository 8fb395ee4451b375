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

type PaymentRepository interface {
	Create(ctx context.Context, p *models.PaymentIntent) error
	FindByID(ctx context.Context, pID string) (*models.PaymentIntent, error)
	FindByBookingID(ctx context.Context, bID string) ([]*models.PaymentIntent, error)
	// UpdateStatus applies a status transition with compare-and-set
	// semantics, so two concurrent confirmations cannot both succeed. A move
	// to paid also fails with ErrBookingAlreadyPaid when another intent of
	// the same booking is already paid.
	UpdateStatus(ctx context.Context, pID string, status models.PaymentStatus, details models.PaymentStatusDetails) (*models.PaymentIntent, error)
	List(ctx context.Context) ([]*models.PaymentIntent, error)
}

type redisPaymentRepository struct {
	cli *pkgRedis.Client
	l   logger.Logger
}

func NewRedisPaymentRepository(cli *pkgRedis.Client, l logger.Logger) PaymentRepository {
	return &redisPaymentRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisPaymentRepository) Create(ctx context.Context, p *models.PaymentIntent) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payment intent: %w", err)
	}

	pipe := r.cli.GetClient().TxPipeline()
	pipe.Set(ctx, paymentKey(p.ID), data, 0)
	pipe.SAdd(ctx, paymentIndexKey, p.ID)
	pipe.SAdd(ctx, bookingPaymentsKey(p.BookingID), p.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.Create: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Payment intent created: payment_id=%s booking_id=%s amount=%.2f", p.ID, p.BookingID, p.Amount)

	return nil
}

func (r *redisPaymentRepository) FindByID(ctx context.Context, pID string) (*models.PaymentIntent, error) {
	data, err := r.cli.Get(ctx, paymentKey(pID))
	if err != nil {
		if errors.Is(err, pkgRedis.Nil) {
			return nil, domainErrors.ErrPaymentNotFound
		}
		r.l.Errorf(ctx, "redisPaymentRepository.FindByID: %v", err)
		return nil, err
	}

	var p models.PaymentIntent
	if err := json.Unmarshal(data, &p); err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.FindByID: %v", err)
		return nil, err
	}

	return &p, nil
}

func (r *redisPaymentRepository) FindByBookingID(ctx context.Context, bID string) ([]*models.PaymentIntent, error) {
	ps, err := listJSON[models.PaymentIntent](ctx, r.cli, bookingPaymentsKey(bID), paymentKey)
	if err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.FindByBookingID: %v", err)
		return nil, err
	}

	sortPayments(ps)
	return ps, nil
}

func (r *redisPaymentRepository) UpdateStatus(ctx context.Context, pID string, status models.PaymentStatus, details models.PaymentStatusDetails) (*models.PaymentIntent, error) {
	key := paymentKey(pID)
	var p models.PaymentIntent

	err := watchTx(ctx, r.cli, func(tx *redis.Tx) error {
		p = models.PaymentIntent{}
		found, err := getJSON(ctx, tx, key, &p)
		if err != nil {
			return err
		}
		if !found {
			return domainErrors.ErrPaymentNotFound
		}
		if err := p.Apply(status, details); err != nil {
			return err
		}
		if status == models.PaymentStatusPaid {
			if err := ensureNoPaidSibling(ctx, tx, &p); err != nil {
				return err
			}
		}

		data, err := json.Marshal(&p)
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
			r.l.Errorf(ctx, "redisPaymentRepository.UpdateStatus: %v", err)
		}
		return nil, err
	}

	r.l.Debugf(ctx, "Payment intent updated: payment_id=%s status=%s", pID, status)

	return &p, nil
}

// ensureNoPaidSibling watches the booking's intent index and every other
// intent in it, then rejects when one of them is paid. A sibling confirmed
// before EXEC aborts the transaction.
func ensureNoPaidSibling(ctx context.Context, tx *redis.Tx, p *models.PaymentIntent) error {
	idxKey := bookingPaymentsKey(p.BookingID)
	if err := tx.Watch(ctx, idxKey).Err(); err != nil {
		return err
	}

	ids, err := tx.SMembers(ctx, idxKey).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != p.ID {
			keys = append(keys, paymentKey(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := tx.Watch(ctx, keys...).Err(); err != nil {
		return err
	}

	for _, k := range keys {
		var sib models.PaymentIntent
		found, err := getJSON(ctx, tx, k, &sib)
		if err != nil {
			return err
		}
		if found && sib.Status == models.PaymentStatusPaid {
			return domainErrors.ErrBookingAlreadyPaid
		}
	}

	return nil
}

func (r *redisPaymentRepository) List(ctx context.Context) ([]*models.PaymentIntent, error) {
	ps, err := listJSON[models.PaymentIntent](ctx, r.cli, paymentIndexKey, paymentKey)
	if err != nil {
		r.l.Errorf(ctx, "redisPaymentRepository.List: %v", err)
		return nil, err
	}

	sortPayments(ps)
	return ps, nil
}

func sortPayments(ps []*models.PaymentIntent) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt == ps[j].CreatedAt {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt < ps[j].CreatedAt
	})
}
