package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	domainErrors "github.com/vogiaan1904/ticketbottle-reservation/internal/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/models"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

type EventRepository interface {
	Get(ctx context.Context, eID string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Save(ctx context.Context, ev *models.Event) error
	// SaveAll writes every event in a single pipeline.
	SaveAll(ctx context.Context, evs []*models.Event) error
}

type redisEventRepository struct {
	cli *pkgRedis.Client
	l   logger.Logger
}

func NewRedisEventRepository(cli *pkgRedis.Client, l logger.Logger) EventRepository {
	return &redisEventRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisEventRepository) Get(ctx context.Context, eID string) (*models.Event, error) {
	data, err := r.cli.Get(ctx, eventKey(eID))
	if err != nil {
		if errors.Is(err, pkgRedis.Nil) {
			return nil, domainErrors.ErrEventNotFound
		}
		r.l.Errorf(ctx, "redisEventRepository.Get: %v", err)
		return nil, err
	}

	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		r.l.Errorf(ctx, "redisEventRepository.Get: %v", err)
		return nil, err
	}

	return &ev, nil
}

func (r *redisEventRepository) List(ctx context.Context) ([]*models.Event, error) {
	evs, err := listJSON[models.Event](ctx, r.cli, eventIndexKey, eventKey)
	if err != nil {
		r.l.Errorf(ctx, "redisEventRepository.List: %v", err)
		return nil, err
	}

	sort.Slice(evs, func(i, j int) bool { return evs[i].ID < evs[j].ID })

	return evs, nil
}

func (r *redisEventRepository) Save(ctx context.Context, ev *models.Event) error {
	return r.SaveAll(ctx, []*models.Event{ev})
}

func (r *redisEventRepository) SaveAll(ctx context.Context, evs []*models.Event) error {
	if len(evs) == 0 {
		return nil
	}

	pipe := r.cli.GetClient().TxPipeline()
	for _, ev := range evs {
		data, err := json.Marshal(ev)
		if err != nil {
			r.l.Errorf(ctx, "redisEventRepository.SaveAll: %v", err)
			return err
		}
		pipe.Set(ctx, eventKey(ev.ID), data, 0)
		pipe.SAdd(ctx, eventIndexKey, ev.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisEventRepository.SaveAll: %v", err)
		return err
	}

	r.l.Debugf(ctx, "Events saved: count=%d", len(evs))

	return nil
}

