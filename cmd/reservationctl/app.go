package main

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pkgKafka "github.com/vogiaan1904/ticketbottle-reservation/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// app holds the services a command runs against. close flushes pending
// notifications and releases connections.
type app struct {
	bSvc  service.BookingService
	pSvc  service.PaymentService
	close func()
}

type appLoader func(ctx context.Context) (*app, error)

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := redis.Connect(ctx, cfg.Redis, l)
	if err != nil {
		return nil, err
	}

	var (
		channels []notifier.Notifier
		prod     producer.Producer
	)
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		}, l)
		if err != nil {
			redis.Disconnect(ctx, redisCli, l)
			return nil, err
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
		channels = append(channels, prod)
	}
	if cfg.Telegram.Enabled {
		channels = append(channels, notifier.NewTelegram(cfg.Telegram, nil))
	}

	bus := notifier.NewBus(l,
		notifier.WithNotifier(notifier.NewFanout(channels...)),
		notifier.WithBufferSize(cfg.Notifier.BufferSize),
		notifier.WithDispatchTimeout(cfg.Notifier.DispatchTimeout),
	)

	bRepo := repo.NewRedisBookingRepository(redisCli, l)
	pRepo := repo.NewRedisPaymentRepository(redisCli, l)

	return &app{
		bSvc: service.NewBookingService(bRepo, pRepo, bus, cfg.Booking, l),
		pSvc: service.NewPaymentService(pRepo, bRepo, bus, l),
		close: func() {
			bus.Close()
			if prod != nil {
				if err := prod.Close(); err != nil {
					l.Warnf(context.Background(), "Failed to close Kafka producer: %v", err)
				}
			}
			redis.Disconnect(context.Background(), redisCli, l)
		},
	}, nil
}
