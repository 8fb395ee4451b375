package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/config"
	grpcDelivery "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/grpc"
	httpDelivery "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/http"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pkgKafka "github.com/vogiaan1904/ticketbottle-reservation/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := redis.Connect(ctx, cfg.Redis, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(context.Background(), redisCli, l)

	bRepo := repo.NewRedisBookingRepository(redisCli, l)
	pRepo := repo.NewRedisPaymentRepository(redisCli, l)

	// Notification channels
	var channels []notifier.Notifier

	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod := producer.NewProducer(kafkaSyncProd, l)
		defer func() {
			if err := prod.Close(); err != nil {
				l.Warnf(context.Background(), "Failed to close Kafka producer: %v", err)
			}
		}()
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

	// Initialize services
	bSvc := service.NewBookingService(bRepo, pRepo, bus, cfg.Booking, l)
	pSvc := service.NewPaymentService(pRepo, bRepo, bus, l)
	sweep := service.NewSweepProcessor(bSvc, l, cfg.Booking)

	if err := sweep.Start(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start sweep processor: %v", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Admin command consumer
	if cfg.Kafka.Enabled {
		kafkaConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}

		cons := consumer.NewConsumer(kafkaConsGr, bSvc, pSvc, l)
		if err := cons.Start(gCtx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		g.Go(func() error {
			<-gCtx.Done()
			return cons.Close()
		})
	}

	// gRPC server
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	gRpcSrv := grpc.NewServer()
	health := grpcDelivery.NewHealthReporter(sweep, l, 0)
	health.Register(gRpcSrv)

	g.Go(func() error {
		return health.Run(gCtx)
	})
	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		return gRpcSrv.Serve(lnr)
	})
	g.Go(func() error {
		<-gCtx.Done()
		gRpcSrv.GracefulStop()
		return nil
	})

	// HTTP server
	h := httpDelivery.NewHTTPHandler(bSvc, pSvc, sweep, l)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(h, cfg.Admin, l),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server stopped with error: %v", err)
	}

	l.Info(ctx, "Server shutting down...")

	if err := sweep.Stop(); err != nil {
		l.Errorf(ctx, "Failed to stop sweep processor: %v", err)
	}

	// Drain pending notifications before the producer closes.
	bus.Close()

	l.Info(ctx, "Server exited")
}
