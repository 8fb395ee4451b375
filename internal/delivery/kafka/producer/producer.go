package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/notifier"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/util"
)

// Producer publishes lifecycle events to Kafka. It serves both notifier slots.
type Producer interface {
	notifier.Notifier
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
	now  func() time.Time
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
		now:  time.Now,
	}
}

func (p *implProducer) BookingCreated(ctx context.Context, ev notifier.BookingCreated) error {
	return p.publish(ctx, kafka.TopicBookingCreated, ev.BookingID, ev)
}

func (p *implProducer) BookingCancelled(ctx context.Context, ev notifier.BookingCancelled) error {
	return p.publish(ctx, kafka.TopicBookingCancelled, ev.BookingID, ev)
}

func (p *implProducer) PaymentCreated(ctx context.Context, ev notifier.PaymentCreated) error {
	return p.publish(ctx, kafka.TopicPaymentCreated, ev.BookingID, ev)
}

func (p *implProducer) PaymentConfirmed(ctx context.Context, ev notifier.PaymentConfirmed) error {
	return p.publish(ctx, kafka.TopicPaymentConfirmed, ev.BookingID, ev)
}

func (p *implProducer) publish(ctx context.Context, topic, key string, ev any) error {
	val, err := json.Marshal(ev)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key), // Partition by booking_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte(kafka.HeaderTimestamp),
				Value: []byte(util.FormatInstant(p.now())),
			},
		},
	}

	if _, _, err := p.prod.SendMessage(msg); err != nil {
		p.l.Warnf(ctx, "delivery.kafka.producer.publish: topic=%s key=%s: %v", topic, key, err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
