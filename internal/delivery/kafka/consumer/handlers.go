package consumer

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
)

func (c *Consumer) HandleConfirmPayment(ctx context.Context, message *sarama.ConsumerMessage) error {
	c.l.Info(ctx, "HandleConfirmPayment consumed")

	var cmd kafka.ConfirmPaymentCommand
	if err := json.Unmarshal(message.Value, &cmd); err != nil {
		return c.reject(ctx, message, err)
	}

	p, err := c.pSvc.Confirm(ctx, service.ConfirmPaymentInput{
		PaymentID:   cmd.PaymentID,
		ConfirmedBy: cmd.ConfirmedBy,
	})
	return c.report(ctx, message, response.Build(p, err, http.StatusOK))
}

func (c *Consumer) HandleCancelPayment(ctx context.Context, message *sarama.ConsumerMessage) error {
	c.l.Info(ctx, "HandleCancelPayment consumed")

	var cmd kafka.CancelPaymentCommand
	if err := json.Unmarshal(message.Value, &cmd); err != nil {
		return c.reject(ctx, message, err)
	}

	p, err := c.pSvc.Cancel(ctx, cmd.PaymentID)
	return c.report(ctx, message, response.Build(p, err, http.StatusOK))
}

func (c *Consumer) HandleCancelBooking(ctx context.Context, message *sarama.ConsumerMessage) error {
	c.l.Info(ctx, "HandleCancelBooking consumed")

	var cmd kafka.CancelBookingCommand
	if err := json.Unmarshal(message.Value, &cmd); err != nil {
		return c.reject(ctx, message, err)
	}

	b, err := c.bSvc.Cancel(ctx, service.CancelBookingInput{
		BookingID: cmd.BookingID,
		Reason:    cmd.Reason,
	})
	return c.report(ctx, message, response.Build(b, err, http.StatusOK))
}

// reject logs a command that can never succeed. It is marked as consumed.
func (c *Consumer) reject(ctx context.Context, message *sarama.ConsumerMessage, err error) error {
	c.l.Errorf(ctx, "delivery.kafka.consumer.handlers: malformed command on %s at offset %d: %v",
		message.Topic, message.Offset, err)
	return nil
}

// report logs the result envelope. Server-side failures are returned and
// logged by ConsumeClaim without marking the message. A later mark on the
// same partition still commits past it, so the command is not redelivered.
func (c *Consumer) report(ctx context.Context, message *sarama.ConsumerMessage, res response.Result) error {
	body, _ := json.Marshal(res)

	switch {
	case res.Success:
		c.l.Infof(ctx, "delivery.kafka.consumer.handlers: %s: %s", message.Topic, body)
	case res.Status < http.StatusInternalServerError:
		c.l.Warnf(ctx, "delivery.kafka.consumer.handlers: %s rejected: %s", message.Topic, body)
	default:
		return pkgErrors.Internal(res.Error, nil)
	}

	return nil
}
