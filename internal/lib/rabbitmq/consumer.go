package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
)

// MaxInFlight количество сообщений, обрабатываемых одновременно одним потребителем.
const MaxInFlight = 10

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

// ConsumeMessages запускает потребителя очереди queueName до отмены ctx.
func ConsumeMessages(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler Handler) error {
	const op = "rabbitmq.ConsumeMessages"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go Dispatch(ctx, delivery, log.With(slog.String("queue", queueName)), handler)
	return nil
}

// Dispatch читает доставки и обрабатывает их не более чем в MaxInFlight горутинах.
func Dispatch(ctx context.Context, delivery <-chan amqp.Delivery, log *slog.Logger, handler Handler) {
	sem := make(chan struct{}, MaxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				settle(ctx, d.Body, d.Acknowledger, d.DeliveryTag, log, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func settle(ctx context.Context, body []byte, ack amqp.Acknowledger, tag uint64, log *slog.Logger, handler Handler) {
	if err := handler(ctx, body); err != nil {
		log.Error("failed to handle message", sl.Err(err))
		if nackErr := ack.Nack(tag, false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(tag, false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
