package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/store"
	"github.com/opencog/question2atomese/pkg/translate"
)

// Handler processes one delivery body.
type Handler func(ctx context.Context, body []byte) error

// TranslateHandler returns the Handler for TranslateQueue.
func TranslateHandler(client *translate.Client, storage store.TranslationStorage) Handler {
	return func(ctx context.Context, body []byte) error {
		_, err := ProcessTranslateMessage(ctx, client, storage, body)
		return err
	}
}

// Consume delivers messages of queueName to handler one at a time until ctx
// is done or the delivery channel closes.
func Consume(ctx context.Context, ch *amqp091.Channel, queueName string, handler Handler) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		queueName,
		queueName+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queueName, err)
	}

	logger.Info("[Queue] Listening for messages", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", queueName)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", queueName)
				return nil
			}
			handleDelivery(ctx, ch, msg, queueName, handler)
		}
	}
}

func handleDelivery(ctx context.Context, pub Publisher, msg amqp091.Delivery, queueName string, handler Handler) {
	start := time.Now()
	if err := handler(ctx, msg.Body); err != nil {
		logger.Error("[Queue] Error processing message", "queue", queueName, "err", err)
		HandleProcessingError(ctx, pub, msg, queueName, err)
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
	logger.Debug("[Queue] Message processed", "queue", queueName, "duration", time.Since(start))
}
