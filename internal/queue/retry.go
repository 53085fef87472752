package queue

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/logger"
)

const (
	retriesHeader = "x-retries"
	MaxRetries    = 10
)

func retryCount(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError routes a failed message. Permanent failures and
// messages retried MaxRetries times go to the dead-letter queue, all others
// to the retry queue with an incremented x-retries header. The original
// delivery is acked once republished and nacked with requeue otherwise.
func HandleProcessingError(ctx context.Context, pub Publisher, msg amqp091.Delivery, queueName string, procErr error) {
	retries := retryCount(msg.Headers)

	target := RetryQueue(queueName)
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if util.IsPermanent(procErr) || retries >= MaxRetries {
		target = DeadLetterQueue(queueName)
		if procErr != nil {
			headers["x-error"] = procErr.Error()
		}
		logger.Info("[Queue] Sending message to DLQ", "dlq", target, "retries", retries)
	} else {
		headers[retriesHeader] = int32(retries + 1)
	}

	err := pub.PublishWithContext(ctx, "", target, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp091.Persistent,
		Body:         msg.Body,
		Headers:      headers,
	})
	if err != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
