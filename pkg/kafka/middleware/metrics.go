package kafka_middleware

import (
	"context"

	"djagency/pkg/kafka"
	"djagency/pkg/metrics"
)

const (
	DirectionPublish = "publish"
	DirectionConsume = "consume"
)

// MetricsProducerMiddleware counts publish outcomes per topic.
func MetricsProducerMiddleware(m *metrics.Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		err := next(ctx, msg)
		m.KafkaMessage(msg.Topic, DirectionPublish, outcome(err))
		return err
	}
}

// MetricsConsumerMiddleware counts handler outcomes per topic. Retries are
// counted once per attempt.
func MetricsConsumerMiddleware(m *metrics.Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		err := next(ctx, msg)
		m.KafkaMessage(msg.Topic, DirectionConsume, outcome(err))
		return err
	}
}

func outcome(err error) string {
	if err != nil {
		return metrics.OutcomeFailure
	}
	return metrics.OutcomeSuccess
}
