package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"djagency/pkg/kafka"
	"djagency/pkg/logger"
	"djagency/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	wantErr := errors.New("boom")
	msg := kafka.Message{Topic: "t", Key: "k", Headers: map[string]string{}}

	pub := LoggingProducerMiddleware(logger.Discard())
	err := pub(context.Background(), msg, func(ctx context.Context, m kafka.Message) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	con := LoggingConsumerMiddleware(logger.Discard())
	err = con(context.Background(), msg, func(ctx context.Context, m kafka.Message) error { return nil })
	assert.NoError(t, err)
}

func TestMetricsMiddlewareCountsOutcomes(t *testing.T) {
	m := metrics.New("agency_test")
	msg := kafka.Message{Topic: "agency.notifications", Key: "k"}

	pub := MetricsProducerMiddleware(m)
	require.NoError(t, pub(context.Background(), msg, func(ctx context.Context, m kafka.Message) error { return nil }))

	con := MetricsConsumerMiddleware(m)
	require.Error(t, con(context.Background(), msg, func(ctx context.Context, m kafka.Message) error { return errors.New("x") }))

	count, err := testutil.GatherAndCount(m.Registry(), "agency_test_kafka_messages_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
