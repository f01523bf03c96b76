package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"djagency/pkg/kafka"
	"djagency/pkg/logger"
	"djagency/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []kafka.Message
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type failingSender struct{}

func (failingSender) Send(context.Context, Payload) (Result, error) {
	return Result{}, errors.New("smtp down")
}
func (failingSender) Driver() string { return "failing" }
func (failingSender) Close() error   { return nil }

func samplePayload() Payload {
	return Payload{To: "bookings@djagency.local", Subject: SubjectGeneral, Type: "general", Reference: "inq-1", HTMLBody: "<p>hi</p>"}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(logger.Discard())

	res, err := s.Send(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Send(ctx, samplePayload())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKafkaSender(t *testing.T) {
	pub := &fakePublisher{}
	s := NewKafkaSender(pub, "agency")

	res, err := s.Send(context.Background(), samplePayload())
	require.NoError(t, err)
	require.Len(t, pub.published, 1)

	msg := pub.published[0]
	assert.Equal(t, "inq-1", msg.Key)
	assert.Equal(t, EventTypeRequested, msg.GetEventType())
	assert.Equal(t, res.ID, msg.GetEventID())
	assert.Equal(t, "inq-1", msg.GetCorrelationID())

	var event Event
	require.NoError(t, msg.DecodeValue(&event))
	assert.Equal(t, res.ID, event.ID)
	assert.Equal(t, SubjectGeneral, event.Payload.Subject)
}

func TestKafkaSenderPublishError(t *testing.T) {
	s := NewKafkaSender(&fakePublisher{err: errors.New("broker down")}, "agency")

	res, err := s.Send(context.Background(), samplePayload())
	assert.Error(t, err)
	assert.False(t, res.Success)
}

func TestRabbitMQSender(t *testing.T) {
	ch := &fakeChannel{}
	s := &RabbitMQSender{channel: ch, queue: "agency.notifications"}

	res, err := s.Send(context.Background(), samplePayload())
	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	assert.Equal(t, "agency.notifications", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, res.ID, ch.published[0].MessageId)

	var event Event
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &event))
	assert.Equal(t, "inq-1", event.Payload.Reference)

	require.NoError(t, s.Close())
	assert.True(t, ch.closed)
}

func TestDeliver(t *testing.T) {
	m := metrics.New("agency_test")

	id := Deliver(context.Background(), NewLogSender(logger.Discard()), samplePayload(), m, logger.Discard())
	assert.NotEmpty(t, id)

	id = Deliver(context.Background(), failingSender{}, samplePayload(), m, logger.Discard())
	assert.Empty(t, id)

	count, err := testutil.GatherAndCount(m.Registry(), "agency_test_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNotifier(t *testing.T) {
	m := metrics.New("agency_test")
	n := NewNotifier(NewBuilder("ops@agency.test", nil), NewLogSender(logger.Discard()), m, logger.Discard())

	id := n.Notify(context.Background(), func(b *Builder) (Payload, error) {
		return samplePayload(), nil
	})
	assert.NotEmpty(t, id)

	id = n.Notify(context.Background(), func(b *Builder) (Payload, error) {
		return Payload{}, errors.New("template failed")
	})
	assert.Empty(t, id)
	assert.NotNil(t, n.Builder())
}

func TestEventHandler(t *testing.T) {
	handler := EventHandler(NewLogSender(logger.Discard()), logger.Discard())

	pub := &fakePublisher{}
	_, err := NewKafkaSender(pub, "agency").Send(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.NoError(t, handler(context.Background(), pub.published[0]))

	bad := kafka.Message{Value: []byte("not json"), Headers: map[string]string{kafka.HeaderEventType: EventTypeRequested}}
	err = handler(context.Background(), bad)
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	other := kafka.Message{Value: []byte("{}"), Headers: map[string]string{kafka.HeaderEventType: "something.else"}}
	assert.NoError(t, handler(context.Background(), other))
}

func TestEventHandlerDeliveryFailureIsTransient(t *testing.T) {
	handler := EventHandler(failingSender{}, logger.Discard())

	pub := &fakePublisher{}
	_, err := NewKafkaSender(pub, "agency").Send(context.Background(), samplePayload())
	require.NoError(t, err)

	err = handler(context.Background(), pub.published[0])
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}
