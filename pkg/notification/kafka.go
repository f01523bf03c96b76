package notification

import (
	"context"
	"fmt"

	"djagency/pkg/kafka"
	"djagency/pkg/logger"

	"github.com/google/uuid"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaSender queues payloads for the notifier worker.
type KafkaSender struct {
	producer Publisher
	source   string
}

func NewKafkaSender(producer Publisher, source string) *KafkaSender {
	return &KafkaSender{producer: producer, source: source}
}

func (s *KafkaSender) Send(ctx context.Context, p Payload) (Result, error) {
	event := Event{ID: uuid.NewString(), RequestedAt: p.SubmittedAt, Payload: p}

	key := p.Reference
	if key == "" {
		key = event.ID
	}

	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(event).
		WithEventID(event.ID).
		WithCorrelationID(p.Reference).
		WithEventType(EventTypeRequested).
		WithSchemaVersion(EventSchemaVersion).
		WithSource(s.source).
		Build()
	if err != nil {
		return Result{}, err
	}

	if err := s.producer.Publish(ctx, msg); err != nil {
		return Result{}, fmt.Errorf("failed to publish notification event: %w", err)
	}
	return Result{Success: true, ID: event.ID}, nil
}

func (s *KafkaSender) Driver() string {
	return DriverKafka
}

func (s *KafkaSender) Close() error {
	return s.producer.Close()
}

// EventHandler delivers consumed notification events through sender.
// Undecodable events are permanent failures and go to the DLQ.
func EventHandler(sender Sender, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if t := msg.GetEventType(); t != "" && t != EventTypeRequested {
			log.Debug("skipping event", "event_type", t, "event_id", msg.GetEventID())
			return nil
		}

		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("failed to decode notification event", err)
		}
		if event.Payload.To == "" || event.Payload.Subject == "" {
			return kafka.NewPermanentError(fmt.Sprintf("notification event %s is missing recipient or subject", event.ID), nil)
		}

		result, err := sender.Send(ctx, event.Payload)
		if err != nil {
			return kafka.NewTransientError("failed to deliver notification", err)
		}

		log.Info("notification event processed",
			"event_id", event.ID,
			"notification_id", result.ID,
			"subject", event.Payload.Subject,
		)
		return nil
	}
}
