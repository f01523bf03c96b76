package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQSender queues payloads on a durable lazy queue.
type RabbitMQSender struct {
	conn    interface{ Close() error }
	channel amqpChannel
	queue   string
}

func NewRabbitMQSender(url, queue string) (*RabbitMQSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-mode": "lazy"},
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitMQSender{conn: conn, channel: ch, queue: q.Name}, nil
}

func (s *RabbitMQSender) Send(ctx context.Context, p Payload) (Result, error) {
	event := Event{ID: uuid.NewString(), RequestedAt: p.SubmittedAt, Payload: p}

	body, err := json.Marshal(event)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal notification event: %w", err)
	}

	err = s.channel.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         EventTypeRequested,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to publish notification event: %w", err)
	}
	return Result{Success: true, ID: event.ID}, nil
}

func (s *RabbitMQSender) Driver() string {
	return DriverRabbitMQ
}

func (s *RabbitMQSender) Close() error {
	var errs []error
	if s.channel != nil {
		errs = append(errs, s.channel.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
