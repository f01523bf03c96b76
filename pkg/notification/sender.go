package notification

import (
	"context"
	"time"

	"djagency/pkg/logger"
	"djagency/pkg/metrics"

	"github.com/google/uuid"
)

const (
	DriverLog      = "log"
	DriverKafka    = "kafka"
	DriverRabbitMQ = "rabbitmq"

	EventTypeRequested = "notification.requested"
	EventSchemaVersion = "1"
)

type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type Sender interface {
	Send(ctx context.Context, p Payload) (Result, error)
	Driver() string
	Close() error
}

// Event is the broker representation of a payload waiting for delivery.
type Event struct {
	ID          string    `json:"id"`
	RequestedAt time.Time `json:"requested_at"`
	Payload     Payload   `json:"payload"`
}

// LogSender stands in for a mail provider: it records the payload and
// reports success without transmitting anything.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.Component("notification")}
}

func (s *LogSender) Send(ctx context.Context, p Payload) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	id := uuid.NewString()
	s.log.Info("notification delivered",
		"notification_id", id,
		"to", p.To,
		"subject", p.Subject,
		"type", p.Type,
		"reference", p.Reference,
		"submitted_at", p.SubmittedAt,
		"body_bytes", len(p.HTMLBody),
	)
	return Result{Success: true, ID: id}, nil
}

func (s *LogSender) Driver() string {
	return DriverLog
}

func (s *LogSender) Close() error {
	return nil
}

// Deliver hands p to the sender and returns the notification id. A failed
// delivery is logged and counted and yields an empty id; the caller's
// submission has already been stored and is not rolled back.
func Deliver(ctx context.Context, s Sender, p Payload, m *metrics.Metrics, log *logger.Logger) string {
	result, err := s.Send(ctx, p)
	if err != nil || !result.Success {
		m.Notification(s.Driver(), metrics.OutcomeFailure)
		log.Error("failed to send notification",
			"driver", s.Driver(),
			"subject", p.Subject,
			"reference", p.Reference,
			"error", err,
		)
		return ""
	}

	m.Notification(s.Driver(), metrics.OutcomeSuccess)
	return result.ID
}

// Notifier is what submission services hold: a builder for the payload and
// a sender to hand it to.
type Notifier struct {
	builder *Builder
	sender  Sender
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewNotifier(builder *Builder, sender Sender, m *metrics.Metrics, log *logger.Logger) *Notifier {
	return &Notifier{
		builder: builder,
		sender:  sender,
		metrics: m,
		log:     log,
	}
}

func (n *Notifier) Builder() *Builder {
	return n.builder
}

// Notify delivers the payload returned by build. A build failure is treated
// like a failed delivery.
func (n *Notifier) Notify(ctx context.Context, build func(b *Builder) (Payload, error)) string {
	p, err := build(n.builder)
	if err != nil {
		n.metrics.Notification(n.sender.Driver(), metrics.OutcomeFailure)
		n.log.Error("failed to build notification", "driver", n.sender.Driver(), "error", err)
		return ""
	}
	return Deliver(ctx, n.sender, p, n.metrics, n.log)
}
