package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/groompro/backend/internal/domain"
)

// Queue names. One durable queue per event kind; consumers bind what they
// care about.
const (
	QueueCreated  = "appointments.created"
	QueueUpdated  = "appointments.updated"
	QueueDeleted  = "appointments.deleted"
	QueueReminder = "appointments.reminder"
)

// Notifier publishes appointment events to RabbitMQ. It dials per publish,
// which keeps it free of connection state to babysit; hook volume is a
// handful of messages per request, not a firehose.
type Notifier struct {
	url string
}

func NewNotifier(url string) *Notifier {
	return &Notifier{url: url}
}

type notifierEvent struct {
	Event        string               `json:"event"`
	At           time.Time            `json:"at"`
	Appointments []domain.Appointment `json:"appointments"`
}

// Publish sends the appointments as one persistent JSON message on the named
// queue, declaring the queue first so ordering of producer and consumer
// startup does not matter.
func (n *Notifier) Publish(ctx context.Context, queue string, appts []domain.Appointment) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("hooks.Notifier.Publish: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("hooks.Notifier.Publish: channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("hooks.Notifier.Publish: declare %s: %w", queue, err)
	}

	body, err := json.Marshal(notifierEvent{
		Event:        queue,
		At:           time.Now().UTC(),
		Appointments: appts,
	})
	if err != nil {
		return fmt.Errorf("hooks.Notifier.Publish: marshal: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("hooks.Notifier.Publish: publish %s: %w", queue, err)
	}
	return nil
}
