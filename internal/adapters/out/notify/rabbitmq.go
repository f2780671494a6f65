package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipping/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of an AMQP channel the notifier uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitNotifier publishes persistent JSON messages to a durable queue
// through the default exchange.
type RabbitNotifier struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
	now     func() time.Time
}

var _ ports.Notifier = (*RabbitNotifier)(nil)

func DialRabbitNotifier(url, queue string) (*RabbitNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	n := NewRabbitNotifierWithChannel(ch, queue)
	n.conn = conn
	return n, nil
}

func NewRabbitNotifierWithChannel(ch Channel, queue string) *RabbitNotifier {
	return &RabbitNotifier{channel: ch, queue: queue, now: time.Now}
}

func (n *RabbitNotifier) Notify(ctx context.Context, userID string, kind ports.NotificationKind, payload map[string]any) error {
	event := newEvent(userID, kind, payload, n.now())
	body, err := encode(event)
	if err != nil {
		return err
	}

	err = n.channel.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         string(kind),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s notification to rabbitmq: %w", kind, err)
	}
	return nil
}

func (n *RabbitNotifier) Close() error {
	err := n.channel.Close()
	if n.conn != nil {
		err = errors.Join(err, n.conn.Close())
	}
	return err
}
