package notify

import (
	"context"
	"fmt"
	"time"

	"shipping/internal/core/ports"

	"github.com/segmentio/kafka-go"
)

// Writer is the part of kafka.Writer the notifier uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes one message per notification, keyed by user so a
// user's notifications stay ordered within a partition.
type KafkaNotifier struct {
	writer Writer
	now    func() time.Time
}

var _ ports.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return NewKafkaNotifierWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func NewKafkaNotifierWithWriter(w Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: w, now: time.Now}
}

func (n *KafkaNotifier) Notify(ctx context.Context, userID string, kind ports.NotificationKind, payload map[string]any) error {
	event := newEvent(userID, kind, payload, n.now())
	body, err := encode(event)
	if err != nil {
		return err
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s notification to kafka: %w", kind, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
