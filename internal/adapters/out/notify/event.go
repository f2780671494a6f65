// Package notify delivers shipment notifications to Kafka, RabbitMQ or the
// application log. Every sink publishes the same JSON Event.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"
)

type Event struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"userId"`
	Kind       ports.NotificationKind `json:"kind"`
	Payload    map[string]any         `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func newEvent(userID string, kind ports.NotificationKind, payload map[string]any, now time.Time) Event {
	return Event{
		ID:         kernel.NewUUID().String(),
		UserID:     userID,
		Kind:       kind,
		Payload:    payload,
		OccurredAt: now.UTC(),
	}
}

func encode(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s notification: %w", e.Kind, err)
	}
	return body, nil
}

// LogNotifier writes notifications to the logger. It is the default sink and
// the one used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, userID string, kind ports.NotificationKind, payload map[string]any) error {
	level := slog.LevelInfo
	if userID == ports.StaffRecipient {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "notification", "user", userID, "kind", kind, "payload", payload)
	return nil
}

// Multi fans a notification out to every sink and joins their errors.
type Multi []ports.Notifier

func (m Multi) Notify(ctx context.Context, userID string, kind ports.NotificationKind, payload map[string]any) error {
	var result []error
	for _, n := range m {
		if err := n.Notify(ctx, userID, kind, payload); err != nil {
			result = append(result, err)
		}
	}
	return errors.Join(result...)
}
