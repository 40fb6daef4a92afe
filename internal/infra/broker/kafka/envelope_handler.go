package kafka

import (
	"context"
	"log/slog"

	"github.com/IBM/sarama"

	"directstay/internal/infra/outbox"
)

// Deduper remembers processed event ids.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// EventHandler handles the data of one decoded event.
type EventHandler interface {
	Handle(ctx context.Context, name string, data []byte) error
}

// EnvelopeHandler unwraps cloud events and hands each event to Events once.
// Messages that are not cloud events are logged and skipped.
type EnvelopeHandler struct {
	Inbox  Deduper
	Events EventHandler
	Logger *slog.Logger
}

var _ MessageHandler = EnvelopeHandler{}

func (h EnvelopeHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	evt, err := outbox.ParseEnvelope(msg.Value)
	if err != nil {
		h.logger().Warn("skipping malformed event", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().Debug("duplicate event skipped", "event_id", evt.ID, "type", evt.Type)
			return nil
		}
	}
	if err := h.Events.Handle(ctx, evt.EventName(), evt.Data); err != nil {
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(ctx, evt.ID); ferr != nil {
				h.logger().Error("inbox forget failed", "event_id", evt.ID, "err", ferr)
			}
		}
		return err
	}
	return nil
}

func (h EnvelopeHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
