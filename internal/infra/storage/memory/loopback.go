package memory

import (
	"context"
	"errors"
	"log/slog"

	appoutbox "directstay/internal/app/outbox"
)

var ErrLoopbackFull = errors.New("memory: loopback queue full")

// EventHandler consumes one published event.
type EventHandler interface {
	Handle(ctx context.Context, name string, data []byte) error
}

// Loopback stands in for the broker when everything runs in one process.
// Publish only enqueues; Run delivers on its own goroutine, so a publisher may
// hold locks the handler needs.
type Loopback struct {
	handler EventHandler
	queue   chan appoutbox.EventRecord
	logger  *slog.Logger
}

func NewLoopback(handler EventHandler, size int, logger *slog.Logger) *Loopback {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loopback{handler: handler, queue: make(chan appoutbox.EventRecord, size), logger: logger}
}

// Publish fails with ErrLoopbackFull instead of blocking; the outbox keeps the
// record and offers it again on the next flush.
func (l *Loopback) Publish(ctx context.Context, record appoutbox.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.queue <- record:
		return nil
	default:
		return ErrLoopbackFull
	}
}

func (l *Loopback) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-l.queue:
			if err := l.handler.Handle(ctx, rec.Name, rec.Payload); err != nil {
				l.logger.Warn("loopback event failed", "event", rec.Name, "event_id", rec.ID, "err", err)
			}
		}
	}
}

var _ Publisher = (*Loopback)(nil)
