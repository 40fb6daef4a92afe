package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "directstay/internal/app/outbox"
)

// Publisher receives flushed records.
type Publisher interface {
	Publish(ctx context.Context, record appoutbox.EventRecord) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, record appoutbox.EventRecord) error

func (f PublisherFunc) Publish(ctx context.Context, record appoutbox.EventRecord) error {
	return f(ctx, record)
}

// Outbox keeps events in memory until flushed. Without a publisher Flush discards them.
type Outbox struct {
	Publisher Publisher

	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox(pub Publisher) *Outbox {
	return &Outbox{Publisher: pub}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

// Flush publishes buffered records in order. Records that failed stay buffered.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()
	if o.Publisher == nil {
		return nil
	}
	var errs []error
	var failed []appoutbox.EventRecord
	for _, rec := range pending {
		if err := o.Publisher.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
			failed = append(failed, rec)
		}
	}
	if len(failed) > 0 {
		o.mu.Lock()
		o.records = append(failed, o.records...)
		o.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Pending reports how many records wait for a flush.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
