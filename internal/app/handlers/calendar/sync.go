package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"directstay/internal/domain/availability"
	"directstay/internal/domain/properties"
)

var ErrMissingProperty = errors.New("calendar: event without property id")

// Evictor drops cached availability.
type Evictor interface {
	Evict(ctx context.Context, id properties.PropertyID) error
}

// Refresher reloads availability into open visitor sessions.
type Refresher interface {
	RefreshAvailability(ctx context.Context, id properties.PropertyID) error
}

// SyncHandler reacts to backend calendar changes: the cached snapshot is
// dropped first so the refresh reads fresh ranges.
type SyncHandler struct {
	Cache    Evictor
	Sessions Refresher
	Logger   *slog.Logger
}

type calendarChange struct {
	PropertyID string `json:"property_id"`
}

// Handle accepts any event name; only calendar events have an effect.
func (h SyncHandler) Handle(ctx context.Context, name string, data []byte) error {
	if !availability.IsCalendarEvent(name) {
		return nil
	}
	var change calendarChange
	if err := json.Unmarshal(data, &change); err != nil {
		return fmt.Errorf("calendar: decode %s: %w", name, err)
	}
	if change.PropertyID == "" {
		return ErrMissingProperty
	}
	id := properties.PropertyID(change.PropertyID)
	if h.Cache != nil {
		if err := h.Cache.Evict(ctx, id); err != nil {
			return fmt.Errorf("calendar: evict %s: %w", id, err)
		}
	}
	if h.Sessions != nil {
		if err := h.Sessions.RefreshAvailability(ctx, id); err != nil {
			return fmt.Errorf("calendar: refresh %s: %w", id, err)
		}
	}
	if h.Logger != nil {
		h.Logger.Debug("calendar change applied", "event", name, "property_id", id)
	}
	return nil
}
