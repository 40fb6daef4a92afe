package availability

import (
	"time"

	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
)

const (
	EventCalendarBlocked  = "calendar.blocked"
	EventCalendarReleased = "calendar.released"
)

type CalendarBlocked struct {
	PropertyID string              `json:"property_id"`
	Range      daterange.Inclusive `json:"range"`
	Reason     BlockReason         `json:"reason"`
	At         time.Time           `json:"at"`
}

func (e CalendarBlocked) EventName() string     { return EventCalendarBlocked }
func (e CalendarBlocked) AggregateID() string   { return e.PropertyID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	PropertyID string              `json:"property_id"`
	Range      daterange.Inclusive `json:"range"`
	Reason     BlockReason         `json:"reason"`
	At         time.Time           `json:"at"`
}

func (e CalendarReleased) EventName() string     { return EventCalendarReleased }
func (e CalendarReleased) AggregateID() string   { return e.PropertyID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

func CalendarBlockedEvent(id properties.PropertyID, r daterange.Inclusive, reason BlockReason, at time.Time) CalendarBlocked {
	return CalendarBlocked{PropertyID: string(id), Range: r, Reason: reason, At: at.UTC()}
}

func CalendarReleasedEvent(id properties.PropertyID, r daterange.Inclusive, reason BlockReason, at time.Time) CalendarReleased {
	return CalendarReleased{PropertyID: string(id), Range: r, Reason: reason, At: at.UTC()}
}

// IsCalendarEvent reports whether name changes a property's blocked days.
func IsCalendarEvent(name string) bool {
	return name == EventCalendarBlocked || name == EventCalendarReleased
}
