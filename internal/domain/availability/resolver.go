package availability

import (
	"fmt"
	"time"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/stay"
)

// Role is the part a candidate date plays in a selection.
type Role string

const (
	RoleCheckIn  Role = "checkin"
	RoleCheckOut Role = "checkout"
)

// ConflictError reports a stay window that contains blocked days.
type ConflictError struct {
	CheckIn       time.Time
	CheckOut      time.Time
	LatestBlocked time.Time
	NextAvailable time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("availability: %s..%s overlaps blocked day %s, next available %s",
		e.CheckIn.Format(daterange.DayLayout), e.CheckOut.Format(daterange.DayLayout),
		e.LatestBlocked.Format(daterange.DayLayout), e.NextAvailable.Format(daterange.DayLayout))
}

// CheckWindow fails with *ConflictError when any day in [checkIn, checkOut) is
// blocked. The error carries the latest blocked day so callers can suggest the
// day after it.
func (c *Calendar) CheckWindow(checkIn, checkOut time.Time) error {
	window := daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}
	latest, ok := c.latestBlocked(window)
	if !ok {
		return nil
	}
	return &ConflictError{
		CheckIn:       window.CheckIn,
		CheckOut:      window.CheckOut,
		LatestBlocked: latest,
		NextAvailable: daterange.NextDay(latest),
	}
}

// LatestBlocked returns the last blocked day in [from, to).
func (c *Calendar) LatestBlocked(from, to time.Time) (time.Time, bool) {
	return c.latestBlocked(daterange.DateRange{CheckIn: from, CheckOut: to})
}

func (c *Calendar) latestBlocked(window daterange.DateRange) (time.Time, bool) {
	days := window.Days()
	for i := len(days) - 1; i >= 0; i-- {
		if c.IsBlocked(days[i]) {
			return days[i], true
		}
	}
	return time.Time{}, false
}

// IsSelectable decides whether date may be picked in role given the current selection.
// Past days are never selectable. A checkout must follow the check-in with every
// night in between free; it may land on a blocked day. Recurring check-ins need
// their whole implied window free.
func (c *Calendar) IsSelectable(date time.Time, role Role, sel stay.Selection, today time.Time) bool {
	day := daterange.Day(date)
	if day.Before(daterange.Day(today)) {
		return false
	}
	if role == RoleCheckOut {
		if !sel.HasCheckIn() || !day.After(daterange.Day(sel.CheckIn)) {
			return false
		}
		return c.CheckWindow(sel.CheckIn, day) == nil
	}
	if sel.Period.Recurring() {
		checkOut, _ := stay.ImpliedCheckOut(day, sel.Period, sel.Quantity)
		return c.CheckWindow(day, checkOut) == nil
	}
	return !c.IsBlocked(day)
}

// NextCheckIn scans forward from from for the first selectable check-in day
// under period and quantity, giving up after horizon days.
func (c *Calendar) NextCheckIn(from time.Time, period pricing.Period, quantity, horizon int) (time.Time, bool) {
	sel := stay.Selection{Period: period, Quantity: quantity}
	day := daterange.Day(from)
	for i := 0; i < horizon; i++ {
		if c.IsSelectable(day, RoleCheckIn, sel, from) {
			return day, true
		}
		day = daterange.NextDay(day)
	}
	return time.Time{}, false
}
