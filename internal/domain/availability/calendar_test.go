package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/stay"
)

func span(start, end string) daterange.Inclusive {
	return daterange.Inclusive{Start: daterange.MustDay(start), End: daterange.MustDay(end)}
}

func TestCalendar_IsBlockedUnion(t *testing.T) {
	cal := FromSnapshot("p1", Snapshot{
		ConfirmedBookings: []daterange.Inclusive{span("2025-04-10", "2025-04-12")},
		ManualBlocks:      []daterange.Inclusive{span("2025-04-20", "2025-04-20")},
	})

	assert.False(t, cal.IsBlocked(daterange.MustDay("2025-04-09")))
	assert.True(t, cal.IsBlocked(daterange.MustDay("2025-04-10")))
	assert.True(t, cal.IsBlocked(time.Date(2025, 4, 12, 18, 30, 0, 0, time.UTC)))
	assert.False(t, cal.IsBlocked(daterange.MustDay("2025-04-13")))
	assert.True(t, cal.IsBlocked(daterange.MustDay("2025-04-20")))
	assert.Len(t, cal.BlockedDays(), 4)
}

func TestCalendar_RecurringCheckInRejectedWithSuggestion(t *testing.T) {
	cal := FromSnapshot("p1", Snapshot{ConfirmedBookings: []daterange.Inclusive{span("2025-04-10", "2025-04-12")}})
	checkIn := daterange.MustDay("2025-04-08")
	checkOut, ok := stay.ImpliedCheckOut(checkIn, pricing.PeriodWeek, 1)
	require.True(t, ok)
	assert.Equal(t, daterange.MustDay("2025-04-15"), checkOut)

	err := cal.CheckWindow(checkIn, checkOut)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, daterange.MustDay("2025-04-12"), conflict.LatestBlocked)
	assert.Equal(t, daterange.MustDay("2025-04-13"), conflict.NextAvailable)
}

func TestCalendar_IsSelectable(t *testing.T) {
	cal := FromSnapshot("p1", Snapshot{ManualBlocks: []daterange.Inclusive{span("2025-04-10", "2025-04-12")}})
	today := daterange.MustDay("2025-04-01")
	night := stay.NewSelection()
	week := stay.Selection{Period: pricing.PeriodWeek, Quantity: 1, Guests: 1}
	withCheckIn := night
	withCheckIn.CheckIn = daterange.MustDay("2025-04-06")

	tests := []struct {
		name string
		day  string
		role Role
		sel  stay.Selection
		want bool
	}{
		{name: "past day", day: "2025-03-31", role: RoleCheckIn, sel: night, want: false},
		{name: "today", day: "2025-04-01", role: RoleCheckIn, sel: night, want: true},
		{name: "blocked night check-in", day: "2025-04-11", role: RoleCheckIn, sel: night, want: false},
		{name: "night check-in before block", day: "2025-04-08", role: RoleCheckIn, sel: night, want: true},
		{name: "week window overlaps block", day: "2025-04-08", role: RoleCheckIn, sel: week, want: false},
		{name: "week window ending on block start", day: "2025-04-03", role: RoleCheckIn, sel: week, want: true},
		{name: "week after block", day: "2025-04-13", role: RoleCheckIn, sel: week, want: true},
		{name: "checkout without check-in", day: "2025-04-08", role: RoleCheckOut, sel: night, want: false},
		{name: "checkout equal to check-in", day: "2025-04-06", role: RoleCheckOut, sel: withCheckIn, want: false},
		{name: "checkout after check-in", day: "2025-04-07", role: RoleCheckOut, sel: withCheckIn, want: true},
		{name: "checkout on first blocked day", day: "2025-04-10", role: RoleCheckOut, sel: withCheckIn, want: true},
		{name: "checkout inside block", day: "2025-04-11", role: RoleCheckOut, sel: withCheckIn, want: false},
		{name: "checkout spanning block", day: "2025-04-14", role: RoleCheckOut, sel: withCheckIn, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsSelectable(daterange.MustDay(tt.day), tt.role, tt.sel, today))
		})
	}
}

func TestCalendar_WeekEndingOnBlockIsFree(t *testing.T) {
	cal := FromSnapshot("p1", Snapshot{ManualBlocks: []daterange.Inclusive{span("2025-04-10", "2025-04-12")}})
	// [04-03, 04-10) does not include the first blocked day.
	assert.NoError(t, cal.CheckWindow(daterange.MustDay("2025-04-03"), daterange.MustDay("2025-04-10")))
}

func TestCalendar_NextCheckIn(t *testing.T) {
	cal := FromSnapshot("p1", Snapshot{ManualBlocks: []daterange.Inclusive{span("2025-04-10", "2025-04-12")}})

	day, ok := cal.NextCheckIn(daterange.MustDay("2025-04-05"), pricing.PeriodWeek, 1, 30)
	require.True(t, ok)
	assert.Equal(t, daterange.MustDay("2025-04-13"), day)
}

func TestCalendar_BlockAndRelease(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	cal := NewCalendar("p1")

	require.NoError(t, cal.BlockRange(span("2025-05-01", "2025-05-03"), ReasonBooking, "b1", now))
	assert.ErrorIs(t, cal.BlockRange(span("2025-05-03", "2025-05-04"), ReasonHostBlock, "h1", now), ErrOverlappingRange)
	assert.True(t, cal.IsBlocked(daterange.MustDay("2025-05-02")))

	require.NoError(t, cal.Release("b1", now))
	assert.False(t, cal.IsBlocked(daterange.MustDay("2025-05-02")))
	assert.ErrorIs(t, cal.Release("b1", now), ErrRangeNotFound)

	pending := cal.PendingEvents()
	require.Len(t, pending, 2)
	assert.Equal(t, EventCalendarBlocked, pending[0].EventName())
	assert.Equal(t, EventCalendarReleased, pending[1].EventName())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	snap := Snapshot{
		ConfirmedBookings: []daterange.Inclusive{span("2025-04-10", "2025-04-12")},
		ManualBlocks:      []daterange.Inclusive{span("2025-04-20", "2025-04-21")},
	}
	assert.Equal(t, snap, FromSnapshot("p1", snap).Snapshot())
}
