package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
)

type BlockReason string

const (
	ReasonBooking   BlockReason = "BOOKING"
	ReasonHostBlock BlockReason = "HOST_BLOCK"
)

// Block is a day-inclusive interval made unavailable by a booking or by the host.
type Block struct {
	Range     daterange.Inclusive `json:"range"`
	Reason    BlockReason         `json:"reason"`
	Reference string              `json:"reference,omitempty"`
}

// Snapshot is the availability payload served by the booking backend.
type Snapshot struct {
	ConfirmedBookings []daterange.Inclusive `json:"confirmed_booking_ranges"`
	ManualBlocks      []daterange.Inclusive `json:"manual_block_ranges"`
}

// Calendar expands blocks into a per-day lookup set. A day is blocked iff it
// lies in at least one block.
type Calendar struct {
	PropertyID properties.PropertyID
	Blocks     []Block
	days       map[time.Time]struct{}
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, id properties.PropertyID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id properties.PropertyID, blocks ...Block) *Calendar {
	c := &Calendar{PropertyID: id}
	for _, b := range blocks {
		c.appendBlock(b)
	}
	return c
}

// FromSnapshot builds a calendar from backend ranges. Inverted ranges are skipped.
func FromSnapshot(id properties.PropertyID, snap Snapshot) *Calendar {
	c := NewCalendar(id)
	for _, r := range snap.ConfirmedBookings {
		if !r.End.Before(r.Start) {
			c.appendBlock(Block{Range: r, Reason: ReasonBooking})
		}
	}
	for _, r := range snap.ManualBlocks {
		if !r.End.Before(r.Start) {
			c.appendBlock(Block{Range: r, Reason: ReasonHostBlock})
		}
	}
	return c
}

// Snapshot splits blocks back into booking and manual ranges.
func (c *Calendar) Snapshot() Snapshot {
	snap := Snapshot{ConfirmedBookings: []daterange.Inclusive{}, ManualBlocks: []daterange.Inclusive{}}
	for _, b := range c.Blocks {
		if b.Reason == ReasonBooking {
			snap.ConfirmedBookings = append(snap.ConfirmedBookings, b.Range)
		} else {
			snap.ManualBlocks = append(snap.ManualBlocks, b.Range)
		}
	}
	return snap
}

func (c *Calendar) IsBlocked(day time.Time) bool {
	if c == nil || c.days == nil {
		return false
	}
	_, ok := c.days[daterange.Day(day)]
	return ok
}

// BlockedDays lists every blocked day in ascending order.
func (c *Calendar) BlockedDays() []time.Time {
	out := make([]time.Time, 0, len(c.days))
	for d := range c.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// CanReserve reports whether r overlaps no existing block.
func (c *Calendar) CanReserve(r daterange.Inclusive) bool {
	for _, d := range r.Days() {
		if c.IsBlocked(d) {
			return false
		}
	}
	return true
}

func (c *Calendar) BlockRange(r daterange.Inclusive, reason BlockReason, reference string, now time.Time) error {
	if reason == "" {
		reason = ReasonHostBlock
	}
	if !c.CanReserve(r) {
		return ErrOverlappingRange
	}
	c.appendBlock(Block{Range: r, Reason: reason, Reference: reference})
	c.Record(CalendarBlockedEvent(c.PropertyID, r, reason, now))
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.reindex()
	c.Record(CalendarReleasedEvent(c.PropertyID, removed.Range, removed.Reason, now))
	return nil
}

func (c *Calendar) appendBlock(block Block) {
	block.Range = daterange.Inclusive{Start: daterange.Day(block.Range.Start), End: daterange.Day(block.Range.End)}
	c.Blocks = append(c.Blocks, block)
	if c.days == nil {
		c.days = make(map[time.Time]struct{})
	}
	for _, d := range block.Range.Days() {
		c.days[d] = struct{}{}
	}
}

func (c *Calendar) reindex() {
	c.days = make(map[time.Time]struct{})
	for _, b := range c.Blocks {
		for _, d := range b.Range.Days() {
			c.days[d] = struct{}{}
		}
	}
}
