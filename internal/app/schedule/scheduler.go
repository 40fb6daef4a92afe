package schedule

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies an armed callback. The zero Handle is never armed.
type Handle uint64

// Scheduler runs callbacks after a delay. Cancel on a fired or unknown handle is a no-op.
type Scheduler interface {
	Arm(delay time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// Manual is a virtual-time Scheduler. Callbacks run synchronously inside Advance,
// in due order, without the scheduler lock held.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	next    Handle
	pending map[Handle]*manualTimer
}

type manualTimer struct {
	handle Handle
	due    time.Time
	fn     func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start, pending: make(map[Handle]*manualTimer)}
}

func (m *Manual) Arm(delay time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	h := m.next
	m.pending[h] = &manualTimer{handle: h, due: m.now.Add(delay), fn: fn}
	return h
}

func (m *Manual) Cancel(h Handle) {
	m.mu.Lock()
	delete(m.pending, h)
	m.mu.Unlock()
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns how many callbacks are armed.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by d, firing every callback that comes due.
// Callbacks armed while advancing fire too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	for {
		m.mu.Lock()
		t := m.earliestLocked(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		delete(m.pending, t.handle)
		m.now = t.due
		m.mu.Unlock()
		t.fn()
	}
}

func (m *Manual) earliestLocked(until time.Time) *manualTimer {
	due := make([]*manualTimer, 0, len(m.pending))
	for _, t := range m.pending {
		if !t.due.After(until) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].handle < due[j].handle
		}
		return due[i].due.Before(due[j].due)
	})
	return due[0]
}

var _ Scheduler = (*Manual)(nil)
