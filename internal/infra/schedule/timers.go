package schedule

import (
	"sync"
	"time"

	appschedule "directstay/internal/app/schedule"
)

var _ appschedule.Scheduler = (*Timers)(nil)

// Timers is the wall-clock scheduler backed by time.AfterFunc.
type Timers struct {
	mu     sync.Mutex
	next   appschedule.Handle
	timers map[appschedule.Handle]*time.Timer
}

func NewTimers() *Timers {
	return &Timers{timers: make(map[appschedule.Handle]*time.Timer)}
}

func (t *Timers) Arm(delay time.Duration, fn func()) appschedule.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.timers[h] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		_, live := t.timers[h]
		delete(t.timers, h)
		t.mu.Unlock()
		if live {
			fn()
		}
	})
	return h
}

func (t *Timers) Cancel(h appschedule.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[h]; ok {
		timer.Stop()
		delete(t.timers, h)
	}
}

// Pending reports how many timers are armed and not yet fired.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop cancels every armed timer.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, timer := range t.timers {
		timer.Stop()
		delete(t.timers, h)
	}
}
