package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimers_FiresOnce(t *testing.T) {
	timers := NewTimers()
	fired := make(chan struct{}, 1)
	timers.Arm(5*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return timers.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimers_CancelPreventsCallback(t *testing.T) {
	timers := NewTimers()
	var calls atomic.Int32
	h := timers.Arm(20*time.Millisecond, func() { calls.Add(1) })
	timers.Cancel(h)
	timers.Cancel(h)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.Zero(t, timers.Pending())
}

func TestTimers_Stop(t *testing.T) {
	timers := NewTimers()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		timers.Arm(20*time.Millisecond, func() { calls.Add(1) })
	}
	assert.Equal(t, 3, timers.Pending())
	timers.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
