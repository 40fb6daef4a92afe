package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "directstay/internal/app/outbox"
)

type recordingHandler struct {
	mu    sync.Mutex
	names []string
}

func (h *recordingHandler) Handle(_ context.Context, name string, _ []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names = append(h.names, name)
	return nil
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.names...)
}

func TestLoopback_DeliversInOrder(t *testing.T) {
	h := &recordingHandler{}
	lb := NewLoopback(h, 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = lb.Run(ctx)
		close(done)
	}()

	box := NewOutbox(lb)
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "1", Name: "calendar.blocked"}))
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "2", Name: "booking.requested"}))
	require.NoError(t, box.Flush(ctx))

	assert.Eventually(t, func() bool { return len(h.seen()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"calendar.blocked", "booking.requested"}, h.seen())
	cancel()
	<-done
}

func TestLoopback_FullQueueKeepsRecordsInOutbox(t *testing.T) {
	lb := NewLoopback(&recordingHandler{}, 1, nil)
	box := NewOutbox(lb)
	ctx := context.Background()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "1", Name: "a.x"}))
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "2", Name: "a.y"}))

	err := box.Flush(ctx)
	assert.ErrorIs(t, err, ErrLoopbackFull)
	assert.Equal(t, 1, box.Pending())
}
