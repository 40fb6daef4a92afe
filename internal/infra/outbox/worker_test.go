package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "directstay/internal/app/outbox"
)

type fakeQueue struct {
	due    []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (q *fakeQueue) Claim(context.Context, string) (*EventDocument, error) {
	if len(q.due) == 0 {
		return nil, nil
	}
	doc := q.due[0]
	q.due = q.due[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	out []published
	err error
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

var t0 = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func doc(id, name string, attempts int) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"property_id":"villa"}`),
		OccurredAt: t0,
		Aggregate:  "villa",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
		Attempts:   attempts,
	}
}

func TestWorker_PublishesCloudEvents(t *testing.T) {
	q := &fakeQueue{due: []*EventDocument{doc("e1", "calendar.blocked", 0), doc("e2", "booking.requested", 0)}}
	p := &fakeProducer{}
	w := &Worker{Store: q, Producer: p, TopicPrefix: "dev.", Source: "app://test"}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2"}, q.sent)

	require.Len(t, p.out, 2)
	assert.Equal(t, "dev.calendar.events.v1", p.out[0].topic)
	assert.Equal(t, "dev.booking.events.v1", p.out[1].topic)
	assert.Equal(t, "villa", p.out[0].key)
	assert.Equal(t, ContentTypeCloudEvents, p.out[0].headers["content-type"])

	evt, err := ParseEnvelope(p.out[0].payload)
	require.NoError(t, err)
	assert.Equal(t, "e1", evt.ID)
	assert.Equal(t, "calendar.blocked", evt.EventName())
	assert.Equal(t, "00-abc-def-01", evt.TraceParent)
	assert.JSONEq(t, `{"property_id":"villa"}`, string(evt.Data))
}

func TestWorker_FailureSchedulesRetry(t *testing.T) {
	q := &fakeQueue{due: []*EventDocument{doc("e1", "calendar.blocked", 0), doc("e2", "calendar.blocked", 5)}}
	w := &Worker{
		Store:    q,
		Producer: &fakeProducer{err: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 30 * time.Second},
		Now:      func() time.Time { return t0 },
	}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, q.sent)
	assert.Equal(t, t0.Add(time.Second), q.failed["e1"])
	assert.Equal(t, t0.Add(30*time.Second), q.failed["e2"], "attempts past the schedule reuse the last backoff")
}

func TestWorker_InvalidPayloadIsFailed(t *testing.T) {
	bad := doc("e1", "calendar.blocked", 0)
	bad.Payload = []byte("not json")
	q := &fakeQueue{due: []*EventDocument{bad}}
	w := &Worker{Store: q, Producer: &fakeProducer{}}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Contains(t, q.failed, "e1")
}

func TestWorker_BatchLimit(t *testing.T) {
	q := &fakeQueue{due: []*EventDocument{doc("e1", "a.b", 0), doc("e2", "a.b", 0), doc("e3", "a.b", 0)}}
	w := &Worker{Store: q, Producer: &fakeProducer{}, BatchSize: 2}
	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, q.due, 1)
}

func TestWorker_RunRequiresDeps(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestParseEnvelope_RejectsPlainJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"property_id":"villa"}`))
	assert.ErrorIs(t, err, ErrNotCloudEvent)

	raw, _, err := Envelope(appoutbox.EventRecord{ID: "x", Name: "calendar.released", Payload: json.RawMessage(`{}`)}, "")
	require.NoError(t, err)
	evt, err := ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "app://directstay", evt.Source)
}
