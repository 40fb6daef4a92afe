package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "directstay/internal/app/outbox"
	"directstay/internal/infra/outbox"
)

func TestProducer_Publish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)
	var got *sarama.ProducerMessage
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		got = msg
		return nil
	})

	p := NewProducerFrom(sp)
	require.NoError(t, p.Publish(context.Background(), "calendar.events.v1", "villa", []byte(`{}`), map[string]string{"b": "2", "a": "1"}))
	require.NoError(t, p.Close())

	require.NotNil(t, got)
	assert.Equal(t, "calendar.events.v1", got.Topic)
	key, _ := got.Key.Encode()
	assert.Equal(t, "villa", string(key))
	require.Len(t, got.Headers, 2)
	assert.Equal(t, "a", string(got.Headers[0].Key))
}

func TestProducer_PublishError(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFrom(sp)
	assert.ErrorIs(t, p.Publish(context.Background(), "t", "k", nil, nil), sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

type memInbox struct {
	seen      map[string]bool
	forgotten []string
}

func (m *memInbox) Seen(_ context.Context, id string) (bool, error) {
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

func (m *memInbox) Forget(_ context.Context, id string) error {
	delete(m.seen, id)
	m.forgotten = append(m.forgotten, id)
	return nil
}

type recordingEvents struct {
	names []string
	err   error
}

func (r *recordingEvents) Handle(_ context.Context, name string, _ []byte) error {
	r.names = append(r.names, name)
	return r.err
}

func envelope(t *testing.T, id string) *sarama.ConsumerMessage {
	t.Helper()
	raw, _, err := outbox.Envelope(appoutbox.EventRecord{ID: id, Name: "calendar.blocked", Payload: []byte(`{"property_id":"villa"}`)}, "")
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "calendar.events.v1", Value: raw}
}

func TestEnvelopeHandler_DeduplicatesRedeliveries(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	events := &recordingEvents{}
	h := EnvelopeHandler{Inbox: inbox, Events: events}

	require.NoError(t, h.Handle(context.Background(), envelope(t, "e1")))
	require.NoError(t, h.Handle(context.Background(), envelope(t, "e1")))
	assert.Equal(t, []string{"calendar.blocked"}, events.names)
}

func TestEnvelopeHandler_FailureForgetsEvent(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	events := &recordingEvents{err: errors.New("backend down")}
	h := EnvelopeHandler{Inbox: inbox, Events: events}

	assert.Error(t, h.Handle(context.Background(), envelope(t, "e1")))
	assert.Equal(t, []string{"e1"}, inbox.forgotten)

	events.err = nil
	require.NoError(t, h.Handle(context.Background(), envelope(t, "e1")))
	assert.Len(t, events.names, 2)
}

func TestEnvelopeHandler_SkipsMalformed(t *testing.T) {
	events := &recordingEvents{}
	h := EnvelopeHandler{Events: events}
	require.NoError(t, h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("garbage")}))
	assert.Empty(t, events.names)
}
