package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	appoutbox "directstay/internal/app/outbox"
)

const ContentTypeCloudEvents = "application/cloudevents+json"

var ErrNotCloudEvent = errors.New("outbox: payload is not a cloud event")

// CloudEvent is the structured-mode envelope every published record travels in.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
	TraceParent     string          `json:"traceparent,omitempty"`
}

// EventName strips the version suffix from Type.
func (e CloudEvent) EventName() string {
	if idx := strings.LastIndex(e.Type, ".v"); idx > 0 {
		return e.Type[:idx]
	}
	return e.Type
}

// Envelope wraps a record's JSON payload. The record id becomes the event id
// so consumers can deduplicate redeliveries.
func Envelope(rec appoutbox.EventRecord, source string) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, errors.New("outbox: record payload is not json")
	}
	if source == "" {
		source = "app://directstay"
	}
	evt := CloudEvent{
		SpecVersion:     "1.0",
		ID:              rec.ID,
		Type:            rec.Name + ".v1",
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt.UTC(),
		DataContentType: appoutbox.ContentTypeJSON,
		Data:            json.RawMessage(rec.Payload),
		TraceParent:     rec.Headers["traceparent"],
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	headers["content-type"] = ContentTypeCloudEvents
	return payload, headers, nil
}

// ParseEnvelope is the inverse of Envelope.
func ParseEnvelope(payload []byte) (CloudEvent, error) {
	var evt CloudEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return CloudEvent{}, err
	}
	if evt.SpecVersion == "" || evt.ID == "" || evt.Type == "" {
		return CloudEvent{}, ErrNotCloudEvent
	}
	return evt, nil
}

// TopicFor routes an event by the prefix of its name: calendar.blocked goes to
// calendar.events.v1.
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}
