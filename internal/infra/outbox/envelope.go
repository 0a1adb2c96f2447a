package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	appoutbox "buckler/internal/app/outbox"
)

const defaultSource = "app://buckler"

// Envelope wraps event records into CloudEvents JSON.
type Envelope struct {
	Source      string
	TopicPrefix string
}

// Format returns the CloudEvents payload and the Kafka headers for rec.
func (e Envelope) Format(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          e.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt.UTC().Format(time.RFC3339Nano),
		"datacontenttype": "application/json",
		"data":            data,
	}
	if evt["id"] == "" {
		evt["id"] = uuid.NewString()
	}
	if trace, ok := rec.Headers[appoutbox.HeaderTraceParent]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// Topic maps "booking.confirmed" to "<prefix>booking.events.v1".
func (e Envelope) Topic(rec appoutbox.EventRecord) string {
	return e.TopicPrefix + rec.Stream() + ".events.v1"
}

func (e Envelope) source() string {
	if e.Source != "" {
		return e.Source
	}
	return defaultSource
}
