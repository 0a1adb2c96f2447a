package outbox

import (
	"context"
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"buckler/internal/domain/shared/events"
)

// Header names copied from the request context onto records.
const (
	HeaderRequestID   = "request_id"
	HeaderTraceParent = "traceparent"
)

// EventRecord is a domain event serialized for relay.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Stream is the first segment of the event name, e.g. "booking".
func (r EventRecord) Stream() string {
	stream, _, _ := strings.Cut(r.Name, ".")
	return stream
}

// Outbox buffers records inside a unit of work. Flush runs after commit.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error)
}

type headersKey struct{}

// WithHeaders returns a context whose encoded records carry h in addition to
// any headers already attached. Empty values are skipped.
func WithHeaders(ctx context.Context, h map[string]string) context.Context {
	merged := maps.Clone(HeadersFrom(ctx))
	if merged == nil {
		merged = make(map[string]string, len(h))
	}
	for k, v := range h {
		if v != "" {
			merged[k] = v
		}
	}
	return context.WithValue(ctx, headersKey{}, merged)
}

func HeadersFrom(ctx context.Context) map[string]string {
	h, _ := ctx.Value(headersKey{}).(map[string]string)
	return h
}

// JSONEventEncoder marshals the event struct as the payload.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	id := uuid.NewString
	if e.IDGenerator != nil {
		id = e.IDGenerator
	}
	headers := maps.Clone(HeadersFrom(ctx))
	if headers == nil {
		headers = map[string]string{}
	}
	return EventRecord{
		ID:         id(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ctx, ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Puller is implemented by aggregates embedding events.EventRecorder.
type Puller interface {
	Pull() []events.DomainEvent
}

// RecordPulled moves the pending events of every aggregate into the outbox.
func RecordPulled(ctx context.Context, box Outbox, encoder EventEncoder, aggregates ...Puller) error {
	var evs []events.DomainEvent
	for _, agg := range aggregates {
		evs = append(evs, agg.Pull()...)
	}
	return RecordDomainEvents(ctx, box, encoder, evs)
}
