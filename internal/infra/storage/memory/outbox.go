package memory

import (
	"context"
	"sync"

	appoutbox "buckler/internal/app/outbox"
)

// Publisher receives records once the command that produced them succeeded.
type Publisher interface {
	PublishRecords(ctx context.Context, records []appoutbox.EventRecord) error
}

type batchKey struct{}

type batch struct {
	records []appoutbox.EventRecord
}

// Outbox buffers records of running commands. Flush hands them to the
// publisher, if any, and keeps them in the sent log; Discard drops them.
// Commands dispatched with a scoped context get their own buffer.
type Outbox struct {
	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	sent      []appoutbox.EventRecord
	publisher Publisher
}

func NewOutbox(publisher Publisher) *Outbox {
	return &Outbox{publisher: publisher}
}

// Scope attaches a fresh buffer to ctx.
func (o *Outbox) Scope(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey{}, &batch{})
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if b, ok := ctx.Value(batchKey{}).(*batch); ok {
		b.records = append(b.records, record)
		return nil
	}
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	var records []appoutbox.EventRecord
	if b, ok := ctx.Value(batchKey{}).(*batch); ok {
		records, b.records = b.records, nil
	} else {
		records, o.pending = o.pending, nil
	}
	o.sent = append(o.sent, records...)
	o.mu.Unlock()
	if o.publisher == nil || len(records) == 0 {
		return nil
	}
	return o.publisher.PublishRecords(ctx, records)
}

func (o *Outbox) Discard(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if b, ok := ctx.Value(batchKey{}).(*batch); ok {
		b.records = nil
		return
	}
	o.pending = nil
}

// Sent returns every flushed record in order.
func (o *Outbox) Sent() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.sent))
	copy(out, o.sent)
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
