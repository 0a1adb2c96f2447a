package outbox

import (
	"context"
	"log/slog"

	appoutbox "buckler/internal/app/outbox"
	"buckler/internal/infra/broker/kafka"
)

// BatchProducer sends all records of one command in a single round trip.
type BatchProducer interface {
	PublishBatch(ctx context.Context, msgs []kafka.Message) error
}

// Relay publishes records straight after the command that produced them
// commits. It backs drivers without a transactional record store; records
// that cannot be delivered are logged and dropped.
type Relay struct {
	Producer BatchProducer
	Envelope Envelope
	Logger   *slog.Logger
}

func (r *Relay) PublishRecords(ctx context.Context, records []appoutbox.EventRecord) error {
	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		payload, headers, err := r.Envelope.Format(rec)
		if err != nil {
			r.logger().Error("event envelope failed", "event_id", rec.ID, "event", rec.Name, "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Topic:   r.Envelope.Topic(rec),
			Key:     rec.Aggregate,
			Value:   payload,
			Headers: headers,
		})
	}
	if err := r.Producer.PublishBatch(ctx, msgs); err != nil {
		r.logger().Error("event relay failed", "records", len(msgs), "error", err)
	}
	return nil
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
