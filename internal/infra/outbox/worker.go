package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the claim/ack surface of the record store.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker drains committed records from the queue into the producer.
type Worker struct {
	Queue    Queue
	Producer Producer
	Envelope Envelope
	Interval time.Duration
	ID       string
	Backoff  []time.Duration
	Logger   *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				sent, err := w.ProcessOnce(ctx)
				if err != nil {
					w.logger().Warn("outbox claim failed", "error", err)
					break
				}
				if !sent {
					break
				}
			}
		}
	}
}

// ProcessOnce publishes at most one due record. It reports whether a record
// was claimed.
func (w *Worker) ProcessOnce(ctx context.Context) (bool, error) {
	doc, err := w.Queue.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, err
	}
	rec := doc.Record()
	payload, headers, err := w.Envelope.Format(rec)
	if err != nil {
		return true, w.fail(ctx, doc, err)
	}
	if err := w.Producer.Publish(ctx, w.Envelope.Topic(rec), rec.Aggregate, payload, headers); err != nil {
		return true, w.fail(ctx, doc, err)
	}
	return true, w.Queue.MarkSent(ctx, doc.ID)
}

func (w *Worker) fail(ctx context.Context, doc *EventDocument, cause error) error {
	next := w.nextRetry(doc.Attempts)
	w.logger().Warn("outbox publish failed",
		"event_id", doc.ID,
		"event", doc.Name,
		"attempts", doc.Attempts+1,
		"next_attempt_at", next,
		"error", cause,
	)
	return w.Queue.MarkFailed(ctx, doc.ID, next, cause.Error())
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
