package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appoutbox "buckler/internal/app/outbox"
	"buckler/internal/infra/broker/kafka"
)

type queueMock struct{ mock.Mock }

func (m *queueMock) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	args := m.Called(ctx, workerID)
	doc, _ := args.Get(0).(*EventDocument)
	return doc, args.Error(1)
}

func (m *queueMock) MarkSent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *queueMock) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return m.Called(ctx, id, next, errMsg).Error(0)
}

type producerMock struct{ mock.Mock }

func (m *producerMock) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	return m.Called(ctx, topic, key, payload, headers).Error(0)
}

func (m *producerMock) PublishBatch(ctx context.Context, msgs []kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func approvedDoc() *EventDocument {
	return &EventDocument{
		ID:         "evt-1",
		Name:       "booking.approved",
		Payload:    []byte(`{"booking_id":"bkg-1"}`),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Aggregate:  "bkg-1",
		Headers:    map[string]string{"traceparent": "00-abc"},
	}
}

func TestWorkerPublishesAndMarksSent(t *testing.T) {
	ctx := context.Background()
	q := &queueMock{}
	p := &producerMock{}
	q.On("Claim", ctx, "w-1").Return(approvedDoc(), nil).Once()
	q.On("MarkSent", ctx, "evt-1").Return(nil).Once()
	p.On("Publish", ctx, "test.booking.events.v1", "bkg-1", mock.Anything, mock.Anything).Return(nil).Once()

	w := &Worker{Queue: q, Producer: p, Envelope: Envelope{TopicPrefix: "test."}, ID: "w-1"}
	sent, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)

	call := p.Calls[0]
	var evt map[string]any
	require.NoError(t, json.Unmarshal(call.Arguments.Get(3).([]byte), &evt))
	assert.Equal(t, "booking.approved.v1", evt["type"])
	assert.Equal(t, "app://buckler", evt["source"])
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "00-abc", evt["traceparent"])
	assert.Equal(t, map[string]any{"booking_id": "bkg-1"}, evt["data"])
	headers := call.Arguments.Get(4).(map[string]string)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	q.AssertExpectations(t)
	p.AssertExpectations(t)
}

func TestWorkerSchedulesRetryOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	q := &queueMock{}
	p := &producerMock{}
	doc := approvedDoc()
	doc.Attempts = 1
	q.On("Claim", ctx, "w-1").Return(doc, nil).Once()
	p.On("Publish", ctx, "booking.events.v1", "bkg-1", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	before := time.Now()
	q.On("MarkFailed", ctx, "evt-1", mock.MatchedBy(func(next time.Time) bool {
		return !next.Before(before.Add(5 * time.Second))
	}), "broker down").Return(nil).Once()

	w := &Worker{Queue: q, Producer: p, ID: "w-1", Backoff: []time.Duration{time.Second, 5 * time.Second}}
	sent, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	q.AssertExpectations(t)
}

func TestWorkerIdleWhenNothingDue(t *testing.T) {
	ctx := context.Background()
	q := &queueMock{}
	q.On("Claim", ctx, "w-1").Return(nil, nil).Once()
	w := &Worker{Queue: q, Producer: &producerMock{}, ID: "w-1"}
	sent, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}

func TestRelayPublishesOneBatch(t *testing.T) {
	ctx := appoutbox.WithHeaders(context.Background(), map[string]string{appoutbox.HeaderRequestID: "req-1"})
	p := &producerMock{}
	p.On("PublishBatch", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 2 &&
			msgs[0].Topic == "booking.events.v1" && msgs[0].Key == "bkg-1" &&
			msgs[1].Topic == "listing.events.v1" && msgs[1].Key == "lst-1"
	})).Return(errors.New("broker down")).Once()

	r := &Relay{Producer: p}
	err := r.PublishRecords(ctx, []appoutbox.EventRecord{
		approvedDoc().Record(),
		{ID: "evt-2", Name: "listing.published", Payload: []byte(`{}`), Aggregate: "lst-1"},
	})
	require.NoError(t, err)
	p.AssertExpectations(t)
}
