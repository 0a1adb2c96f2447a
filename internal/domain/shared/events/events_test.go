package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pinged struct{ at time.Time }

func (p pinged) EventName() string     { return "test.pinged" }
func (p pinged) AggregateID() string   { return "agg-1" }
func (p pinged) OccurredAt() time.Time { return p.at }

func TestRecorderPull(t *testing.T) {
	var r EventRecorder
	r.Record(nil)
	r.Record(pinged{at: time.Unix(10, 0)})
	r.Record(pinged{at: time.Unix(20, 0)})

	snapshot := r.PendingEvents()
	assert.Len(t, snapshot, 2)

	pulled := r.Pull()
	assert.Len(t, pulled, 2)
	assert.Empty(t, r.PendingEvents())
	assert.Len(t, snapshot, 2)
}
