package availability

import (
	"time"
)

type AvailabilityReconciled struct {
	TargetID string
	From     time.Time
	To       time.Time
	Created  int
	Updated  int
	At       time.Time
}

func (e AvailabilityReconciled) EventName() string     { return "availability.reconciled" }
func (e AvailabilityReconciled) AggregateID() string   { return e.TargetID }
func (e AvailabilityReconciled) OccurredAt() time.Time { return e.At }
