package booking

import (
	"buckler/internal/domain/shared/errs"
)

var ErrInvalidTransition = errs.New(errs.ErrInvalidStateTransition, "booking: invalid state transition")

// Status is shared by rental and tour bookings.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// Operation is a lifecycle command applied by a provider, guest or sweeper.
type Operation string

const (
	OpApprove  Operation = "approve"
	OpReject   Operation = "reject"
	OpCancel   Operation = "cancel"
	OpComplete Operation = "complete"
)

// OccupyingStatuses reserve calendar capacity.
var OccupyingStatuses = []Status{StatusPending, StatusConfirmed}

var transitions = map[Status]map[Operation]Status{
	StatusPending: {
		OpApprove: StatusConfirmed,
		OpReject:  StatusRejected,
		OpCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		OpReject:   StatusRejected,
		OpCancel:   StatusCancelled,
		OpComplete: StatusCompleted,
	},
}

// Next returns the status op leads to, or ErrInvalidTransition.
func (s Status) Next(op Operation) (Status, error) {
	if next, ok := transitions[s][op]; ok {
		return next, nil
	}
	return "", errs.Wrapf(ErrInvalidTransition, "%s from %s", op, s)
}

func (s Status) Occupying() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// ParseStatus accepts the upper-case names above.
func ParseStatus(v string) (Status, bool) {
	switch s := Status(v); s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected, StatusCompleted:
		return s, true
	}
	return "", false
}
