package booking

import (
	"fmt"
	"strings"
	"time"

	"buckler/internal/domain/shared/errs"
)

var (
	ErrNotCancellable = errs.New(errs.ErrNotCancellable, "booking: not cancellable")
	ErrUnknownPolicy  = errs.New(errs.ErrValidation, "booking: unknown cancellation policy")
)

const (
	PolicyFlexible = "flexible"
	PolicyModerate = "moderate"
	PolicyStrict   = "strict"
)

// CancellationPolicySnapshot is copied onto the booking at request time so later
// listing edits do not change the terms a guest accepted.
type CancellationPolicySnapshot struct {
	PolicyID string
	LockDays int
}

var presets = map[string]CancellationPolicySnapshot{
	PolicyFlexible: {PolicyID: PolicyFlexible, LockDays: 0},
	PolicyModerate: {PolicyID: PolicyModerate, LockDays: 5},
	PolicyStrict:   {PolicyID: PolicyStrict, LockDays: 14},
}

// PolicyByName resolves a preset. An empty name means flexible.
func PolicyByName(name string) (CancellationPolicySnapshot, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = PolicyFlexible
	}
	p, ok := presets[name]
	if !ok {
		return CancellationPolicySnapshot{}, errs.Wrapf(ErrUnknownPolicy, "%q", name)
	}
	return p, nil
}

// Check refuses cancellation at or after check-in and inside the lock window
// preceding it. The error carries the reason shown to the caller.
func (c CancellationPolicySnapshot) Check(now, checkIn time.Time) error {
	if !now.Before(checkIn) {
		return errs.Wrapf(ErrNotCancellable, "check-in has passed")
	}
	if c.LockDays <= 0 {
		return nil
	}
	lockStart := checkIn.AddDate(0, 0, -c.LockDays)
	if !now.Before(lockStart) {
		return errs.Wrapf(ErrNotCancellable, "%s policy locks the last %s before check-in", c.name(), pluralDays(c.LockDays))
	}
	return nil
}

func (c CancellationPolicySnapshot) name() string {
	if c.PolicyID == "" {
		return "booking"
	}
	return c.PolicyID
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
