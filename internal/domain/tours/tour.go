// Package tours models guided multi-day departures sold per participant.
package tours

import (
	"context"
	"strings"
	"time"

	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/events"
	"buckler/internal/domain/shared/money"
)

var (
	ErrTourNotFound       = errs.New(errs.ErrNotFound, "tours: tour not found")
	ErrIDRequired         = errs.New(errs.ErrValidation, "tours: id is required")
	ErrOperatorRequired   = errs.New(errs.ErrValidation, "tours: operator is required")
	ErrTitleRequired      = errs.New(errs.ErrValidation, "tours: title is required")
	ErrMaxParticipants    = errs.New(errs.ErrValidation, "tours: max participants must be at least 1")
	ErrDuration           = errs.New(errs.ErrValidation, "tours: duration must be at least 1 day")
	ErrPrice              = errs.New(errs.ErrValidation, "tours: price per participant must be non-negative")
	ErrInvalidParticipant = errs.New(errs.ErrValidation, "tours: invalid participant count")
)

type TourID string
type OperatorID string

type Tour struct {
	ID                  TourID
	Operator            OperatorID
	Title               string
	MaxParticipants     int
	PricePerParticipant money.Money
	DurationDays        int
	CancellationPolicy  string
	InstantBook         bool
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id TourID) (*Tour, error)
	Save(ctx context.Context, tour *Tour) error
	ListByOperator(ctx context.Context, operator OperatorID) ([]*Tour, error)
}

type TourParams struct {
	ID                  TourID
	Operator            OperatorID
	Title               string
	MaxParticipants     int
	PricePerParticipant money.Money
	DurationDays        int
	CancellationPolicy  string
	InstantBook         bool
	Now                 time.Time
}

func NewTour(params TourParams) (*Tour, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Operator)) == "" {
		return nil, ErrOperatorRequired
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	t := &Tour{ID: params.ID, Operator: params.Operator, CreatedAt: now}
	t.apply(params)
	t.Record(TourPublishedEvent{
		TourID:              t.ID,
		OperatorID:          t.Operator,
		PricePerParticipant: t.PricePerParticipant,
		MaxParticipants:     t.MaxParticipants,
		At:                  now,
	})
	return t, nil
}

func (t *Tour) Update(params TourParams) error {
	if err := params.validate(); err != nil {
		return err
	}
	t.apply(params)
	t.Record(TourTermsChangedEvent{
		TourID:              t.ID,
		PricePerParticipant: t.PricePerParticipant,
		MaxParticipants:     t.MaxParticipants,
		DurationDays:        t.DurationDays,
		InstantBook:         t.InstantBook,
		At:                  t.UpdatedAt,
	})
	return nil
}

// Range is the interval a departure on date occupies.
func (t *Tour) Range(date time.Time) (daterange.DateRange, error) {
	start := daterange.Truncate(date)
	days := t.DurationDays
	if days < 1 {
		days = 1
	}
	return daterange.New(start, start.AddDate(0, 0, days))
}

// CheckParticipants enforces 1 <= participants <= MaxParticipants.
func (t *Tour) CheckParticipants(participants int) error {
	if participants < 1 || participants > t.MaxParticipants {
		return errs.Wrapf(ErrInvalidParticipant, "%d not in [1, %d]", participants, t.MaxParticipants)
	}
	return nil
}

func (t *Tour) apply(params TourParams) {
	t.Title = strings.TrimSpace(params.Title)
	t.MaxParticipants = params.MaxParticipants
	t.PricePerParticipant = params.PricePerParticipant
	t.DurationDays = params.DurationDays
	t.CancellationPolicy = strings.TrimSpace(params.CancellationPolicy)
	t.InstantBook = params.InstantBook
	t.UpdatedAt = params.Now.UTC()
}

func (p TourParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	if p.MaxParticipants < 1 {
		return ErrMaxParticipants
	}
	if p.DurationDays < 1 {
		return ErrDuration
	}
	if p.PricePerParticipant.Currency == "" || p.PricePerParticipant.IsNegative() {
		return ErrPrice
	}
	return nil
}
