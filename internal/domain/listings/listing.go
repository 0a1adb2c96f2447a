package listings

import (
	"context"
	"strings"
	"time"

	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/events"
	"buckler/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errs.New(errs.ErrNotFound, "listings: listing not found")
	ErrIDRequired      = errs.New(errs.ErrValidation, "listings: id is required")
	ErrHostRequired    = errs.New(errs.ErrValidation, "listings: host is required")
	ErrTitleRequired   = errs.New(errs.ErrValidation, "listings: title is required")
	ErrGuestsLimit     = errs.New(errs.ErrValidation, "listings: guests limit must be at least 1")
	ErrNightsRange     = errs.New(errs.ErrValidation, "listings: min nights must be <= max nights")
	ErrNightlyRate     = errs.New(errs.ErrValidation, "listings: nightly rate must be non-negative")
	ErrFeeInvalid      = errs.New(errs.ErrValidation, "listings: fees must be non-negative and in the rate currency")
	ErrTooManyGuests   = errs.New(errs.ErrValidation, "listings: guests exceed listing capacity")
	ErrStayTooShort    = errs.New(errs.ErrValidation, "listings: stay shorter than minimum nights")
	ErrStayTooLong     = errs.New(errs.ErrValidation, "listings: stay longer than maximum nights")
)

type ListingID string
type HostID string

// Listing is a rentable unit priced per night.
type Listing struct {
	ID                 ListingID
	Host               HostID
	Title              string
	GuestsLimit        int
	MinNights          int
	MaxNights          int // 0 means unbounded
	NightlyRate        money.Money
	CleaningFee        *money.Money
	ServiceFee         *money.Money
	SecurityDeposit    *money.Money
	CancellationPolicy string
	InstantBook        bool
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
}

type ListingParams struct {
	ID                 ListingID
	Host               HostID
	Title              string
	GuestsLimit        int
	MinNights          int
	MaxNights          int
	NightlyRate        money.Money
	CleaningFee        *money.Money
	ServiceFee         *money.Money
	SecurityDeposit    *money.Money
	CancellationPolicy string
	InstantBook        bool
	Now                time.Time
}

func NewListing(params ListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Listing{ID: params.ID, Host: params.Host, CreatedAt: now}
	l.apply(params)
	l.Record(ListingPublishedEvent{ListingID: l.ID, HostID: l.Host, NightlyRate: l.NightlyRate, InstantBook: l.InstantBook, At: now})
	return l, nil
}

// Update replaces the listing terms. Existing bookings keep the totals they
// were quoted.
func (l *Listing) Update(params ListingParams) error {
	if err := params.validate(); err != nil {
		return err
	}
	l.apply(params)
	l.Record(ListingTermsChangedEvent{
		ListingID:   l.ID,
		NightlyRate: l.NightlyRate,
		MinNights:   l.MinNights,
		MaxNights:   l.MaxNights,
		GuestsLimit: l.GuestsLimit,
		InstantBook: l.InstantBook,
		At:          l.UpdatedAt,
	})
	return nil
}

// CheckStay validates a stay request against the listing limits. A positive
// minNightsOverride replaces the listing minimum.
func (l *Listing) CheckStay(nights, guests, minNightsOverride int) error {
	if guests > l.GuestsLimit {
		return errs.Wrapf(ErrTooManyGuests, "%d > %d", guests, l.GuestsLimit)
	}
	minNights := l.MinNights
	if minNightsOverride > 0 {
		minNights = minNightsOverride
	}
	if nights < minNights {
		return errs.Wrapf(ErrStayTooShort, "%d < %d", nights, minNights)
	}
	if l.MaxNights > 0 && nights > l.MaxNights {
		return errs.Wrapf(ErrStayTooLong, "%d > %d", nights, l.MaxNights)
	}
	return nil
}

func (l *Listing) Currency() string {
	return l.NightlyRate.Currency
}

func (l *Listing) apply(params ListingParams) {
	l.Title = strings.TrimSpace(params.Title)
	l.GuestsLimit = params.GuestsLimit
	l.MinNights = params.MinNights
	l.MaxNights = params.MaxNights
	l.NightlyRate = params.NightlyRate
	l.CleaningFee = params.CleaningFee
	l.ServiceFee = params.ServiceFee
	l.SecurityDeposit = params.SecurityDeposit
	l.CancellationPolicy = strings.TrimSpace(params.CancellationPolicy)
	l.InstantBook = params.InstantBook
	l.UpdatedAt = params.Now.UTC()
}

func (p ListingParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	if p.GuestsLimit < 1 {
		return ErrGuestsLimit
	}
	if p.MinNights < 0 || p.MaxNights < 0 || (p.MaxNights > 0 && p.MinNights > p.MaxNights) {
		return ErrNightsRange
	}
	if p.NightlyRate.Currency == "" || p.NightlyRate.IsNegative() {
		return ErrNightlyRate
	}
	for _, fee := range []*money.Money{p.CleaningFee, p.ServiceFee, p.SecurityDeposit} {
		if fee == nil {
			continue
		}
		if fee.IsNegative() || fee.Currency != p.NightlyRate.Currency {
			return ErrFeeInvalid
		}
	}
	return nil
}
