package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

func validParams() ListingParams {
	cleaning := money.MustParse("1500", "KES")
	return ListingParams{
		ID:                 "lst-1",
		Host:               "host-1",
		Title:              "  Kilimani loft ",
		GuestsLimit:        4,
		MinNights:          2,
		MaxNights:          14,
		NightlyRate:        money.MustParse("5000", "KES"),
		CleaningFee:        &cleaning,
		CancellationPolicy: "moderate",
		Now:                time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewListing(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)
	assert.Equal(t, "Kilimani loft", l.Title)
	assert.Equal(t, "KES", l.Currency())
	require.Len(t, l.PendingEvents(), 1)
	published, ok := l.PendingEvents()[0].(ListingPublishedEvent)
	require.True(t, ok)
	assert.Equal(t, "listing.published", published.EventName())
	assert.True(t, published.NightlyRate.Equal(l.NightlyRate))
}

func TestNewListingValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*ListingParams)
		want   error
	}{
		"no title":       {func(p *ListingParams) { p.Title = " " }, ErrTitleRequired},
		"no guests":      {func(p *ListingParams) { p.GuestsLimit = 0 }, ErrGuestsLimit},
		"nights swapped": {func(p *ListingParams) { p.MinNights = 20 }, ErrNightsRange},
		"negative rate":  {func(p *ListingParams) { p.NightlyRate = money.MustParse("-1", "KES") }, ErrNightlyRate},
		"fee currency": {func(p *ListingParams) {
			fee := money.MustParse("10", "USD")
			p.ServiceFee = &fee
		}, ErrFeeInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			_, err := NewListing(p)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestUnboundedMaxNights(t *testing.T) {
	p := validParams()
	p.MaxNights = 0
	p.MinNights = 30
	l, err := NewListing(p)
	require.NoError(t, err)
	assert.NoError(t, l.CheckStay(90, 1, 0))
}

func TestCheckStay(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)

	assert.NoError(t, l.CheckStay(2, 4, 0))
	assert.ErrorIs(t, l.CheckStay(2, 5, 0), ErrTooManyGuests)
	assert.ErrorIs(t, l.CheckStay(1, 1, 0), ErrStayTooShort)
	assert.ErrorIs(t, l.CheckStay(15, 1, 0), ErrStayTooLong)
	assert.ErrorIs(t, l.CheckStay(2, 1, 3), ErrStayTooShort)
	assert.NoError(t, l.CheckStay(1, 1, 1))
}

func TestUpdateRecordsEvent(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)
	l.ClearEvents()

	p := validParams()
	p.Title = "Renamed"
	p.Now = p.Now.Add(time.Hour)
	require.NoError(t, l.Update(p))
	assert.Equal(t, "Renamed", l.Title)
	assert.Equal(t, p.Now, l.UpdatedAt)
	require.Len(t, l.PendingEvents(), 1)
	changed, ok := l.PendingEvents()[0].(ListingTermsChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "listing.terms_changed", changed.EventName())
	assert.Equal(t, p.MinNights, changed.MinNights)
	assert.Equal(t, p.Now, changed.At)
}
