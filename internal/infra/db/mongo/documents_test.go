package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"buckler/internal/app/middleware"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil, domainbooking.ErrBookingNotFound))
	assert.ErrorIs(t, mapErr(mongo.ErrNoDocuments, domainbooking.ErrBookingNotFound), domainbooking.ErrBookingNotFound)

	err := mapErr(errors.New("connection reset"), nil)
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)

	conflict := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	err = mapErr(conflict, nil)
	assert.ErrorIs(t, err, domainbooking.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestBookingDocumentKeepsDecimalAmounts(t *testing.T) {
	dr, err := daterange.New(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b := &domainbooking.Booking{
		ID:       "bk-1",
		Vertical: domainbooking.VerticalRental,
		TargetID: "lst-1",
		GuestID:  "guest-1",
		Range:    dr,
		Guests:   2,
		Total:    money.MustParse("15000.10", "KES"),
		Status:   domainbooking.StatusConfirmed,
		Policy:   domainbooking.CancellationPolicySnapshot{PolicyID: "strict", LockDays: 14},
		Version:  3,
	}

	doc := newBookingDocument(b)
	assert.Equal(t, "15000.1", doc.Total.Amount)
	assert.Nil(t, doc.SecurityDeposit)

	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(b.Total))
	assert.Equal(t, dr, got.Range)
	assert.Equal(t, 14, got.Policy.LockDays)
	assert.Nil(t, got.SecurityDeposit)
}

func TestEntryDocumentUsesDayKey(t *testing.T) {
	spots := 3
	e := domainavailability.Entry{
		TargetID:       "tour-1",
		Date:           time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		IsAvailable:    true,
		AvailableSpots: &spots,
	}
	doc := newEntryDocument(e)
	assert.Equal(t, "tour-1:2025-08-01", doc.ID)
	assert.Equal(t, "2025-08-01", doc.Day)

	got, err := doc.toEntry()
	require.NoError(t, err)
	assert.Equal(t, e.Date, got.Date)
	require.NotNil(t, got.AvailableSpots)
	assert.Equal(t, 3, *got.AvailableSpots)
}

func TestIdempotencyDocumentMarksOnlyClaims(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	claim := newIdempotencyDocument(middleware.IdempotencyRecord{Key: "k1", Fingerprint: "fp", Pending: true, OccurredAt: at})
	raw, err := bson.Marshal(claim)
	require.NoError(t, err)
	assert.Equal(t, true, bson.Raw(raw).Lookup("pending").Boolean())

	done := newIdempotencyDocument(middleware.IdempotencyRecord{Key: "k1", Fingerprint: "fp", Payload: []byte(`{}`), OccurredAt: at})
	raw, err = bson.Marshal(done)
	require.NoError(t, err)
	_, lookupErr := bson.Raw(raw).LookupErr("pending")
	assert.Error(t, lookupErr)
	assert.False(t, done.toRecord().Pending)
	assert.Equal(t, "k1", done.toRecord().Key)
}
