package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/app/middleware"
	appoutbox "buckler/internal/app/outbox"
	"buckler/internal/app/uow"
	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

func newBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 3))
	require.NoError(t, err)
	policy, err := domainbooking.PolicyByName("")
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		Vertical:  domainbooking.VerticalRental,
		TargetID:  "lst-1",
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		Total:     money.MustParse("15000", "KES"),
		Policy:    policy,
		CreatedAt: checkIn.AddDate(0, 0, -10),
	})
	require.NoError(t, err)
	return b
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Create(ctx, newBooking(t, "bkg-1")))
	require.NoError(t, unit.Rollback(ctx))

	reader, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	_, err = reader.Bookings().ByID(ctx, "bkg-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	require.NoError(t, reader.Rollback(ctx))
}

func TestCommitKeepsWritesAndVersions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	b := newBooking(t, "bkg-1")
	require.NoError(t, unit.Bookings().Create(ctx, b))
	assert.Equal(t, int64(1), b.Version)
	assert.ErrorIs(t, unit.Bookings().Create(ctx, newBooking(t, "bkg-1")), domainbooking.ErrDuplicateBooking)
	require.NoError(t, unit.Commit(ctx))
	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)

	unit, err = store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	stale, err := unit.Bookings().ByID(ctx, "bkg-1")
	require.NoError(t, err)
	fresh, err := unit.Bookings().ByID(ctx, "bkg-1")
	require.NoError(t, err)
	require.NoError(t, fresh.Approve(time.Now()))
	require.NoError(t, unit.Bookings().Update(ctx, fresh))
	require.NoError(t, stale.Cancel("late", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	err = unit.Bookings().Update(ctx, stale)
	assert.ErrorIs(t, err, domainbooking.ErrConcurrentUpdate)
	assert.ErrorIs(t, err, errs.ErrConflict)
	require.NoError(t, unit.Commit(ctx))
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	unit, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Bookings().Create(ctx, newBooking(t, "bkg-1")), ErrReadOnlyUnit)
	assert.ErrorIs(t, unit.LockTarget(ctx, "lst-1"), ErrReadOnlyUnit)
	require.NoError(t, unit.Rollback(ctx))
}

func TestListByTargetFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Bookings().Create(ctx, newBooking(t, "bkg-2")))
	require.NoError(t, unit.Bookings().Create(ctx, newBooking(t, "bkg-1")))
	require.NoError(t, unit.Commit(ctx))

	reader, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	pending, err := reader.Bookings().ListByTarget(ctx, "lst-1", domainbooking.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domainbooking.BookingID("bkg-1"), pending[0].ID)
	confirmed, err := reader.Bookings().ListByTarget(ctx, "lst-1", domainbooking.StatusConfirmed)
	require.NoError(t, err)
	assert.Empty(t, confirmed)
}

type recordingPublisher struct {
	batches [][]appoutbox.EventRecord
}

func (p *recordingPublisher) PublishRecords(ctx context.Context, records []appoutbox.EventRecord) error {
	p.batches = append(p.batches, records)
	return nil
}

func TestOutboxScopesBuffersPerCommand(t *testing.T) {
	pub := &recordingPublisher{}
	box := NewOutbox(pub)
	first := box.Scope(context.Background())
	second := box.Scope(context.Background())

	require.NoError(t, box.Add(first, appoutbox.EventRecord{ID: "1", Name: "booking.requested"}))
	require.NoError(t, box.Add(second, appoutbox.EventRecord{ID: "2", Name: "booking.requested"}))
	box.Discard(second)
	require.NoError(t, box.Flush(second))
	require.NoError(t, box.Flush(first))

	sent := box.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "1", sent[0].ID)
	require.Len(t, pub.batches, 1)
}

func TestIdempotencyRecordsExpire(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte(`{}`), OccurredAt: now}))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Hour)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, store.items)
}

func TestIdempotencyClaimHoldsKey(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	claim := middleware.IdempotencyRecord{Key: "k", Pending: true, OccurredAt: now}
	ok, err := store.Claim(ctx, claim)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Claim(ctx, claim)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Release(ctx, "k"))
	ok, err = store.Claim(ctx, claim)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * middleware.PendingLease)
	ok, err = store.Claim(ctx, middleware.IdempotencyRecord{Key: "k", Pending: true, OccurredAt: now})
	require.NoError(t, err)
	assert.True(t, ok, "a stale claim is taken over")

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte(`{}`), OccurredAt: now}))
	require.NoError(t, store.Release(ctx, "k"))
	rec, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, rec.Pending)
	ok, err = store.Claim(ctx, middleware.IdempotencyRecord{Key: "k", Pending: true, OccurredAt: now})
	require.NoError(t, err)
	assert.False(t, ok)
}
