package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListByTarget(ctx context.Context, targetID string, statuses ...Status) ([]*Booking, error) {
	args := m.Called(ctx, targetID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Booking), args.Error(1)
}

/* unused methods, required by interface */

func (m *MockRepository) Create(context.Context, *Booking) error { return nil }
func (m *MockRepository) ByID(context.Context, BookingID) (*Booking, error) {
	return nil, ErrBookingNotFound
}
func (m *MockRepository) Update(context.Context, *Booking) error { return nil }
func (m *MockRepository) ListByGuest(context.Context, string) ([]*Booking, error) {
	return nil, nil
}
func (m *MockRepository) ListByStatus(context.Context, Status) ([]*Booking, error) {
	return nil, nil
}

func existing(t *testing.T, id BookingID, in, out string, status Status, guests int) *Booking {
	return &Booking{ID: id, TargetID: "lst-1", Range: stay(t, in, out), Status: status, Guests: guests}
}

func TestHasConflictHalfOpen(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByTarget", mock.Anything, "lst-1", OccupyingStatuses).Return([]*Booking{
		existing(t, "a", "2025-07-10", "2025-07-15", StatusConfirmed, 2),
	}, nil)
	checker := Checker{Bookings: repo}
	ctx := context.Background()

	conflict, err := checker.HasConflict(ctx, "lst-1", stay(t, "2025-07-14", "2025-07-18"), "")
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = checker.HasConflict(ctx, "lst-1", stay(t, "2025-07-15", "2025-07-20"), "")
	require.NoError(t, err)
	assert.False(t, conflict)

	conflict, err = checker.HasConflict(ctx, "lst-1", stay(t, "2025-07-14", "2025-07-18"), "a")
	require.NoError(t, err)
	assert.False(t, conflict)

	assert.ErrorIs(t, checker.EnsureStayFree(ctx, "lst-1", stay(t, "2025-07-11", "2025-07-12"), ""), errs.ErrConflict)
	repo.AssertExpectations(t)
}

func TestCheckerIgnoresReleasedStatuses(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByTarget", mock.Anything, "lst-1", OccupyingStatuses).Return([]*Booking{
		existing(t, "a", "2025-07-10", "2025-07-15", StatusCancelled, 2),
		existing(t, "b", "2025-07-10", "2025-07-15", StatusRejected, 2),
	}, nil)
	checker := Checker{Bookings: repo}

	conflict, err := checker.HasConflict(context.Background(), "lst-1", stay(t, "2025-07-10", "2025-07-15"), "")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestCheckerStoreFailure(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByTarget", mock.Anything, "lst-1", OccupyingStatuses).Return(nil, errors.New("socket closed"))
	checker := Checker{Bookings: repo}

	_, err := checker.HasConflict(context.Background(), "lst-1", stay(t, "2025-07-10", "2025-07-15"), "")
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
}

func TestCheckerRejectsInvalidRange(t *testing.T) {
	checker := Checker{Bookings: new(MockRepository)}
	_, err := checker.HasConflict(context.Background(), "lst-1", daterange.DateRange{}, "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestEnsureSeats(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByTarget", mock.Anything, "tour-1", OccupyingStatuses).Return([]*Booking{
		existing(t, "a", "2025-07-10", "2025-07-13", StatusConfirmed, 5),
		existing(t, "b", "2025-07-10", "2025-07-13", StatusPending, 2),
		existing(t, "c", "2025-07-20", "2025-07-23", StatusConfirmed, 8),
	}, nil)
	checker := Checker{Bookings: repo}
	ctx := context.Background()
	departure := stay(t, "2025-07-10", "2025-07-13")

	taken, err := checker.SeatsTaken(ctx, "tour-1", departure, "")
	require.NoError(t, err)
	assert.Equal(t, 7, taken)

	assert.NoError(t, checker.EnsureSeats(ctx, "tour-1", departure, 1, 8, ""))
	err = checker.EnsureSeats(ctx, "tour-1", departure, 2, 8, "")
	assert.ErrorIs(t, err, ErrSeatsTaken)
	assert.ErrorIs(t, err, errs.ErrConflict)
}
