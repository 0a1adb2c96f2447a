package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"buckler/internal/app/uow"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/errs"
	domaintours "buckler/internal/domain/tours"
)

var (
	ErrUnitClosed   = errs.New(errs.ErrStorageUnavailable, "memory: unit of work already finished")
	ErrReadOnlyUnit = errors.New("memory: write attempted in read-only unit")
)

// Store keeps every aggregate in process memory. Writable units are
// serialized by a single writer lock held from Begin until Commit or
// Rollback; read-only units never block.
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex

	listings map[domainlistings.ListingID]domainlistings.Listing
	tours    map[domaintours.TourID]domaintours.Tour
	bookings map[domainbooking.BookingID]domainbooking.Booking
	entries  map[string]map[string]domainavailability.Entry
}

func NewStore() *Store {
	return &Store{
		listings: make(map[domainlistings.ListingID]domainlistings.Listing),
		tours:    make(map[domaintours.TourID]domaintours.Tour),
		bookings: make(map[domainbooking.BookingID]domainbooking.Booking),
		entries:  make(map[string]map[string]domainavailability.Entry),
	}
}

// Begin implements uow.UoWFactory.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit := &Unit{store: s, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	s.writer.Lock()
	s.mu.RLock()
	unit.snap = s.snapshot()
	s.mu.RUnlock()
	return unit, nil
}

type snapshot struct {
	listings map[domainlistings.ListingID]domainlistings.Listing
	tours    map[domaintours.TourID]domaintours.Tour
	bookings map[domainbooking.BookingID]domainbooking.Booking
	entries  map[string]map[string]domainavailability.Entry
}

func (s *Store) snapshot() *snapshot {
	entries := make(map[string]map[string]domainavailability.Entry, len(s.entries))
	for target, days := range s.entries {
		entries[target] = maps.Clone(days)
	}
	return &snapshot{
		listings: maps.Clone(s.listings),
		tours:    maps.Clone(s.tours),
		bookings: maps.Clone(s.bookings),
		entries:  entries,
	}
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = snap.listings
	s.tours = snap.tours
	s.bookings = snap.bookings
	s.entries = snap.entries
}

// Unit is a uow.UnitOfWork over a Store.
type Unit struct {
	store    *Store
	readOnly bool
	snap     *snapshot
	done     bool
}

func (u *Unit) Listings() domainlistings.ListingRepository { return listingRepository{unit: u} }

func (u *Unit) Tours() domaintours.Repository { return tourRepository{unit: u} }

func (u *Unit) Bookings() domainbooking.Repository { return bookingRepository{unit: u} }

func (u *Unit) Availability() domainavailability.Repository { return availabilityRepository{unit: u} }

// LockTarget is a no-op: the writer lock already covers every target.
func (u *Unit) LockTarget(ctx context.Context, targetID string) error {
	return u.writable()
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.finish()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	if u.snap != nil {
		u.store.restore(u.snap)
	}
	u.finish()
	return nil
}

func (u *Unit) finish() {
	u.done = true
	u.snap = nil
	if !u.readOnly {
		u.store.writer.Unlock()
	}
}

func (u *Unit) writable() error {
	switch {
	case u.done:
		return ErrUnitClosed
	case u.readOnly:
		return ErrReadOnlyUnit
	}
	return nil
}

var _ uow.UoWFactory = (*Store)(nil)
