package memory

import (
	"context"
	"sort"
	"time"

	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/events"
	domaintours "buckler/internal/domain/tours"
)

// Repositories hand out copies, so callers never alias stored state and a
// rollback can restore the maps wholesale.

type listingRepository struct{ unit *Unit }

func (r listingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return &listing, nil
}

func (r listingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	s := r.unit.store
	s.mu.Lock()
	defer s.mu.Unlock()
	listing.Version++
	stored := *listing
	stored.EventRecorder = events.EventRecorder{}
	s.listings[listing.ID] = stored
	return nil
}

func (r listingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domainlistings.Listing
	for _, l := range s.listings {
		if l.Host == host {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type tourRepository struct{ unit *Unit }

func (r tourRepository) ByID(ctx context.Context, id domaintours.TourID) (*domaintours.Tour, error) {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	tour, ok := s.tours[id]
	if !ok {
		return nil, domaintours.ErrTourNotFound
	}
	return &tour, nil
}

func (r tourRepository) Save(ctx context.Context, tour *domaintours.Tour) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	s := r.unit.store
	s.mu.Lock()
	defer s.mu.Unlock()
	tour.Version++
	stored := *tour
	stored.EventRecorder = events.EventRecorder{}
	s.tours[tour.ID] = stored
	return nil
}

func (r tourRepository) ListByOperator(ctx context.Context, operator domaintours.OperatorID) ([]*domaintours.Tour, error) {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domaintours.Tour
	for _, t := range s.tours {
		if t.Operator == operator {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type bookingRepository struct{ unit *Unit }

func (r bookingRepository) Create(ctx context.Context, booking *domainbooking.Booking) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	s := r.unit.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookings[booking.ID]; exists {
		return domainbooking.ErrDuplicateBooking
	}
	booking.Version = 1
	s.bookings[booking.ID] = detachBooking(booking)
	return nil
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return &booking, nil
}

func (r bookingRepository) Update(ctx context.Context, booking *domainbooking.Booking) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	s := r.unit.store
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.bookings[booking.ID]
	if !ok {
		return domainbooking.ErrBookingNotFound
	}
	if current.Version != booking.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	booking.Version++
	s.bookings[booking.ID] = detachBooking(booking)
	return nil
}

func (r bookingRepository) ListByTarget(ctx context.Context, targetID string, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.list(func(b domainbooking.Booking) bool {
		return b.TargetID == targetID && matchesStatus(b.Status, statuses)
	}), nil
}

func (r bookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (r bookingRepository) ListByStatus(ctx context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.list(func(b domainbooking.Booking) bool { return b.Status == status }), nil
}

func (r bookingRepository) list(keep func(domainbooking.Booking) bool) []*domainbooking.Booking {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range s.bookings {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.CheckIn.Equal(out[j].Range.CheckIn) {
			return out[i].ID < out[j].ID
		}
		return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
	})
	return out
}

func detachBooking(b *domainbooking.Booking) domainbooking.Booking {
	stored := *b
	stored.EventRecorder = events.EventRecorder{}
	return stored
}

func matchesStatus(status domainbooking.Status, statuses []domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type availabilityRepository struct{ unit *Unit }

func (r availabilityRepository) Range(ctx context.Context, targetID string, from, to time.Time) ([]domainavailability.Entry, error) {
	s := r.unit.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to = daterange.Truncate(from), daterange.Truncate(to)
	var out []domainavailability.Entry
	for _, e := range s.entries[targetID] {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r availabilityRepository) Upsert(ctx context.Context, entries []domainavailability.Entry) error {
	if err := r.unit.writable(); err != nil {
		return err
	}
	s := r.unit.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		e.Date = daterange.Truncate(e.Date)
		days, ok := s.entries[e.TargetID]
		if !ok {
			days = make(map[string]domainavailability.Entry)
			s.entries[e.TargetID] = days
		}
		days[e.Key()] = e
	}
	return nil
}
