package sql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/daterange"
	domaintours "buckler/internal/domain/tours"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var m listingRow
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error; err != nil {
		return nil, mapErr(err, domainlistings.ErrListingNotFound)
	}
	return m.toDomain()
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	m := toListingRow(l)
	if err := saveVersioned(r.db.WithContext(ctx), &m, m.ID, &m.Version); err != nil {
		return err
	}
	l.Version = m.Version
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	var rows []listingRow
	if err := r.db.WithContext(ctx).Where("host_id = ?", string(host)).Order("id").Find(&rows).Error; err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]*domainlistings.Listing, 0, len(rows))
	for _, m := range rows {
		l, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

type TourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) *TourRepository {
	return &TourRepository{db: db}
}

func (r *TourRepository) ByID(ctx context.Context, id domaintours.TourID) (*domaintours.Tour, error) {
	var m tourRow
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error; err != nil {
		return nil, mapErr(err, domaintours.ErrTourNotFound)
	}
	return m.toDomain()
}

func (r *TourRepository) Save(ctx context.Context, t *domaintours.Tour) error {
	m := toTourRow(t)
	if err := saveVersioned(r.db.WithContext(ctx), &m, m.ID, &m.Version); err != nil {
		return err
	}
	t.Version = m.Version
	return nil
}

func (r *TourRepository) ListByOperator(ctx context.Context, operator domaintours.OperatorID) ([]*domaintours.Tour, error) {
	var rows []tourRow
	if err := r.db.WithContext(ctx).Where("operator_id = ?", string(operator)).Order("id").Find(&rows).Error; err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]*domaintours.Tour, 0, len(rows))
	for _, m := range rows {
		t, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// saveVersioned inserts a row read at version 0 and otherwise rewrites it
// only while the stored version still matches, bumping *version.
func saveVersioned(db *gorm.DB, row any, id string, version *int64) error {
	expected := *version
	*version = expected + 1
	if expected == 0 {
		if err := db.Create(row).Error; err != nil {
			*version = expected
			if isUniqueViolation(err) {
				return ErrStaleVersion
			}
			return mapErr(err, nil)
		}
		return nil
	}
	res := db.Model(row).Where("id = ? AND version = ?", id, expected).Select("*").Updates(row)
	if res.Error != nil {
		*version = expected
		return mapErr(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		*version = expected
		return ErrStaleVersion
	}
	return nil
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	m := toBookingRow(b)
	m.Version = 1
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainbooking.ErrDuplicateBooking
		}
		return mapErr(err, nil)
	}
	b.Version = m.Version
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var m bookingRow
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error; err != nil {
		return nil, mapErr(err, domainbooking.ErrBookingNotFound)
	}
	return m.toDomain()
}

func (r *BookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	m := toBookingRow(b)
	m.Version = b.Version + 1
	res := r.db.WithContext(ctx).Model(&m).
		Where("id = ? AND version = ?", m.ID, b.Version).
		Select("*").
		Updates(&m)
	if res.Error != nil {
		return mapErr(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = m.Version
	return nil
}

func (r *BookingRepository) ListByTarget(ctx context.Context, targetID string, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	q := r.db.WithContext(ctx).Where("target_id = ?", targetID)
	if len(statuses) > 0 {
		in := make([]string, 0, len(statuses))
		for _, s := range statuses {
			in = append(in, string(s))
		}
		q = q.Where("status IN ?", in)
	}
	return r.find(q)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(r.db.WithContext(ctx).Where("guest_id = ?", guestID))
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", string(status)))
}

func (r *BookingRepository) find(q *gorm.DB) ([]*domainbooking.Booking, error) {
	var rows []bookingRow
	if err := q.Order("check_in").Order("id").Find(&rows).Error; err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, m := range rows {
		b, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Range compares day keys, which sort the same way as the dates.
func (r *AvailabilityRepository) Range(ctx context.Context, targetID string, from, to time.Time) ([]domainavailability.Entry, error) {
	var rows []entryRow
	err := r.db.WithContext(ctx).
		Where("target_id = ? AND day >= ? AND day <= ?", targetID, daterange.DayKey(from), daterange.DayKey(to)).
		Order("day").
		Find(&rows).Error
	if err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]domainavailability.Entry, 0, len(rows))
	for _, m := range rows {
		e, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *AvailabilityRepository) Upsert(ctx context.Context, entries []domainavailability.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toEntryRow(e))
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "target_id"}, {Name: "day"}},
		UpdateAll: true,
	}).Create(&rows).Error
	return mapErr(err, nil)
}
