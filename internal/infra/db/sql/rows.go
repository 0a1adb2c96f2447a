package sql

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
	domaintours "buckler/internal/domain/tours"
)

var ErrStaleVersion = errs.New(errs.ErrConflict, "sql: row changed since it was read")

// Timestamps are unix milliseconds and amounts decimal strings, so both
// drivers round-trip them exactly.

type listingRow struct {
	ID                 string  `gorm:"column:id;primaryKey"`
	HostID             string  `gorm:"column:host_id;index"`
	Title              string  `gorm:"column:title"`
	GuestsLimit        int     `gorm:"column:guests_limit"`
	MinNights          int     `gorm:"column:min_nights"`
	MaxNights          int     `gorm:"column:max_nights"`
	Currency           string  `gorm:"column:currency"`
	NightlyRate        string  `gorm:"column:nightly_rate"`
	CleaningFee        *string `gorm:"column:cleaning_fee"`
	ServiceFee         *string `gorm:"column:service_fee"`
	SecurityDeposit    *string `gorm:"column:security_deposit"`
	CancellationPolicy string  `gorm:"column:cancellation_policy"`
	InstantBook        bool    `gorm:"column:instant_book"`
	CreatedAt          int64   `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt          int64   `gorm:"column:updated_at;autoUpdateTime:false"`
	Version            int64   `gorm:"column:version"`
}

func (listingRow) TableName() string { return "listings" }

func toListingRow(l *domainlistings.Listing) listingRow {
	return listingRow{
		ID:                 string(l.ID),
		HostID:             string(l.Host),
		Title:              l.Title,
		GuestsLimit:        l.GuestsLimit,
		MinNights:          l.MinNights,
		MaxNights:          l.MaxNights,
		Currency:           l.NightlyRate.Currency,
		NightlyRate:        l.NightlyRate.Amount.String(),
		CleaningFee:        amountPtr(l.CleaningFee),
		ServiceFee:         amountPtr(l.ServiceFee),
		SecurityDeposit:    amountPtr(l.SecurityDeposit),
		CancellationPolicy: l.CancellationPolicy,
		InstantBook:        l.InstantBook,
		CreatedAt:          l.CreatedAt.UnixMilli(),
		UpdatedAt:          l.UpdatedAt.UnixMilli(),
		Version:            l.Version,
	}
}

func (m listingRow) toDomain() (*domainlistings.Listing, error) {
	rate, err := money.Parse(m.NightlyRate, m.Currency)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	l := &domainlistings.Listing{
		ID:                 domainlistings.ListingID(m.ID),
		Host:               domainlistings.HostID(m.HostID),
		Title:              m.Title,
		GuestsLimit:        m.GuestsLimit,
		MinNights:          m.MinNights,
		MaxNights:          m.MaxNights,
		NightlyRate:        rate,
		CancellationPolicy: m.CancellationPolicy,
		InstantBook:        m.InstantBook,
		CreatedAt:          fromMillis(m.CreatedAt),
		UpdatedAt:          fromMillis(m.UpdatedAt),
		Version:            m.Version,
	}
	if l.CleaningFee, err = moneyPtr(m.CleaningFee, m.Currency); err != nil {
		return nil, err
	}
	if l.ServiceFee, err = moneyPtr(m.ServiceFee, m.Currency); err != nil {
		return nil, err
	}
	if l.SecurityDeposit, err = moneyPtr(m.SecurityDeposit, m.Currency); err != nil {
		return nil, err
	}
	return l, nil
}

type tourRow struct {
	ID                  string `gorm:"column:id;primaryKey"`
	OperatorID          string `gorm:"column:operator_id;index"`
	Title               string `gorm:"column:title"`
	MaxParticipants     int    `gorm:"column:max_participants"`
	Currency            string `gorm:"column:currency"`
	PricePerParticipant string `gorm:"column:price_per_participant"`
	DurationDays        int    `gorm:"column:duration_days"`
	CancellationPolicy  string `gorm:"column:cancellation_policy"`
	InstantBook         bool   `gorm:"column:instant_book"`
	CreatedAt           int64  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt           int64  `gorm:"column:updated_at;autoUpdateTime:false"`
	Version             int64  `gorm:"column:version"`
}

func (tourRow) TableName() string { return "tours" }

func toTourRow(t *domaintours.Tour) tourRow {
	return tourRow{
		ID:                  string(t.ID),
		OperatorID:          string(t.Operator),
		Title:               t.Title,
		MaxParticipants:     t.MaxParticipants,
		Currency:            t.PricePerParticipant.Currency,
		PricePerParticipant: t.PricePerParticipant.Amount.String(),
		DurationDays:        t.DurationDays,
		CancellationPolicy:  t.CancellationPolicy,
		InstantBook:         t.InstantBook,
		CreatedAt:           t.CreatedAt.UnixMilli(),
		UpdatedAt:           t.UpdatedAt.UnixMilli(),
		Version:             t.Version,
	}
}

func (m tourRow) toDomain() (*domaintours.Tour, error) {
	price, err := money.Parse(m.PricePerParticipant, m.Currency)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return &domaintours.Tour{
		ID:                  domaintours.TourID(m.ID),
		Operator:            domaintours.OperatorID(m.OperatorID),
		Title:               m.Title,
		MaxParticipants:     m.MaxParticipants,
		PricePerParticipant: price,
		DurationDays:        m.DurationDays,
		CancellationPolicy:  m.CancellationPolicy,
		InstantBook:         m.InstantBook,
		CreatedAt:           fromMillis(m.CreatedAt),
		UpdatedAt:           fromMillis(m.UpdatedAt),
		Version:             m.Version,
	}, nil
}

type bookingRow struct {
	ID              string  `gorm:"column:id;primaryKey"`
	Vertical        string  `gorm:"column:vertical"`
	TargetID        string  `gorm:"column:target_id;index:idx_bookings_target_status"`
	GuestID         string  `gorm:"column:guest_id;index"`
	CheckIn         int64   `gorm:"column:check_in"`
	CheckOut        int64   `gorm:"column:check_out"`
	Guests          int     `gorm:"column:guests"`
	Currency        string  `gorm:"column:currency"`
	Total           string  `gorm:"column:total"`
	SecurityDeposit *string `gorm:"column:security_deposit"`
	Status          string  `gorm:"column:status;index:idx_bookings_target_status"`
	Reason          string  `gorm:"column:reason"`
	PolicyID        string  `gorm:"column:policy_id"`
	PolicyLockDays  int     `gorm:"column:policy_lock_days"`
	CreatedAt       int64   `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt       int64   `gorm:"column:updated_at;autoUpdateTime:false"`
	Version         int64   `gorm:"column:version"`
}

func (bookingRow) TableName() string { return "bookings" }

func toBookingRow(b *domainbooking.Booking) bookingRow {
	return bookingRow{
		ID:              string(b.ID),
		Vertical:        string(b.Vertical),
		TargetID:        b.TargetID,
		GuestID:         b.GuestID,
		CheckIn:         b.Range.CheckIn.UnixMilli(),
		CheckOut:        b.Range.CheckOut.UnixMilli(),
		Guests:          b.Guests,
		Currency:        b.Total.Currency,
		Total:           b.Total.Amount.String(),
		SecurityDeposit: amountPtr(b.SecurityDeposit),
		Status:          string(b.Status),
		Reason:          b.Reason,
		PolicyID:        b.Policy.PolicyID,
		PolicyLockDays:  b.Policy.LockDays,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (m bookingRow) toDomain() (*domainbooking.Booking, error) {
	total, err := money.Parse(m.Total, m.Currency)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	deposit, err := moneyPtr(m.SecurityDeposit, m.Currency)
	if err != nil {
		return nil, err
	}
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(m.ID),
		Vertical:        domainbooking.Vertical(m.Vertical),
		TargetID:        m.TargetID,
		GuestID:         m.GuestID,
		Range:           daterange.DateRange{CheckIn: fromMillis(m.CheckIn), CheckOut: fromMillis(m.CheckOut)},
		Guests:          m.Guests,
		Total:           total,
		SecurityDeposit: deposit,
		Status:          domainbooking.Status(m.Status),
		Reason:          m.Reason,
		Policy:          domainbooking.CancellationPolicySnapshot{PolicyID: m.PolicyID, LockDays: m.PolicyLockDays},
		CreatedAt:       fromMillis(m.CreatedAt),
		UpdatedAt:       fromMillis(m.UpdatedAt),
		Version:         m.Version,
	}, nil
}

type entryRow struct {
	TargetID          string  `gorm:"column:target_id;primaryKey"`
	Day               string  `gorm:"column:day;primaryKey"`
	IsAvailable       bool    `gorm:"column:is_available"`
	Currency          *string `gorm:"column:currency"`
	PriceOverride     *string `gorm:"column:price_override"`
	MinNightsOverride *int    `gorm:"column:min_nights_override"`
	AvailableSpots    *int    `gorm:"column:available_spots"`
	CreatedAt         int64   `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt         int64   `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (entryRow) TableName() string { return "availability_entries" }

func toEntryRow(e domainavailability.Entry) entryRow {
	row := entryRow{
		TargetID:          e.TargetID,
		Day:               e.Key(),
		IsAvailable:       e.IsAvailable,
		MinNightsOverride: e.MinNightsOverride,
		AvailableSpots:    e.AvailableSpots,
		CreatedAt:         e.CreatedAt.UnixMilli(),
		UpdatedAt:         e.UpdatedAt.UnixMilli(),
	}
	if e.PriceOverride != nil {
		cur := e.PriceOverride.Currency
		row.Currency = &cur
		row.PriceOverride = amountPtr(e.PriceOverride)
	}
	return row
}

func (m entryRow) toDomain() (domainavailability.Entry, error) {
	day, err := daterange.ParseDay(m.Day)
	if err != nil {
		return domainavailability.Entry{}, errs.Unavailable(err)
	}
	e := domainavailability.Entry{
		TargetID:          m.TargetID,
		Date:              day,
		IsAvailable:       m.IsAvailable,
		MinNightsOverride: m.MinNightsOverride,
		AvailableSpots:    m.AvailableSpots,
		CreatedAt:         fromMillis(m.CreatedAt),
		UpdatedAt:         fromMillis(m.UpdatedAt),
	}
	if m.PriceOverride != nil && m.Currency != nil {
		if e.PriceOverride, err = moneyPtr(m.PriceOverride, *m.Currency); err != nil {
			return domainavailability.Entry{}, err
		}
	}
	return e, nil
}

type targetLockRow struct {
	TargetID string `gorm:"column:target_id;primaryKey"`
}

func (targetLockRow) TableName() string { return "target_locks" }

type idempotencyRow struct {
	Key         string `gorm:"column:idem_key;primaryKey"`
	Fingerprint string `gorm:"column:fingerprint"`
	Pending     bool   `gorm:"column:pending"`
	Payload     []byte `gorm:"column:payload"`
	Error       string `gorm:"column:error"`
	ErrorKind   string `gorm:"column:error_kind"`
	OccurredAt  int64  `gorm:"column:occurred_at"`
}

func (idempotencyRow) TableName() string { return "app_idempotency" }

func amountPtr(m *money.Money) *string {
	if m == nil {
		return nil
	}
	s := m.Amount.String()
	return &s
}

func moneyPtr(amount *string, currency string) (*money.Money, error) {
	if amount == nil {
		return nil, nil
	}
	m, err := money.Parse(*amount, currency)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return &m, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapErr turns driver failures into the error taxonomy; notFound replaces
// gorm.ErrRecordNotFound.
func mapErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	}
	return errs.Unavailable(err)
}
