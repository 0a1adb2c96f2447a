package sql

import (
	"context"
	stdsql "database/sql"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buckler/internal/app/uow"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	domaintours "buckler/internal/domain/tours"
)

var ErrUnitOfWorkNotConfigured = errors.New("sql: unit of work factory missing database")

// Factory opens one GORM transaction per unit of work.
type Factory struct {
	DB *gorm.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx := f.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, mapErr(tx.Error, nil)
	}
	return &Unit{tx: tx, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	tx       *gorm.DB
	readOnly bool
}

func (u *Unit) Listings() domainlistings.ListingRepository { return NewListingRepository(u.tx) }

func (u *Unit) Tours() domaintours.Repository { return NewTourRepository(u.tx) }

func (u *Unit) Bookings() domainbooking.Repository { return NewBookingRepository(u.tx) }

func (u *Unit) Availability() domainavailability.Repository { return NewAvailabilityRepository(u.tx) }

// LockTarget makes sure the target's lock row exists, then holds it with
// SELECT ... FOR UPDATE until the transaction ends. SQLite has no row locks;
// its single writer gives the same effect.
func (u *Unit) LockTarget(ctx context.Context, targetID string) error {
	db := u.tx.WithContext(ctx)
	row := targetLockRow{TargetID: targetID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return mapErr(err, nil)
	}
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("target_id = ?", targetID).First(&row).Error
	return mapErr(err, nil)
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.readOnly {
		return mapErr(u.tx.Rollback().Error, nil)
	}
	return mapErr(u.tx.Commit().Error, nil)
}

func (u *Unit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback().Error
	if errors.Is(err, gorm.ErrInvalidTransaction) || errors.Is(err, stdsql.ErrTxDone) {
		return nil
	}
	return mapErr(err, nil)
}

var _ uow.UoWFactory = Factory{}
