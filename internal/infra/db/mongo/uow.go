package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"buckler/internal/app/uow"
	domainavailability "buckler/internal/domain/availability"
	domainbooking "buckler/internal/domain/booking"
	domainlistings "buckler/internal/domain/listings"
	domaintours "buckler/internal/domain/tours"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo     domainlistings.ListingRepository
	ToursRepo        domaintours.Repository
	BookingRepo      domainbooking.Repository
	AvailabilityRepo domainavailability.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds the repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		ListingsRepo:     NewListingRepository(db),
		ToursRepo:        NewTourRepository(db),
		BookingRepo:      NewBookingRepository(db),
		AvailabilityRepo: NewAvailabilityRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units read a snapshot.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, mapErr(err, nil)
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, mapErr(err, nil)
	}
	return &Unit{
		locks:        f.DB.Collection(collTargetLocks),
		session:      session,
		listings:     f.ListingsRepo,
		tours:        f.ToursRepo,
		bookings:     f.BookingRepo,
		availability: f.AvailabilityRepo,
	}, nil
}

type Unit struct {
	locks   *mongo.Collection
	session mongo.Session

	listings     domainlistings.ListingRepository
	tours        domaintours.Repository
	bookings     domainbooking.Repository
	availability domainavailability.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }

func (u *Unit) Tours() domaintours.Repository { return u.tours }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Availability() domainavailability.Repository { return u.availability }

// LockTarget bumps the target's lock document inside the transaction. Two
// transactions touching the same document cannot both commit, so the loser
// fails with a write conflict.
func (u *Unit) LockTarget(ctx context.Context, targetID string) error {
	_, err := u.locks.UpdateOne(
		mongo.NewSessionContext(ctx, u.session),
		bson.M{"_id": targetID},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return mapErr(err, nil)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return mapErr(u.session.CommitTransaction(ctx), nil)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
