package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "buckler/internal/domain/booking"
	domainrange "buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(collBookings)}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrDuplicateBooking
		}
		return mapErr(err, nil)
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapErr(err, domainbooking.ErrBookingNotFound)
	}
	return doc.toAggregate()
}

// Update matches on the version read by the caller; a miss means another
// writer got there first.
func (r *BookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return mapErr(err, nil)
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByTarget(ctx context.Context, targetID string, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{"target_id": targetID}
	if len(statuses) > 0 {
		in := make([]string, 0, len(statuses))
		for _, s := range statuses {
			in = append(in, string(s))
		}
		filter["status"] = bson.M{"$in": in}
	}
	return r.find(ctx, filter)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByStatus(ctx context.Context, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err, nil)
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Unavailable(err)
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := cur.Err(); err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

type bookingDocument struct {
	ID              string         `bson:"_id"`
	Vertical        string         `bson:"vertical"`
	TargetID        string         `bson:"target_id"`
	GuestID         string         `bson:"guest_id"`
	Range           rangeDocument  `bson:"range"`
	Guests          int            `bson:"guests"`
	Total           moneyDocument  `bson:"total"`
	SecurityDeposit *moneyDocument `bson:"security_deposit,omitempty"`
	Status          string         `bson:"status"`
	Reason          string         `bson:"reason,omitempty"`
	Policy          policyDocument `bson:"policy"`
	CreatedAt       int64          `bson:"created_at"`
	UpdatedAt       int64          `bson:"updated_at"`
	Version         int64          `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type policyDocument struct {
	PolicyID string `bson:"policy_id"`
	LockDays int    `bson:"lock_days"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		Vertical:        string(b.Vertical),
		TargetID:        b.TargetID,
		GuestID:         b.GuestID,
		Range:           rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:          b.Guests,
		Total:           newMoneyDocument(b.Total),
		SecurityDeposit: newMoneyDocumentPtr(b.SecurityDeposit),
		Status:          string(b.Status),
		Reason:          b.Reason,
		Policy:          policyDocument{PolicyID: b.Policy.PolicyID, LockDays: b.Policy.LockDays},
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	total, err := d.Total.toMoney()
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	deposit, err := d.SecurityDeposit.toMoneyPtr()
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		Vertical:        domainbooking.Vertical(d.Vertical),
		TargetID:        d.TargetID,
		GuestID:         d.GuestID,
		Range:           domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:          d.Guests,
		Total:           total,
		SecurityDeposit: deposit,
		Status:          domainbooking.Status(d.Status),
		Reason:          d.Reason,
		Policy:          domainbooking.CancellationPolicySnapshot{PolicyID: d.Policy.PolicyID, LockDays: d.Policy.LockDays},
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}, nil
}
