package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "buckler/internal/domain/listings"
	"buckler/internal/domain/shared/errs"
	domaintours "buckler/internal/domain/tours"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collListings)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapErr(err, domainlistings.ErrListingNotFound)
	}
	return doc.toAggregate()
}

// Save upserts the listing when the stored version still matches.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	if err := upsertVersioned(ctx, r.col, filter, doc); err != nil {
		return err
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, bson.M{"host_id": string(host)}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		l, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

type listingDocument struct {
	ID                 string         `bson:"_id"`
	HostID             string         `bson:"host_id"`
	Title              string         `bson:"title"`
	GuestsLimit        int            `bson:"guests_limit"`
	MinNights          int            `bson:"min_nights"`
	MaxNights          int            `bson:"max_nights"`
	NightlyRate        moneyDocument  `bson:"nightly_rate"`
	CleaningFee        *moneyDocument `bson:"cleaning_fee,omitempty"`
	ServiceFee         *moneyDocument `bson:"service_fee,omitempty"`
	SecurityDeposit    *moneyDocument `bson:"security_deposit,omitempty"`
	CancellationPolicy string         `bson:"cancellation_policy"`
	InstantBook        bool           `bson:"instant_book"`
	CreatedAt          int64          `bson:"created_at"`
	UpdatedAt          int64          `bson:"updated_at"`
	Version            int64          `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:                 string(l.ID),
		HostID:             string(l.Host),
		Title:              l.Title,
		GuestsLimit:        l.GuestsLimit,
		MinNights:          l.MinNights,
		MaxNights:          l.MaxNights,
		NightlyRate:        newMoneyDocument(l.NightlyRate),
		CleaningFee:        newMoneyDocumentPtr(l.CleaningFee),
		ServiceFee:         newMoneyDocumentPtr(l.ServiceFee),
		SecurityDeposit:    newMoneyDocumentPtr(l.SecurityDeposit),
		CancellationPolicy: l.CancellationPolicy,
		InstantBook:        l.InstantBook,
		CreatedAt:          l.CreatedAt.UnixMilli(),
		UpdatedAt:          l.UpdatedAt.UnixMilli(),
		Version:            l.Version,
	}
}

func (d listingDocument) toAggregate() (*domainlistings.Listing, error) {
	rate, err := d.NightlyRate.toMoney()
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	l := &domainlistings.Listing{
		ID:                 domainlistings.ListingID(d.ID),
		Host:               domainlistings.HostID(d.HostID),
		Title:              d.Title,
		GuestsLimit:        d.GuestsLimit,
		MinNights:          d.MinNights,
		MaxNights:          d.MaxNights,
		NightlyRate:        rate,
		CancellationPolicy: d.CancellationPolicy,
		InstantBook:        d.InstantBook,
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		Version:            d.Version,
	}
	if l.CleaningFee, err = d.CleaningFee.toMoneyPtr(); err != nil {
		return nil, errs.Unavailable(err)
	}
	if l.ServiceFee, err = d.ServiceFee.toMoneyPtr(); err != nil {
		return nil, errs.Unavailable(err)
	}
	if l.SecurityDeposit, err = d.SecurityDeposit.toMoneyPtr(); err != nil {
		return nil, errs.Unavailable(err)
	}
	return l, nil
}

type TourRepository struct {
	col *mongo.Collection
}

func NewTourRepository(db *mongo.Database) *TourRepository {
	return &TourRepository{col: db.Collection(collTours)}
}

func (r *TourRepository) ByID(ctx context.Context, id domaintours.TourID) (*domaintours.Tour, error) {
	var doc tourDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapErr(err, domaintours.ErrTourNotFound)
	}
	return doc.toAggregate()
}

func (r *TourRepository) Save(ctx context.Context, t *domaintours.Tour) error {
	doc := newTourDocument(t)
	filter := bson.M{"_id": doc.ID, "version": t.Version}
	doc.Version = t.Version + 1
	if err := upsertVersioned(ctx, r.col, filter, doc); err != nil {
		return err
	}
	t.Version = doc.Version
	return nil
}

func (r *TourRepository) ListByOperator(ctx context.Context, operator domaintours.OperatorID) ([]*domaintours.Tour, error) {
	cur, err := r.col.Find(ctx, bson.M{"operator_id": string(operator)}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	var docs []tourDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]*domaintours.Tour, 0, len(docs))
	for _, doc := range docs {
		t, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

type tourDocument struct {
	ID                  string        `bson:"_id"`
	OperatorID          string        `bson:"operator_id"`
	Title               string        `bson:"title"`
	MaxParticipants     int           `bson:"max_participants"`
	PricePerParticipant moneyDocument `bson:"price_per_participant"`
	DurationDays        int           `bson:"duration_days"`
	CancellationPolicy  string        `bson:"cancellation_policy"`
	InstantBook         bool          `bson:"instant_book"`
	CreatedAt           int64         `bson:"created_at"`
	UpdatedAt           int64         `bson:"updated_at"`
	Version             int64         `bson:"version"`
}

func newTourDocument(t *domaintours.Tour) tourDocument {
	return tourDocument{
		ID:                  string(t.ID),
		OperatorID:          string(t.Operator),
		Title:               t.Title,
		MaxParticipants:     t.MaxParticipants,
		PricePerParticipant: newMoneyDocument(t.PricePerParticipant),
		DurationDays:        t.DurationDays,
		CancellationPolicy:  t.CancellationPolicy,
		InstantBook:         t.InstantBook,
		CreatedAt:           t.CreatedAt.UnixMilli(),
		UpdatedAt:           t.UpdatedAt.UnixMilli(),
		Version:             t.Version,
	}
}

func (d tourDocument) toAggregate() (*domaintours.Tour, error) {
	price, err := d.PricePerParticipant.toMoney()
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return &domaintours.Tour{
		ID:                  domaintours.TourID(d.ID),
		Operator:            domaintours.OperatorID(d.OperatorID),
		Title:               d.Title,
		MaxParticipants:     d.MaxParticipants,
		PricePerParticipant: price,
		DurationDays:        d.DurationDays,
		CancellationPolicy:  d.CancellationPolicy,
		InstantBook:         d.InstantBook,
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
		Version:             d.Version,
	}, nil
}

// upsertVersioned writes doc when filter (id + expected version) matches, or
// inserts it when the id is new. A duplicate key means the id exists with a
// different version.
func upsertVersioned(ctx context.Context, col *mongo.Collection, filter bson.M, doc any) error {
	res, err := col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrStaleVersion
		}
		return mapErr(err, nil)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrStaleVersion
	}
	return nil
}
