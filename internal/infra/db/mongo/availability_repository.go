package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "buckler/internal/domain/availability"
	"buckler/internal/domain/shared/daterange"
	"buckler/internal/domain/shared/errs"
)

// AvailabilityRepository stores one document per (target, day).
type AvailabilityRepository struct {
	col *mongo.Collection
}

func NewAvailabilityRepository(db *mongo.Database) *AvailabilityRepository {
	return &AvailabilityRepository{col: db.Collection(collAvailability)}
}

func (r *AvailabilityRepository) Range(ctx context.Context, targetID string, from, to time.Time) ([]domainavailability.Entry, error) {
	filter := bson.M{
		"target_id": targetID,
		"day": bson.M{
			"$gte": daterange.DayKey(from),
			"$lte": daterange.DayKey(to),
		},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "day", Value: 1}}))
	if err != nil {
		return nil, mapErr(err, nil)
	}
	var docs []entryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err, nil)
	}
	out := make([]domainavailability.Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := doc.toEntry()
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
	models := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		doc := newEntryDocument(e)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return mapErr(err, nil)
}

type entryDocument struct {
	ID                string         `bson:"_id"`
	TargetID          string         `bson:"target_id"`
	Day               string         `bson:"day"`
	IsAvailable       bool           `bson:"is_available"`
	PriceOverride     *moneyDocument `bson:"price_override,omitempty"`
	MinNightsOverride *int           `bson:"min_nights_override,omitempty"`
	AvailableSpots    *int           `bson:"available_spots,omitempty"`
	CreatedAt         int64          `bson:"created_at"`
	UpdatedAt         int64          `bson:"updated_at"`
}

func newEntryDocument(e domainavailability.Entry) entryDocument {
	return entryDocument{
		ID:                e.TargetID + ":" + e.Key(),
		TargetID:          e.TargetID,
		Day:               e.Key(),
		IsAvailable:       e.IsAvailable,
		PriceOverride:     newMoneyDocumentPtr(e.PriceOverride),
		MinNightsOverride: e.MinNightsOverride,
		AvailableSpots:    e.AvailableSpots,
		CreatedAt:         e.CreatedAt.UnixMilli(),
		UpdatedAt:         e.UpdatedAt.UnixMilli(),
	}
}

func (d entryDocument) toEntry() (domainavailability.Entry, error) {
	day, err := daterange.ParseDay(d.Day)
	if err != nil {
		return domainavailability.Entry{}, errs.Unavailable(err)
	}
	price, err := d.PriceOverride.toMoneyPtr()
	if err != nil {
		return domainavailability.Entry{}, errs.Unavailable(err)
	}
	return domainavailability.Entry{
		TargetID:          d.TargetID,
		Date:              day,
		IsAvailable:       d.IsAvailable,
		PriceOverride:     price,
		MinNightsOverride: d.MinNightsOverride,
		AvailableSpots:    d.AvailableSpots,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
	}, nil
}
