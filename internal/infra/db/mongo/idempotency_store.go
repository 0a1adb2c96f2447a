package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"buckler/internal/app/middleware"
)

type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
}

// NewIdempotencyStore expires records ttl after they were written; ttl <= 0
// falls back to a week.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	col := db.Collection("app_idempotency")
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return &IdempotencyStore{col: col, ttl: ttl}, nil
}

// Get hides records the TTL monitor has not removed yet.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, mapErr(err, nil)
	}
	if time.Since(doc.OccurredAt) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return doc.toRecord(), true, nil
}

// Claim relies on the unique _id: the insert wins the key, and a replace
// filtered on a stale claim or an expired outcome takes it over.
func (s *IdempotencyStore) Claim(ctx context.Context, rec middleware.IdempotencyRecord) (bool, error) {
	doc := newIdempotencyDocument(rec)
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, mapErr(err, nil)
	}
	filter := bson.M{
		"_id": rec.Key,
		"$or": bson.A{
			bson.M{"pending": true, "occurred_at": bson.M{"$lt": rec.OccurredAt.Add(-middleware.PendingLease)}},
			bson.M{"occurred_at": bson.M{"$lt": rec.OccurredAt.Add(-s.ttl)}},
		},
	}
	res, err := s.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return false, mapErr(err, nil)
	}
	return res.MatchedCount == 1, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := newIdempotencyDocument(rec)
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapErr(err, nil)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key, "pending": true})
	return mapErr(err, nil)
}

type idempotencyDocument struct {
	ID          string    `bson:"_id"`
	Fingerprint string    `bson:"fingerprint"`
	Pending     bool      `bson:"pending,omitempty"`
	Payload     []byte    `bson:"payload"`
	Error       string    `bson:"error,omitempty"`
	ErrorKind   string    `bson:"error_kind,omitempty"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newIdempotencyDocument(rec middleware.IdempotencyRecord) idempotencyDocument {
	return idempotencyDocument{
		ID:          rec.Key,
		Fingerprint: rec.Fingerprint,
		Pending:     rec.Pending,
		Payload:     rec.Payload,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OccurredAt:  rec.OccurredAt,
		CreatedAt:   time.Now().UTC(),
	}
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:         d.ID,
		Fingerprint: d.Fingerprint,
		Pending:     d.Pending,
		Payload:     d.Payload,
		Error:       d.Error,
		ErrorKind:   d.ErrorKind,
		OccurredAt:  d.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
