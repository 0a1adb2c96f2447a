package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "buckler/internal/domain/booking"
	"buckler/internal/domain/shared/errs"
	"buckler/internal/domain/shared/money"
)

const (
	collListings     = "agg_listing"
	collTours        = "agg_tour"
	collBookings     = "agg_booking"
	collAvailability = "availability_entries"
	collTargetLocks  = "target_locks"
)

var ErrStaleVersion = errs.New(errs.ErrConflict, "mongo: document changed since it was read")

func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		collListings: {{Keys: bson.D{{Key: "host_id", Value: 1}}}},
		collTours:    {{Keys: bson.D{{Key: "operator_id", Value: 1}}}},
		collBookings: {
			{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "guest_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collAvailability: {{
			Keys:    bson.D{{Key: "target_id", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
}

// Amounts are stored as decimal strings so no precision is lost.
type moneyDocument struct {
	Amount   string `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount.String(), Currency: m.Currency}
}

func newMoneyDocumentPtr(m *money.Money) *moneyDocument {
	if m == nil {
		return nil
	}
	doc := newMoneyDocument(*m)
	return &doc
}

func (d moneyDocument) toMoney() (money.Money, error) {
	return money.Parse(d.Amount, d.Currency)
}

func (d *moneyDocument) toMoneyPtr() (*money.Money, error) {
	if d == nil {
		return nil, nil
	}
	m, err := d.toMoney()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// mapErr turns driver failures into the error taxonomy. notFound replaces
// ErrNoDocuments; write conflicts of concurrent transactions become conflict.
func mapErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments) && notFound != nil:
		return notFound
	case isWriteConflict(err):
		return errs.Wrapf(domainbooking.ErrConcurrentUpdate, "%v", err)
	}
	return errs.Unavailable(err)
}

func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)
	}
	return false
}
