package sql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buckler/internal/app/middleware"
)

// IdempotencyStore keeps command results in the app_idempotency table.
// Records older than ttl read as absent.
type IdempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var m idempotencyRow
	if err := s.db.WithContext(ctx).Where("idem_key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, mapErr(err, nil)
	}
	rec := m.toRecord()
	if s.ttl > 0 && time.Since(rec.OccurredAt) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

// Claim inserts the pending row, or takes over a row whose claim went stale
// or whose outcome expired. Both statements are single-row atomic.
func (s *IdempotencyStore) Claim(ctx context.Context, rec middleware.IdempotencyRecord) (bool, error) {
	m := newIdempotencyRow(rec)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return false, mapErr(res.Error, nil)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	cond := "idem_key = ? AND pending = ? AND occurred_at < ?"
	args := []any{rec.Key, true, rec.OccurredAt.Add(-middleware.PendingLease).UnixMilli()}
	if s.ttl > 0 {
		cond = "idem_key = ? AND ((pending = ? AND occurred_at < ?) OR occurred_at < ?)"
		args = append(args, rec.OccurredAt.Add(-s.ttl).UnixMilli())
	}
	res = s.db.WithContext(ctx).Model(&idempotencyRow{}).Where(cond, args...).Updates(map[string]any{
		"fingerprint": m.Fingerprint,
		"pending":     m.Pending,
		"payload":     m.Payload,
		"error":       m.Error,
		"error_kind":  m.ErrorKind,
		"occurred_at": m.OccurredAt,
	})
	if res.Error != nil {
		return false, mapErr(res.Error, nil)
	}
	return res.RowsAffected == 1, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	m := newIdempotencyRow(rec)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idem_key"}},
		UpdateAll: true,
	}).Create(&m).Error
	return mapErr(err, nil)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("idem_key = ? AND pending = ?", key, true).Delete(&idempotencyRow{}).Error
	return mapErr(err, nil)
}

func newIdempotencyRow(rec middleware.IdempotencyRecord) idempotencyRow {
	return idempotencyRow{
		Key:         rec.Key,
		Fingerprint: rec.Fingerprint,
		Pending:     rec.Pending,
		Payload:     rec.Payload,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OccurredAt:  rec.OccurredAt.UnixMilli(),
	}
}

func (m idempotencyRow) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:         m.Key,
		Fingerprint: m.Fingerprint,
		Pending:     m.Pending,
		Payload:     m.Payload,
		Error:       m.Error,
		ErrorKind:   m.ErrorKind,
		OccurredAt:  fromMillis(m.OccurredAt),
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
