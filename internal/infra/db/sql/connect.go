package sql

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Connect opens postgres for postgres:// DSNs and SQLite (pure Go driver)
// for anything else, e.g. a file path.
func Connect(dsn string, log *slog.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if log != nil {
			log.Info("connecting to postgres")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	if log != nil {
		log.Info("using sqlite", "dsn", dsn)
	}
	return gorm.Open(gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), cfg)
}

// Migrate creates or updates every table the stores use.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&listingRow{},
		&tourRow{},
		&bookingRow{},
		&entryRow{},
		&targetLockRow{},
		&idempotencyRow{},
	)
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
