package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	domainbooking "buckler/internal/domain/booking"
	domainearnings "buckler/internal/domain/earnings"
	"buckler/internal/domain/shared/money"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                     string
	LogLevel                slog.Level
	CatalogFixtures         string
	HTTPAddr                string
	StorageDriver           string
	MongoURI                string
	MongoDB                 string
	DatabaseDSN             string
	KafkaBrokers            []string
	KafkaTopicPrefix        string
	IdempotencyTTL          time.Duration
	OutboxPollInterval      time.Duration
	RetryBackoff            []time.Duration
	DefaultCurrency         string
	Rates                   map[domainbooking.Vertical]domainearnings.Rates
	CompletionSweepInterval time.Duration
}

// Load parses configuration from the current environment. A .env file in the
// working directory is read first when present; real env vars win over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory)),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "buckler"),
		DatabaseDSN:      os.Getenv("DATABASE_DSN"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "KES")),
		CatalogFixtures:  os.Getenv("CATALOG_FIXTURES"),
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.CompletionSweepInterval, err = parseDurationEnv("COMPLETION_SWEEP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	rental, err := loadRates("RENTAL", 0.15, 7)
	if err != nil {
		return Config{}, err
	}
	tour, err := loadRates("TOUR", 0.12, 5)
	if err != nil {
		return Config{}, err
	}
	cfg.Rates = map[domainbooking.Vertical]domainearnings.Rates{
		domainbooking.VerticalRental: rental,
		domainbooking.VerticalTour:   tour,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := money.Parse("0", c.DefaultCurrency); err != nil {
		return fmt.Errorf("invalid DEFAULT_CURRENCY %q", c.DefaultCurrency)
	}
	switch c.StorageDriver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo driver")
		}
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the mongo driver")
		}
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the %s driver", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.CompletionSweepInterval < 0 {
		return fmt.Errorf("COMPLETION_SWEEP_INTERVAL must not be negative")
	}
	return nil
}

func loadRates(prefix string, defRate float64, defDelay int) (domainearnings.Rates, error) {
	rate, err := parseFloatEnv(prefix+"_PLATFORM_FEE_RATE", defRate)
	if err != nil {
		return domainearnings.Rates{}, err
	}
	delay, err := parseIntEnv(prefix+"_PAYOUT_DELAY_DAYS", defDelay)
	if err != nil {
		return domainearnings.Rates{}, err
	}
	rates := domainearnings.Rates{PlatformFeeRate: decimal.NewFromFloat(rate), PayoutDelayDays: delay}
	if err := rates.Validate(); err != nil {
		return domainearnings.Rates{}, fmt.Errorf("%s rates: %w", strings.ToLower(prefix), err)
	}
	return rates, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return f, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}
