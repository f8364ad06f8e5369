package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable read by Load.
const EnvPrefix = "RESERVATION_"

const (
	// StorageSQLite selects the SQLite store.
	StorageSQLite = "sqlite"
	// StorageMemory selects the in-process store.
	StorageMemory = "memory"

	// LockLocal serializes admissions within one process.
	LockLocal = "local"
	// LockRedis serializes admissions across processes through Redis.
	LockRedis = "redis"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort          int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	StorageDriver     string        `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"reservations.db"`
	SQLiteBusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
	LockBackend       string        `env:"LOCK_BACKEND" envDefault:"local"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	LockTTL           time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	CampusCacheTTL    time.Duration `env:"CAMPUS_CACHE_TTL" envDefault:"5m"`
	OTELEnabled       bool          `env:"OTEL_ENABLED" envDefault:"true"`
	OTELEndpoint      string        `env:"OTEL_ENDPOINT"`
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to their defaults. Malformed values and missing
// required values are reported together, listing the offending variables.
func Load() (Config, error) {
	var cfg Config
	invalid := make([]string, 0, 2)
	missing := make([]string, 0, 1)

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var aggregate env.AggregateError
		if !errors.As(err, &aggregate) {
			return Config{}, fmt.Errorf("parse environment: %w", err)
		}
		for _, fieldErr := range aggregate.Errors {
			var parseErr env.ParseError
			if errors.As(fieldErr, &parseErr) {
				invalid = append(invalid, envKey(parseErr.Name))
				continue
			}
			return Config{}, fmt.Errorf("parse environment: %w", fieldErr)
		}
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(cfg.LockBackend))
	cfg.RedisAddr = strings.TrimSpace(cfg.RedisAddr)
	cfg.OTELEndpoint = strings.TrimSpace(cfg.OTELEndpoint)

	if cfg.HTTPPort <= 0 && !contains(invalid, envKey("HTTPPort")) {
		invalid = append(invalid, envKey("HTTPPort"))
	}
	switch cfg.StorageDriver {
	case StorageSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			missing = append(missing, envKey("SQLitePath"))
		}
	case StorageMemory:
	default:
		invalid = append(invalid, envKey("StorageDriver"))
	}
	switch cfg.LockBackend {
	case LockLocal:
	case LockRedis:
		if cfg.RedisAddr == "" {
			missing = append(missing, envKey("RedisAddr"))
		}
	default:
		invalid = append(invalid, envKey("LockBackend"))
	}
	for _, field := range []struct {
		name  string
		value time.Duration
	}{
		{"SQLiteBusyTimeout", cfg.SQLiteBusyTimeout},
		{"LockTTL", cfg.LockTTL},
		{"CampusCacheTTL", cfg.CampusCacheTTL},
	} {
		if field.value <= 0 && !contains(invalid, envKey(field.name)) {
			invalid = append(invalid, envKey(field.name))
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// TracingEnabled reports whether spans should be exported.
func (c Config) TracingEnabled() bool {
	return c.OTELEnabled && c.OTELEndpoint != ""
}

func envKey(field string) string {
	f, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return EnvPrefix + strings.ToUpper(field)
	}
	return EnvPrefix + f.Tag.Get("env")
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
