// Package config centralizes environment loading for cmd/demo, the way
// the teacher's cmd/*/main.go binaries load .env files with godotenv
// before reading os.Getenv knobs.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the orchestrator's tunable knobs plus optional backing
// addresses for the Redis sequence source and the Postgres store adapter.
// Zero values mean "use the in-memory default".
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration

	RedisURL string
	DBURL    string
}

// Default returns the spec-mandated defaults: MaxAttempts = 3,
// BaseDelay = 50ms (spec §4.5).
func Default() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
	}
}

// Load reads .env.local then .env (local overrides shared, matching the
// teacher's services/*/cmd/api/main.go convention), then layers any
// AUCTION_* environment variables over Default().
func Load() Config {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("AUCTION_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("AUCTION_BASE_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BaseDelay = time.Duration(n) * time.Millisecond
		}
	}
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.DBURL = os.Getenv("BID_DB_URL")

	return cfg
}
