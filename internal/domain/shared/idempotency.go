package shared

import (
	"context"
	"time"
)

// IdempotencyStore claims delivery keys so a side effect runs once per key,
// even when several processes handle the same event.
type IdempotencyStore interface {
	// Claim takes key for ttl. It returns false if another caller holds it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Claimed reports whether key is currently held
	Claimed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls how long a claimed key suppresses repeats
type IdempotencyConfig struct {
	// TTL after which a key may be claimed again
	TTL time.Duration
	// Enabled turns deduplication off entirely when false
	Enabled bool
}

// DefaultIdempotencyConfig suppresses repeats for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
