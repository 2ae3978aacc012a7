// Package cache provides the time-bounded result cache for generated artifacts.
// Supports an in-process memory store and a Redis backend for multi-instance deployments.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"sp1assist/internal/core"
)

const (
	// DefaultTTL is how long an enhanced artifact stays cached.
	DefaultTTL = 60 * time.Minute

	// DefaultSweepInterval is how often the memory store removes expired entries.
	DefaultSweepInterval = 10 * time.Minute

	// fingerprintBytes is the SHA-256 prefix length kept in cache keys (128 bits).
	fingerprintBytes = 16
)

// Cache defines the interface for result storage.
// Implementations must be safe for concurrent use. Concurrent Set calls on the
// same key are last-write-wins.
type Cache interface {
	// Get returns the artifact stored under key. Expired entries are never returned.
	Get(ctx context.Context, key string) (*core.Artifact, bool)

	// Set stores the artifact under key for the cache's TTL.
	Set(ctx context.Context, key string, artifact *core.Artifact) error

	// Clear removes every entry immediately.
	Clear(ctx context.Context) error

	// Size returns the number of stored entries. Expired entries not yet
	// swept may be counted.
	Size(ctx context.Context) int

	// Close releases any resources held by the cache.
	Close() error
}

// Fingerprint returns a fixed-length digest of the raw user code.
func Fingerprint(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:fingerprintBytes])
}

// Key builds the cache key for a (scenario, model, code) triple.
func Key(scenario, model, code string) string {
	return scenario + "-" + model + "-" + Fingerprint(code)
}
