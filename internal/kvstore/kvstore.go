// Package kvstore defines the durable local key-value store shared by the
// resolver and the feature gate, with concrete memory and Redis backends.
package kvstore

import (
	"context"
	"time"
)

// Store keys. The namespace is deliberately small and flat:
//
//	is_beta_tester            bool   — user is a confirmed beta tester
//	premium_access            bool   — premium features unlocked
//	beta_verified_timestamp   int64  — unix ms of the last positive verification
//	scans_<yyyy-mm-dd>        int64  — metered scan count for that calendar day
//	profile_retry:<user_id>   bool   — profile write pending reconciliation
//
// Per-user scoping is applied by the caller via UserKey.
const (
	KeyBetaTester        = "is_beta_tester"
	KeyPremiumAccess     = "premium_access"
	KeyVerifiedTimestamp = "beta_verified_timestamp"

	scanKeyPrefix         = "scans_"
	profileRetryKeyPrefix = "profile_retry:"
)

// ScanKey returns the quota key for the calendar day containing t,
// in the store's local time zone. Stale days are simply never read again.
func ScanKey(t time.Time) string {
	return scanKeyPrefix + t.Format("2006-01-02")
}

// ProfileRetryKey marks a user whose external profile write must be replayed.
func ProfileRetryKey(userID string) string {
	return profileRetryKeyPrefix + userID
}

// UserKey scopes a flat key to one user.
func UserKey(userID, key string) string {
	return userID + ":" + key
}

// Store is a narrow durable key-value interface. Implementations must make
// Increment atomic per key; all other operations are independent last-write-wins.
type Store interface {
	// GetBool returns the boolean at key and whether it was present.
	GetBool(ctx context.Context, key string) (bool, bool, error)
	// SetBool stores a boolean at key.
	SetBool(ctx context.Context, key string, v bool) error
	// GetInt64 returns the integer at key and whether it was present.
	GetInt64(ctx context.Context, key string) (int64, bool, error)
	// SetInt64 stores an integer at key.
	SetInt64(ctx context.Context, key string, v int64) error
	// Increment atomically adds 1 to the integer at key (absent counts as 0)
	// and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)
	// Delete removes the given keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Keys returns all keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
