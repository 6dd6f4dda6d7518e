// Package medium defines the key-addressed text storage that the record store
// persists into.
package medium

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned when a write would exceed the medium's capacity.
	// The previous value under the key is left untouched.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// DefaultQuotaBytes mirrors the per-origin limit browsers apply to local storage.
const DefaultQuotaBytes = 5 * 1024 * 1024

// Medium stores text values under string keys. Set replaces any prior value
// and must be all-or-nothing.
//
// Stash is Set for recovery copies: the value is not counted against the
// quota, so it succeeds on a full medium. A later Set of the same key counts
// it again.
type Medium interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Stash(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Usage returns the number of bytes a key/value pair occupies against a quota.
func Usage(key, value string) int64 {
	return int64(len(key) + len(value))
}
