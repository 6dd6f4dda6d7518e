// Package redisstore implements the storage medium on a local Redis instance.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/internpm/internal/medium"
)

const (
	defaultPrefix = "internpm:"
	keySetSuffix  = "__keys" // set of logical keys stored under the prefix
	maxTxRetries  = 5
)

// Medium implements medium.Medium on Redis strings. Every logical key is also
// recorded in a set so the quota can be computed across keys.
type Medium struct {
	client *redis.Client
	prefix string
	quota  int64
}

// NewMedium creates a Medium. An empty prefix uses "internpm:"; a zero or
// negative quota means unlimited.
func NewMedium(client *redis.Client, prefix string, quotaBytes int64) *Medium {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Medium{client: client, prefix: prefix, quota: quotaBytes}
}

func (m *Medium) redisKey(key string) string {
	return m.prefix + key
}

func (m *Medium) keySet() string {
	return m.prefix + keySetSuffix
}

// Get retrieves the value stored under key
func (m *Medium) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := m.client.Get(ctx, m.redisKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value under key. The quota check and the write run in one
// optimistic transaction and are retried if another writer interleaves.
func (m *Medium) Set(ctx context.Context, key, value string) error {
	size := medium.Usage(key, value)

	txf := func(tx *redis.Tx) error {
		if m.quota > 0 {
			others, err := m.usageExcluding(ctx, tx, key)
			if err != nil {
				return err
			}
			if others+size > m.quota {
				return medium.ErrQuotaExceeded
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, m.redisKey(key), value, 0)
			pipe.SAdd(ctx, m.keySet(), key)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := m.client.Watch(ctx, txf, m.keySet(), m.redisKey(key))
		if err == nil {
			return nil
		}
		if errors.Is(err, medium.ErrQuotaExceeded) {
			return err
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return fmt.Errorf("failed to set key %q: too many concurrent writers", key)
}

// Stash writes value under key and drops it from the quota key set
func (m *Medium) Stash(ctx context.Context, key, value string) error {
	pipe := m.client.TxPipeline()
	pipe.Set(ctx, m.redisKey(key), value, 0)
	pipe.SRem(ctx, m.keySet(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to stash key %q: %w", key, err)
	}
	return nil
}

func (m *Medium) usageExcluding(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	keys, err := tx.SMembers(ctx, m.keySet()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}
	var total int64
	for _, k := range keys {
		if k == key {
			continue
		}
		n, err := tx.StrLen(ctx, m.redisKey(k)).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to measure key %q: %w", k, err)
		}
		total += int64(len(k)) + n
	}
	return total, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Medium) Delete(ctx context.Context, key string) error {
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, m.redisKey(key))
	pipe.SRem(ctx, m.keySet(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
