package medium

import (
	"context"
	"sync"
)

// Memory is an in-process Medium. A zero or negative quota means unlimited.
type Memory struct {
	mu      sync.Mutex
	values  map[string]string
	stashed map[string]bool
	quota   int64
	used    int64
}

// NewMemory creates an empty in-memory medium.
func NewMemory(quotaBytes int64) *Memory {
	return &Memory{
		values:  make(map[string]string),
		stashed: make(map[string]bool),
		quota:   quotaBytes,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used - m.countedLocked(key) + Usage(key, value)
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}
	m.values[key] = value
	delete(m.stashed, key)
	m.used = next
	return nil
}

func (m *Memory) Stash(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.used -= m.countedLocked(key)
	m.values[key] = value
	m.stashed[key] = true
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= m.countedLocked(key)
	delete(m.values, key)
	delete(m.stashed, key)
	return nil
}

// countedLocked returns the quota bytes held by key.
func (m *Memory) countedLocked(key string) int64 {
	prev, ok := m.values[key]
	if !ok || m.stashed[key] {
		return 0
	}
	return Usage(key, prev)
}

// Used reports the bytes currently counted against the quota.
func (m *Memory) Used() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}
