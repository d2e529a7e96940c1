package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Entries do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

// Add records jti. Re-adding an identifier keeps the later expiry.
func (m *MemoryStore) Add(_ context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.entries[jti]; ok {
		if prev.IsZero() || (!expiresAt.IsZero() && prev.After(expiresAt)) {
			return nil
		}
	}
	m.entries[jti] = expiresAt
	return nil
}

// Has reports whether jti is recorded. Entries past their expiry still count until purged.
func (m *MemoryStore) Has(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	m.mu.RLock()
	_, ok := m.entries[jti]
	m.mu.RUnlock()
	return ok, nil
}

// Purge drops every entry whose non-zero expiry is before now and returns how many
// were removed.
func (m *MemoryStore) Purge(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for jti, exp := range m.entries {
		if !exp.IsZero() && exp.Before(now) {
			delete(m.entries, jti)
			removed++
		}
	}
	return removed, nil
}

// Size returns the number of recorded entries.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
