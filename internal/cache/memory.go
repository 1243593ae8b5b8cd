package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is the in-process L1 tier. When full it drops expired entries first,
// then the oldest ones.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore creates an L1 store holding at most maxEntries entries (0 = unbounded).
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the live entry for key.
func (m *MemoryStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key.String()]
	if !ok {
		return nil, false, nil
	}
	if m.expired(entry, m.now()) {
		delete(m.entries, key.String())
		return nil, false, nil
	}
	return entry.data, true, nil
}

// Set stores value under key. ttl <= 0 keeps it until evicted.
func (m *MemoryStore) Set(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry := &memoryEntry{data: value, storedAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	if _, exists := m.entries[key.String()]; !exists {
		m.evictIfNeeded(now)
	}
	m.entries[key.String()] = entry
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Purge removes expired entries.
func (m *MemoryStore) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*memoryEntry)
	return nil
}

func (m *MemoryStore) expired(e *memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// evictIfNeeded makes room for one more entry. Caller holds mu.
func (m *MemoryStore) evictIfNeeded(now time.Time) {
	if m.maxEntries <= 0 || len(m.entries) < m.maxEntries {
		return
	}

	// Phase 1: remove expired
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
		}
	}

	// Phase 2: remove oldest entries until under limit
	for len(m.entries) >= m.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range m.entries {
			if oldestKey == "" || e.storedAt.Before(oldestAt) || (e.storedAt.Equal(oldestAt) && k < oldestKey) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		delete(m.entries, oldestKey)
	}
}
