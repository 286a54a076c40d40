package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session id has no stored entry.
var ErrNotFound = errors.New("session not found")

// Store keeps identities keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (Identity, error)
	Save(ctx context.Context, id string, identity Identity, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	record    record
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	return entry.record.identity()
}

func (m *MemoryStore) Save(_ context.Context, id string, identity Identity, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{record: toRecord(identity)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[id] = entry
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
