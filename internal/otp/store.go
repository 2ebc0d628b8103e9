package otp

import (
	"context"
	"sync"
	"time"
)

// Store keeps sessions by an opaque key (the proposal id).
// Get returns ErrNoSession for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) (Session, error)
	Put(ctx context.Context, key string, s Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps sessions in process. An entry is dropped once its ttl
// has passed, either when it is read or by Sweep.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

type StoreOption func(*MemoryStore)

// StoreClock replaces time.Now for ttl bookkeeping.
func StoreClock(now func() time.Time) StoreOption {
	return func(m *MemoryStore) { m.now = now }
}

// NewMemoryStore returns an empty store using time.Now unless StoreClock is given.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	m := &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[key]
	if !ok {
		return Session{}, ErrNoSession
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.sessions, key)
		return Session{}, ErrNoSession
	}
	return e.session, nil
}

// Put stores s for ttl. A non-positive ttl drops the key, as Redis does.
func (m *MemoryStore) Put(_ context.Context, key string, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		delete(m.sessions, key)
		return nil
	}
	m.sessions[key] = memoryEntry{session: s, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Sweep drops every expired entry and reports how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for key, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, key)
			n++
		}
	}
	return n
}

// Len is the number of entries held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
