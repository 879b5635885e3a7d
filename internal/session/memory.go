// internal/session/memory.go
package session

import (
	"context"
	"sync"
	"time"

	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

type memoryEntry struct {
	sess      *models.Session
	expiresAt time.Time
}

// MemoryStore is the default in-process store. Expired sessions are dropped
// lazily on access and by Count.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	locks   *keyedMutex
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		locks:   newKeyedMutex(),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*models.Session, error) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			m.mu.Lock()
			delete(m.entries, userID)
			m.mu.Unlock()
		}
		return nil, commonerrors.NewSessionNotFoundError(userID)
	}
	return cloneSession(entry.sess), nil
}

func (m *MemoryStore) Put(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sess.UserID] = memoryEntry{
		sess:      cloneSession(sess),
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
	return len(m.entries), nil
}

func (m *MemoryStore) Lock(userID string) func() {
	return m.locks.Lock(userID)
}
