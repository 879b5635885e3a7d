// Package session provides the session-keyed state store. Sessions are keyed
// by the opaque user identifier; all turn processing for one session is
// serialized through Lock, while different sessions proceed in parallel.
package session

import (
	"context"
	"sync"

	"loanflow/internal/models"
)

// Store is the session persistence interface.
type Store interface {
	// Get returns the session for userID or a SESSION_NOT_FOUND error.
	Get(ctx context.Context, userID string) (*models.Session, error)
	Put(ctx context.Context, sess *models.Session) error
	Delete(ctx context.Context, userID string) error
	Count(ctx context.Context) (int, error)
	// Lock serializes turn processing for one session. The returned func
	// releases the lock.
	Lock(userID string) func()
}

// keyedMutex hands out one mutex per session key. Entries are small and
// bounded by the number of distinct sessions seen by this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// cloneSession returns a copy whose slices are independent of the original,
// so a caller mutating its copy cannot corrupt the stored state.
func cloneSession(s *models.Session) *models.Session {
	out := *s
	if s.Log != nil {
		out.Log = make([]models.Message, len(s.Log))
		copy(out.Log, s.Log)
	}
	if s.Data.Documents != nil {
		out.Data.Documents = make([]models.DocumentMeta, len(s.Data.Documents))
		copy(out.Data.Documents, s.Data.Documents)
	}
	if s.Eligibility != nil {
		e := *s.Eligibility
		out.Eligibility = &e
	}
	return &out
}
