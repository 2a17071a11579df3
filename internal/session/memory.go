// Package session provides the durable conversation-state stores: a
// process-local map for single-instance runs and a Redis backend for
// deployments where sessions must outlive the process.
package session

import (
	"context"
	"sync"

	"spendwise/internal/domain"
)

// MemoryStore keeps sessions in a process-local map. Load returns a deep
// copy so a running turn never shares slices with the stored value.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*domain.Session)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return &domain.Session{ID: id}, nil
	}
	return copySession(sess), nil
}

func (m *MemoryStore) Save(_ context.Context, sess *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func copySession(sess *domain.Session) *domain.Session {
	copied := *sess
	copied.History = append([]domain.Exchange(nil), sess.History...)
	copied.Stack = append([]domain.Frame(nil), sess.Stack...)
	return &copied
}
