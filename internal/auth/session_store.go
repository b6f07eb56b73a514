// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byHash map[string]string
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		byID:   make(map[string]*Session),
		byHash: make(map[string]string),
	}
}

// Create implements SessionStore.
func (m *MemorySessionStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[s.ID]; exists {
		return oops.Code("SESSION_CREATE_FAILED").With("id", s.ID).Errorf("session already exists")
	}
	m.byID[s.ID] = s.Clone()
	m.byHash[s.TokenHash] = s.ID
	return nil
}

// GetByTokenHash implements SessionStore.
func (m *MemorySessionStore) GetByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHash[tokenHash]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(ErrNotFound)
	}
	return m.byID[id].Clone(), nil
}

// UpdateActivity implements SessionStore.
func (m *MemorySessionStore) UpdateActivity(_ context.Context, id string, lastActivity, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	s.LastActivity = lastActivity
	s.ExpiresAt = expiresAt
	return nil
}

// Touch implements SessionStore.
func (m *MemorySessionStore) Touch(_ context.Context, id string, lastActivity time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	s.LastActivity = lastActivity
	return nil
}

// Delete implements SessionStore.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	m.remove(s)
	return nil
}

// DeleteByAccount implements SessionStore.
func (m *MemorySessionStore) DeleteByAccount(_ context.Context, accountID, exceptID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.AccountID == accountID && id != exceptID {
			m.remove(s)
			n++
		}
	}
	return n, nil
}

// DeleteExpired implements SessionStore.
func (m *MemorySessionStore) DeleteExpired(_ context.Context, now, idleBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.byID {
		if s.ExpiresAt.Before(now) || s.LastActivity.Before(idleBefore) {
			m.remove(s)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemorySessionStore) remove(s *Session) {
	delete(m.byID, s.ID)
	delete(m.byHash, s.TokenHash)
}
