// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import (
	"context"
	"strconv"
	"sync"
)

const backendMemory = "memory"

// MemoryStore keeps the encoded document in process memory. Versions are
// a monotonically increasing counter.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	version uint64
	changes []string
}

// NewMemoryStore returns an empty store. If seed is non-nil it becomes
// version 1.
func NewMemoryStore(seed *Record) (*MemoryStore, error) {
	s := &MemoryStore{}
	if seed == nil {
		return s, nil
	}
	data, err := Encode(seed)
	if err != nil {
		return nil, err
	}
	s.data = data
	s.version = 1
	return s, nil
}

// Read implements Store.
func (s *MemoryStore) Read(_ context.Context) (*Record, Version, error) {
	s.mu.Lock()
	data := s.data
	version := s.currentVersion()
	s.mu.Unlock()

	rec, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	return rec, version, nil
}

// Write implements Store.
func (s *MemoryStore) Write(_ context.Context, rec *Record, expected Version, change string) (Version, error) {
	data, err := Encode(rec)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expected != s.currentVersion() {
		return "", VersionConflict(backendMemory, expected)
	}
	s.data = data
	s.version++
	s.changes = append(s.changes, change)
	return s.currentVersion(), nil
}

// Changes returns the change descriptions of every write so far.
func (s *MemoryStore) Changes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.changes...)
}

// Raw returns the stored document bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// SetRaw replaces the stored document bytes and bumps the version.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.version++
}

func (s *MemoryStore) currentVersion() Version {
	if s.version == 0 {
		return ""
	}
	return Version(strconv.FormatUint(s.version, 10))
}
