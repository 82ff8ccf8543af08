// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/herald/internal/triage"
)

// Store holds triage results in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	results map[string]*triage.Result // triage ID -> result
	seen    map[string]string         // message fingerprint -> triage ID (dedup)
	order   []string                  // insertion order of triage IDs
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		results: make(map[string]*triage.Result),
		seen:    make(map[string]string),
	}
}

// Get retrieves a triage result by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// GetByFingerprint retrieves a triage result by message fingerprint, for deduplication. Returns a copy.
func (s *Store) GetByFingerprint(_ context.Context, fp string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.seen[fp]
	if !ok {
		return nil, false, nil
	}
	r := s.results[id]
	cp := *r
	return &cp, true, nil
}

// Put stores a copy of the triage result.
func (s *Store) Put(_ context.Context, r *triage.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	cp := *r
	s.results[r.ID] = &cp
	s.seen[r.Fingerprint] = r.ID
	return nil
}

// RecentCompleted returns up to limit completed results, newest first.
// Returns copies.
func (s *Store) RecentCompleted(_ context.Context, limit int) ([]*triage.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*triage.Result
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.results[s.order[i]]
		if r.Status != triage.StatusComplete {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}
