package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, url string, cutoff time.Time) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []Entry
	if e, ok := s.entries[url]; ok {
		rows = append(rows, e)
	}
	e, stale, err := pick(url, rows, cutoff)
	if stale {
		delete(s.entries, url)
		evicted(ctx, s.Name(), rows[0].StoredAt, cutoff)
	}
	return e, err
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.URL] = e
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
	return nil
}

// Purge implements Store.
func (s *MemoryStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for url, e := range s.entries {
		if e.StoredAt.Before(cutoff) {
			delete(s.entries, url)
			n++
		}
	}
	return n, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]Entry)
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Close does nothing for the memory store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
