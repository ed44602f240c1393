package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("journal entry not found")

// Store persists journal entries.
type Store interface {
	// Append stores a new entry
	Append(ctx context.Context, e Entry) error

	// Get returns the entry with the given ID
	Get(ctx context.Context, id string) (Entry, error)

	// List returns the entries of one fake in sequence order
	List(ctx context.Context, fakeID string) ([]Entry, error)

	// Delete removes every entry of one fake and returns how many were removed
	Delete(ctx context.Context, fakeID string) (int64, error)
}

// InMemoryStore implements Store with maps guarded by an RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Entry
	byFake map[string][]string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[string]Entry),
		byFake: make(map[string][]string),
	}
}

// Append adds e. Entry IDs and (fake, sequence) pairs must be unique.
func (s *InMemoryStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[e.ID]; exists {
		return fmt.Errorf("journal entry with ID %s already exists", e.ID)
	}
	for _, id := range s.byFake[e.FakeID] {
		if s.byID[id].Sequence == e.Sequence {
			return fmt.Errorf("fake %s already journaled call %d", e.FakeID, e.Sequence)
		}
	}

	s.byID[e.ID] = e
	s.byFake[e.FakeID] = append(s.byFake[e.FakeID], e.ID)
	return nil
}

// Get returns the entry with the given ID.
func (s *InMemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// List returns the entries of fakeID ordered by sequence.
func (s *InMemoryStore) List(ctx context.Context, fakeID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byFake[fakeID]
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.byID[id])
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Sequence < entries[j].Sequence
	})
	return entries, nil
}

// Delete removes the entries of fakeID.
func (s *InMemoryStore) Delete(ctx context.Context, fakeID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byFake[fakeID]
	for _, id := range ids {
		delete(s.byID, id)
	}
	delete(s.byFake, fakeID)
	return int64(len(ids)), nil
}
