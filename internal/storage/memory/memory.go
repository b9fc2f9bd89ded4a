// Package memory is an in-process SlotStore, used by tests and by the
// memory data backend.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
)

type Store struct {
	mu    sync.Mutex
	slots map[string][]byte
	fail  error
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// NewWithSlots returns a store pre-filled with slots.
func NewWithSlots(slots map[string][]byte) *Store {
	s := New()
	for k, v := range slots {
		s.slots[k] = slices.Clone(v)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) PutAll(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for k, v := range entries {
		s.slots[k] = slices.Clone(v)
	}
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.slots))
}

// FailWrites makes every later PutAll return err. nil restores writes.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) Close() error { return nil }
