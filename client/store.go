package client

import (
	"sync"
)

// Record is anything the store can hold. Key must be stable and unique
// within one store.
type Record interface {
	Key() string
}

// FetchToken marks the point in time a refetch was started. SetAll only
// accepts the result if no newer fetch was started and no change event
// touched the store in between.
type FetchToken struct {
	seq       uint64
	mutations uint64
}

// Store is an ordered, key-indexed cache of one entity type. The slice
// carries the display order; the index answers point lookups. Both are
// updated under one lock so they can never disagree.
type Store[T Record] struct {
	mutex     sync.RWMutex
	items     []T
	index     map[string]int
	seq       uint64
	mutations uint64
}

// NewStore creates an empty store
func NewStore[T Record]() *Store[T] {
	return &Store[T]{
		index: make(map[string]int),
	}
}

// BeginFetch issues a token for a refetch that is about to start.
func (s *Store[T]) BeginFetch() FetchToken {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.seq++
	return FetchToken{seq: s.seq, mutations: s.mutations}
}

// SetAll replaces the whole content with a fetch result. It reports
// whether the result was accepted: stale responses, and responses that
// raced with a change event, are dropped so fresher data never gets
// overwritten by older data.
func (s *Store[T]) SetAll(token FetchToken, items []T) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if token.seq != s.seq || token.mutations != s.mutations {
		return false
	}

	s.items = make([]T, len(items))
	copy(s.items, items)
	s.index = make(map[string]int, len(items))
	for i, item := range items {
		s.index[item.Key()] = i
	}
	s.mutations++
	return true
}

// Upsert updates the record in place when the key is known, otherwise
// prepends it. Applying the same record twice leaves the store unchanged.
func (s *Store[T]) Upsert(item T) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if i, ok := s.index[item.Key()]; ok {
		s.items[i] = item
	} else {
		s.items = append([]T{item}, s.items...)
		for key, at := range s.index {
			s.index[key] = at + 1
		}
		s.index[item.Key()] = 0
	}
	s.mutations++
}

// Remove drops the record. Removing an unknown key is a no-op and does
// not invalidate in-flight fetches.
func (s *Store[T]) Remove(key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	at, ok := s.index[key]
	if !ok {
		return false
	}

	s.items = append(s.items[:at], s.items[at+1:]...)
	delete(s.index, key)
	for k, i := range s.index {
		if i > at {
			s.index[k] = i - 1
		}
	}
	s.mutations++
	return true
}

// Get looks a record up by key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if i, ok := s.index[key]; ok {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// List returns a copy of the ordered content.
func (s *Store[T]) List() []T {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of records held.
func (s *Store[T]) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.items)
}
