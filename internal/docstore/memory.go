package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	pkgerrors "kyconboard/pkg/errors"
)

// InMemoryStore keeps documents in nested maps. It backs tests and local
// development; all-or-nothing semantics come from validating the whole batch
// before touching state under one lock.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any

	// FailNext forces the next batch to fail before committing anything.
	// Tests use it to simulate a store outage.
	FailNext bool
}

// NewInMemoryStore creates an empty in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{collections: make(map[string]map[string]map[string]any)}
}

func (s *InMemoryStore) AtomicBatch(_ context.Context, writes []*Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNext {
		s.FailNext = false
		return pkgerrors.New(pkgerrors.CodeInternal, "document store unavailable")
	}
	for _, w := range writes {
		if w.Collection == "" {
			return pkgerrors.New(pkgerrors.CodeBadRequest, "write missing collection")
		}
	}

	for _, w := range writes {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		coll := s.collections[w.Collection]
		if coll == nil {
			coll = make(map[string]map[string]any)
			s.collections[w.Collection] = coll
		}
		fields := make(map[string]any, len(w.Fields))
		for k, v := range w.Fields {
			fields[k] = v
		}
		coll[w.ID] = fields
	}
	return nil
}

// Documents returns a copy of one collection's documents keyed by ID.
func (s *InMemoryStore) Documents(collection string) map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.collections[collection]))
	for id, fields := range s.collections[collection] {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		out[id] = copied
	}
	return out
}

// Count returns the number of documents in a collection.
func (s *InMemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}
