// Package recordstore provides the record.Store adapters: in-memory, the
// Firestore REST API and S3-compatible object storage. The relational
// adapter lives in infrastructure/persistence.
package recordstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
)

var (
	_ record.Store   = (*MemoryStore)(nil)
	_ record.Counter = (*MemoryStore)(nil)
	_ record.Pinger  = (*MemoryStore)(nil)
)

// MemoryStore is a map-backed record store for tests and single-node demos
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]record.Fields
	newID       func() string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]record.Fields),
		newID:       uuid.NewString,
	}
}

// List returns a copy of every document in the collection, ordered by id
func (s *MemoryStore) List(ctx context.Context, collection string) ([]record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]record.Document, 0, len(s.collections[collection]))
	for id, fields := range s.collections[collection] {
		docs = append(docs, record.Document{ID: id, Fields: fields.Clone()})
	}
	record.SortByID(docs)
	return docs, nil
}

// Get returns a single document
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &record.Document{ID: id, Fields: fields.Clone()}, nil
}

// Add stores a new document under a generated id
func (s *MemoryStore) Add(ctx context.Context, collection string, fields record.Fields) (string, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]record.Fields)
		s.collections[collection] = docs
	}
	id := s.newID()
	docs[id] = fields.Clone()
	return id, nil
}

// Put stores a document under a caller-chosen id, replacing any existing one
func (s *MemoryStore) Put(collection, id string, fields record.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]record.Fields)
		s.collections[collection] = docs
	}
	docs[id] = fields.Clone()
}

// Update merges fields into an existing document
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields record.Fields) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.collections[collection][id]
	if !ok {
		return shared.ErrNotFound
	}
	s.collections[collection][id] = current.Merge(fields)
	return nil
}

// Delete removes a document
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// Count returns the number of documents in the collection
func (s *MemoryStore) Count(ctx context.Context, collection string) (int64, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.collections[collection])), nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
