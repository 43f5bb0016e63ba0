// Package record defines the collection-scoped document store that backs
// every managed entity. Adapters in infrastructure/recordstore translate
// their wire formats into Document at a single decoding function each.
package record

import (
	"context"
	"errors"
	"maps"
	"regexp"
	"sort"

	"github.com/isow/backend/internal/domain/shared"
)

// Collection names used by the directory.
const (
	CollectionCompanies = "companies"
	CollectionUsers     = "users"
)

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

// Fields is the flat string map persisted for a document
type Fields map[string]string

// Clone returns an independent copy of the fields
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

// Merge returns a copy of f with every key of other applied on top
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	maps.Copy(out, other)
	return out
}

// Keys returns the field names in sorted order
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document is a stored record with its store-assigned identity
type Document struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Store is the remote record service: per-collection CRUD over documents.
// List returns every document in the collection; there is no server-side
// filtering, sorting or paging.
type Store interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
}

// Counter is implemented by stores that can count without listing
type Counter interface {
	Count(ctx context.Context, collection string) (int64, error)
}

// Pinger is implemented by stores that can report liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// Count returns the number of documents in the collection, using the
// store's native count when available.
func Count(ctx context.Context, s Store, collection string) (int64, error) {
	if c, ok := s.(Counter); ok {
		return c.Count(ctx, collection)
	}
	docs, err := s.List(ctx, collection)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// ValidateCollection checks the collection name is safe to use as a key
// prefix or column value.
func ValidateCollection(collection string) error {
	if !collectionPattern.MatchString(collection) {
		return shared.NewDomainError("INVALID_COLLECTION", "invalid collection name: "+collection)
	}
	return nil
}

// SortByID orders documents by id so listings render stably
func SortByID(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// IsNotFound reports whether err means the document does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
