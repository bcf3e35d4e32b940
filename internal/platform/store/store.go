// Package store provides the document store the domain packages persist
// into. Records are schemaless JSON documents grouped into named
// collections; shape validation happens in the domain repositories before
// anything is written.
package store

import (
	"context"
	"errors"
	"time"
)

// Reserved document keys populated by the store itself. They are stripped
// from incoming documents on write and injected from the row metadata on
// read.
const (
	KeyID        = "id"
	KeyCreatedAt = "created_at"
	KeyUpdatedAt = "updated_at"
)

var (
	// ErrNotFound is returned when no document matches a filter.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when an insert violates a uniqueness
	// constraint on the target collection.
	ErrConflict = errors.New("document conflict")
	// ErrUnavailable is returned for any operation against an
	// uninitialized or unreachable store.
	ErrUnavailable = errors.New("document store unavailable")
)

// Doc is one schemaless document.
type Doc = map[string]interface{}

// Store is the persistence boundary used by all domain repositories.
// Filters are matched by containment: a document matches when every
// key/value pair of the filter appears in it.
type Store interface {
	// Insert stores a new document and returns its assigned id.
	Insert(ctx context.Context, collection string, doc Doc) (string, error)
	// FindOne returns the newest document matching the filter.
	FindOne(ctx context.Context, collection string, filter Doc) (Doc, error)
	// FindMany returns up to limit documents matching the filter, newest
	// first. A nil filter matches everything.
	FindMany(ctx context.Context, collection string, filter Doc, limit, offset int) ([]Doc, error)
	// Count returns the number of documents matching the filter.
	Count(ctx context.Context, collection string, filter Doc) (int, error)
	// UpdateOne merges set into one document matching the filter and
	// returns the number of documents updated (0 or 1). A zero return
	// with a nil error means the filter matched nothing, which callers
	// doing compare-and-swap treat as a conflict.
	UpdateOne(ctx context.Context, collection string, filter, set Doc) (int64, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// CreatedAt extracts the creation timestamp the store injected into a
// document, or the zero time if absent.
func CreatedAt(doc Doc) time.Time {
	if t, ok := doc[KeyCreatedAt].(time.Time); ok {
		return t
	}
	return time.Time{}
}
