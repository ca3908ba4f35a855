// Package store defines the document persistence interface for the CineLog server.
//
// The interface is deliberately schemaless: documents are JSON-shaped values
// keyed by collection name and document id. There are no transactions, no
// foreign keys and no cross-collection uniqueness; the catalog services build
// those guarantees on top of single-document operations.
package store

import (
	"context"
	"errors"
	"strings"
)

// Collection names used by the catalog services.
const (
	CollectionMovies  = "movies"
	CollectionSeries  = "series"
	CollectionReviews = "reviews"
	CollectionImdbIDs = "imdb_ids"
	CollectionPosters = "posters"
)

// Sentinel errors shared by all Store implementations.
var (
	// ErrNoDocument is returned when no document has the given id.
	ErrNoDocument = errors.New("store: no document with that id")

	// ErrDuplicateID is returned by Insert when the id is already taken in
	// the collection.
	ErrDuplicateID = errors.New("store: document id already exists")
)

// Filter narrows Find and Count to a subset of a collection.
// The zero value matches every document.
type Filter struct {
	// TitleContains keeps only documents whose "title" field contains the
	// given substring, compared case-insensitively.
	TitleContains string
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.TitleContains == ""
}

// MatchTitle reports whether a document title passes the filter. Backends
// without native text operators evaluate the filter through this, so all
// three backends agree on the substring semantics.
func (f Filter) MatchTitle(title string) bool {
	if f.TitleContains == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(f.TitleContains))
}

// Store is the persistence interface implemented by the badger, mongo and
// sqlite backends.
//
// Find and Count iterate documents in id order, so paging windows are stable
// across calls as long as no writes interleave. The modification operations
// report whether the stored document actually changed; the services turn an
// unchanged write into a "no update was performed" outcome instead of a
// success.
type Store interface {
	// Insert stores a new document under the given id. It fails with
	// ErrDuplicateID when the id is already present in the collection.
	Insert(ctx context.Context, collection, id string, doc any) error

	// Get decodes the document with the given id into out, which must be a
	// pointer. It fails with ErrNoDocument when the id is absent.
	Get(ctx context.Context, collection, id string, out any) error

	// Find decodes the documents matching the filter into out, which must
	// be a pointer to a slice. The first skip matches are discarded and at
	// most limit documents are returned; limit <= 0 means no limit.
	Find(ctx context.Context, collection string, f Filter, skip, limit int64, out any) error

	// Count returns the number of documents matching the filter,
	// independent of any paging window.
	Count(ctx context.Context, collection string, f Filter) (int64, error)

	// SetFields overwrites the given top-level fields of a document and
	// reports whether the stored document changed. Writing values equal to
	// the stored ones reports false. Fails with ErrNoDocument when the id
	// is absent.
	SetFields(ctx context.Context, collection, id string, fields map[string]any) (bool, error)

	// Push appends a value to an array field, creating the array if the
	// field is missing. Fails with ErrNoDocument when the id is absent.
	Push(ctx context.Context, collection, id, field string, value any) (bool, error)

	// Pull removes every occurrence of a value from an array field and
	// reports whether anything was removed. Fails with ErrNoDocument when
	// the id is absent.
	Pull(ctx context.Context, collection, id, field string, value any) (bool, error)

	// Delete removes a document and reports whether it existed.
	Delete(ctx context.Context, collection, id string) (bool, error)

	// Close releases the underlying database resources.
	Close() error
}
