// Package catalog implements the movie, series and review services of the
// CineLog API.
//
// The document store underneath is schemaless: it has no transactions, no
// foreign keys and no cross-collection unique indexes, so the services
// enforce the catalog's integrity rules themselves.
//
//   - An imdbId is unique across movies and series together. Every owner
//     holds a claim in the imdb_ids collection, reserved before the owning
//     document is written (see Registry).
//   - A review belongs to exactly one movie or series. The owner lists the
//     review in its reviewIds array and the review carries the
//     authoritative back-reference (ownerType, ownerId).
//   - Every season of a series has at least one episode.
//
// Mutations spanning two documents (review create, review delete, imdbId
// renames) compensate on failure: when the second write fails the first is
// rolled back. The Auditor reports any drift that slips through anyway.
package catalog

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/store"
)

// NewID returns a fresh document id in canonical hex object-id form.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// ParseID checks an id path parameter and returns its canonical form. It
// fails before any storage access, so malformed ids never reach the store.
func ParseID(id string) (string, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", errors.CannotParseID(id)
	}
	return oid.Hex(), nil
}

// collectionFor maps an owner kind to the collection its documents live in.
func collectionFor(kind domain.OwnerKind) string {
	if kind == domain.OwnerSeries {
		return store.CollectionSeries
	}
	return store.CollectionMovies
}
