// Package domain contains the core catalog entities and domain logic for the CineLog API.
package domain

import "slices"

// Movie represents a feature film in the catalog.
//
// The document store has no native foreign keys, so ReviewIDs carries the
// forward references to the reviews collection and is maintained by the
// catalog services.
type Movie struct {
	ID          string   `json:"_id" bson:"_id"`
	ImdbID      string   `json:"imdbId" bson:"imdbId"`
	Title       string   `json:"title" bson:"title"`
	Overview    string   `json:"overview" bson:"overview"`
	Duration    string   `json:"duration" bson:"duration"`
	Director    string   `json:"director" bson:"director"`
	ReleaseDate string   `json:"releaseDate" bson:"releaseDate"`
	TrailerLink string   `json:"trailerLink" bson:"trailerLink"`
	Genres      []string `json:"genres" bson:"genres"`
	Poster      string   `json:"poster" bson:"poster"`
	Backdrop    string   `json:"backdrop" bson:"backdrop"`
	ReviewIDs   []string `json:"reviewIds" bson:"reviewIds"`
}

// MovieItem is the public list shape for movies. Full documents are only
// returned by the single-entity lookups.
type MovieItem struct {
	ImdbID      string `json:"imdbId"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	ReleaseDate string `json:"releaseDate"`
	Poster      string `json:"poster"`
}

// Item converts the movie to its public list shape.
func (m *Movie) Item() MovieItem {
	return MovieItem{
		ImdbID:      m.ImdbID,
		Title:       m.Title,
		Duration:    m.Duration,
		ReleaseDate: m.ReleaseDate,
		Poster:      m.Poster,
	}
}

// HasReview reports whether the movie references the given review id.
func (m *Movie) HasReview(reviewID string) bool {
	return slices.Contains(m.ReviewIDs, reviewID)
}
