// Package search provides full-text search over the catalog using Bleve.
// Movies and series are indexed as unified documents with kind
// discrimination, fuzzy matching and genre faceting. Reviews are not
// indexed; they are only reachable through their owning title.
package search

import (
	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/normalize"
)

// DocKind tells movie and series hits apart in the one index.
type DocKind string

const (
	KindMovie  DocKind = "movie"
	KindSeries DocKind = "series"
)

// SearchDocument is what the index stores for one title, movie and series
// alike. Overviews are stripped of markup before indexing and genre names
// are slugified so facet values stay stable across styling differences
// ("Sci-Fi" and "sci fi" both land on "sci-fi").
type SearchDocument struct {
	ID     string  `json:"id"`
	Kind   DocKind `json:"kind"`
	ImdbID string  `json:"imdb_id"`

	Title    string   `json:"title"`
	Overview string   `json:"overview,omitempty"`
	Genres   []string `json:"genres,omitempty"`
}

// ToMap renders the document under the lowercase field names the mapping
// declares. Indexing the struct directly would index Go field names.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":      d.ID,
		"kind":    string(d.Kind),
		"imdb_id": d.ImdbID,
		"title":   d.Title,
	}

	if d.Overview != "" {
		m["overview"] = d.Overview
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}

	return m
}

// MovieToSearchDocument flattens a movie for the index.
func MovieToSearchDocument(mv *domain.Movie) *SearchDocument {
	return &SearchDocument{
		ID:       mv.ID,
		Kind:     KindMovie,
		ImdbID:   mv.ImdbID,
		Title:    mv.Title,
		Overview: normalize.StripHTML(mv.Overview),
		Genres:   slugifyGenres(mv.Genres),
	}
}

// SeriesToSearchDocument flattens a series for the index.
func SeriesToSearchDocument(sr *domain.Series) *SearchDocument {
	return &SearchDocument{
		ID:       sr.ID,
		Kind:     KindSeries,
		ImdbID:   sr.ImdbID,
		Title:    sr.Title,
		Overview: normalize.StripHTML(sr.Overview),
		Genres:   slugifyGenres(sr.Genres),
	}
}

func slugifyGenres(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	slugs := make([]string, 0, len(genres))
	for _, g := range genres {
		if slug := normalize.Slugify(g); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}
