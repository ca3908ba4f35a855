package search

import (
	"context"

	"github.com/cinelogapp/cinelog-server/internal/domain"
)

// The catalog services talk to the index through a narrow interface they
// declare themselves. These adapters satisfy it so a *SearchIndex can be
// handed to the services directly.

// IndexMovie indexes or reindexes a movie.
func (s *SearchIndex) IndexMovie(_ context.Context, mv *domain.Movie) error {
	return s.IndexDocument(MovieToSearchDocument(mv))
}

// DeleteMovie removes a movie from the index.
func (s *SearchIndex) DeleteMovie(_ context.Context, movieID string) error {
	return s.DeleteDocument(movieID)
}

// IndexSeries indexes or reindexes a series.
func (s *SearchIndex) IndexSeries(_ context.Context, sr *domain.Series) error {
	return s.IndexDocument(SeriesToSearchDocument(sr))
}

// DeleteSeries drops a series from the index by id.
func (s *SearchIndex) DeleteSeries(_ context.Context, seriesID string) error {
	return s.DeleteDocument(seriesID)
}
