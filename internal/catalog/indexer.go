package catalog

import (
	"context"

	"github.com/cinelogapp/cinelog-server/internal/domain"
)

// SearchIndexer is the interface for updating the search index. Services
// call it asynchronously after successful writes; a nil indexer disables
// indexing entirely.
type SearchIndexer interface {
	IndexMovie(ctx context.Context, m *domain.Movie) error
	DeleteMovie(ctx context.Context, movieID string) error
	IndexSeries(ctx context.Context, s *domain.Series) error
	DeleteSeries(ctx context.Context, seriesID string) error
}

// NoopSearchIndexer swallows every notification. Tests use it, as does any
// deployment running with search turned off.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexMovie(context.Context, *domain.Movie) error   { return nil }
func (NoopSearchIndexer) DeleteMovie(context.Context, string) error         { return nil }
func (NoopSearchIndexer) IndexSeries(context.Context, *domain.Series) error { return nil }
func (NoopSearchIndexer) DeleteSeries(context.Context, string) error        { return nil }
