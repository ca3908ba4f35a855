package posters

import (
	"context"
	"log/slog"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/domain"
)

// Hook rides the catalog's index notifications to trigger poster fetches.
// It wraps the real search indexer: every indexed movie or series also gets
// its poster placeholder refreshed. The services already deliver these
// notifications on background goroutines, so the fetch may block here.
type Hook struct {
	next    catalog.SearchIndexer
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewHook wraps an indexer with poster fetching. next may be nil when
// search is disabled but poster enrichment is on.
func NewHook(next catalog.SearchIndexer, fetcher *Fetcher, logger *slog.Logger) *Hook {
	return &Hook{
		next:    next,
		fetcher: fetcher,
		logger:  logger,
	}
}

// IndexMovie forwards to the wrapped indexer and refreshes the movie's
// poster placeholder. Fetch failures never propagate; the placeholder is
// advisory.
func (h *Hook) IndexMovie(ctx context.Context, m *domain.Movie) error {
	h.fetch(ctx, m.ImdbID, m.Poster)
	if h.next == nil {
		return nil
	}
	return h.next.IndexMovie(ctx, m)
}

// DeleteMovie forwards to the wrapped indexer. The placeholder stays: it is
// keyed by imdbId and a later claim of the same id refreshes it.
func (h *Hook) DeleteMovie(ctx context.Context, movieID string) error {
	if h.next == nil {
		return nil
	}
	return h.next.DeleteMovie(ctx, movieID)
}

// IndexSeries forwards to the wrapped indexer and refreshes the series'
// poster placeholder.
func (h *Hook) IndexSeries(ctx context.Context, s *domain.Series) error {
	h.fetch(ctx, s.ImdbID, s.Poster)
	if h.next == nil {
		return nil
	}
	return h.next.IndexSeries(ctx, s)
}

// DeleteSeries forwards to the wrapped indexer.
func (h *Hook) DeleteSeries(ctx context.Context, seriesID string) error {
	if h.next == nil {
		return nil
	}
	return h.next.DeleteSeries(ctx, seriesID)
}

func (h *Hook) fetch(ctx context.Context, imdbID, url string) {
	if url == "" {
		return
	}
	if err := h.fetcher.Fetch(ctx, imdbID, url); err != nil {
		h.logger.Warn("poster fetch failed",
			"imdb_id", imdbID,
			"url", url,
			"error", err,
		)
	}
}
