package search

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestIndex opens a search index in a fresh temp directory and closes
// it when the test finishes.
func newTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func TestSearchIndex_Lifecycle(t *testing.T) {
	index := newTestIndex(t)

	requireCount := func(want uint64) {
		t.Helper()
		count, err := index.DocumentCount()
		require.NoError(t, err)
		require.Equal(t, want, count)
	}

	requireCount(0)

	require.NoError(t, index.IndexDocument(&SearchDocument{
		ID:     "movie-1",
		Kind:   KindMovie,
		ImdbID: "tt0468569",
		Title:  "The Dark Knight",
	}))
	requireCount(1)

	require.NoError(t, index.IndexDocuments([]*SearchDocument{
		{ID: "movie-2", Kind: KindMovie, Title: "Heat"},
		{ID: "movie-3", Kind: KindMovie, Title: "Collateral"},
		{ID: "series-1", Kind: KindSeries, Title: "Luther"},
	}))
	requireCount(4)

	require.NoError(t, index.DeleteDocument("movie-3"))
	requireCount(3)

	require.NoError(t, index.DeleteDocuments([]string{"movie-1", "series-1"}))
	requireCount(1)

	require.NoError(t, index.Rebuild())
	requireCount(0)
}

func TestSearchIndex_Search(t *testing.T) {
	index := newTestIndex(t)

	require.NoError(t, index.IndexDocuments([]*SearchDocument{
		{
			ID:       "movie-dark-knight",
			Kind:     KindMovie,
			ImdbID:   "tt0468569",
			Title:    "The Dark Knight",
			Overview: "Batman faces the Joker in Gotham.",
			Genres:   []string{"action", "crime"},
		},
		{
			ID:       "movie-inception",
			Kind:     KindMovie,
			ImdbID:   "tt1375666",
			Title:    "Inception",
			Overview: "A thief plants an idea through shared dreams.",
			Genres:   []string{"science-fiction", "action"},
		},
		{
			ID:       "series-breaking-bad",
			Kind:     KindSeries,
			ImdbID:   "tt0903747",
			Title:    "Breaking Bad",
			Overview: "A chemistry teacher cooks methamphetamine.",
			Genres:   []string{"crime", "drama"},
		},
	}))

	ctx := context.Background()

	search := func(t *testing.T, params SearchParams) *SearchResult {
		t.Helper()
		if params.Limit == 0 {
			params.Limit = 10
		}
		result, err := index.Search(ctx, params)
		require.NoError(t, err)
		return result
	}

	t.Run("empty query matches everything", func(t *testing.T) {
		result := search(t, SearchParams{})
		assert.Equal(t, uint64(3), result.Total)
	})

	t.Run("title words", func(t *testing.T) {
		result := search(t, SearchParams{Query: "dark knight"})
		require.Equal(t, uint64(1), result.Total)

		hit := result.Hits[0]
		assert.Equal(t, "movie-dark-knight", hit.ID)
		assert.Equal(t, KindMovie, hit.Kind)
		assert.Equal(t, "tt0468569", hit.ImdbID)
		assert.Equal(t, "The Dark Knight", hit.Title)
		assert.Greater(t, hit.Score, 0.0)
	})

	t.Run("title prefix", func(t *testing.T) {
		result := search(t, SearchParams{Query: "Incep"})
		require.Equal(t, uint64(1), result.Total)
		assert.Equal(t, "movie-inception", result.Hits[0].ID)
	})

	t.Run("overview terms", func(t *testing.T) {
		result := search(t, SearchParams{Query: "methamphetamine"})
		require.Equal(t, uint64(1), result.Total)
		assert.Equal(t, "series-breaking-bad", result.Hits[0].ID)
	})

	t.Run("kind filter", func(t *testing.T) {
		result := search(t, SearchParams{Kinds: []string{string(KindSeries)}})
		require.Equal(t, uint64(1), result.Total)
		assert.Equal(t, "series-breaking-bad", result.Hits[0].ID)
	})

	t.Run("genre filter", func(t *testing.T) {
		result := search(t, SearchParams{GenreSlugs: []string{"science-fiction"}})
		require.Equal(t, uint64(1), result.Total)
		assert.Equal(t, "movie-inception", result.Hits[0].ID)
		assert.Contains(t, result.Hits[0].Genres, "science-fiction")
	})

	t.Run("filters intersect the text query", func(t *testing.T) {
		// "teacher" only appears in a series overview.
		result := search(t, SearchParams{Query: "teacher", Kinds: []string{string(KindMovie)}})
		assert.Equal(t, uint64(0), result.Total)
	})

	t.Run("title highlight", func(t *testing.T) {
		result := search(t, SearchParams{Query: "inception", Highlight: true})
		require.Equal(t, uint64(1), result.Total)
		assert.Contains(t, result.Hits[0].Highlights["title"], "<mark>")
	})

	t.Run("facet counts", func(t *testing.T) {
		result := search(t, SearchParams{
			IncludeFacets: true,
			FacetFields:   []string{"kind", "genres"},
		})

		kinds := map[string]int{}
		for _, f := range result.Facets.Kinds {
			kinds[f.Value] = f.Count
		}
		assert.Equal(t, 2, kinds["movie"])
		assert.Equal(t, 1, kinds["series"])

		genres := map[string]int{}
		for _, f := range result.Facets.Genres {
			genres[f.Value] = f.Count
		}
		assert.Equal(t, 2, genres["action"])
		assert.Equal(t, 2, genres["crime"])
	})
}

func TestSearchIndex_LargeBatch(t *testing.T) {
	index := newTestIndex(t)

	// Enough documents to span several index batches.
	docs := make([]*SearchDocument, 1100)
	for i := range docs {
		docs[i] = &SearchDocument{
			ID:    "movie-" + strconv.Itoa(i),
			Kind:  KindMovie,
			Title: "Movie " + strconv.Itoa(i),
		}
	}

	require.NoError(t, index.IndexDocuments(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(docs)), count)
}

func TestSearchIndex_ReopenKeepsDocuments(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexDocument(&SearchDocument{ID: "movie-1", Kind: KindMovie, Title: "Heat"}))
	require.NoError(t, index.Close())

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	result, err := reopened.Search(context.Background(), SearchParams{Query: "Heat", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestSearchIndex_StaleMappingRebuilds(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexDocument(&SearchDocument{ID: "movie-1", Kind: KindMovie, Title: "Heat"}))
	require.NoError(t, index.Close())

	// An index stamped with an older mapping version is discarded on open.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.version"), []byte("0"), 0o644))

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	stamp, err := os.ReadFile(filepath.Join(dir, "mapping.version"))
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(stamp))
}

func TestToSearchDocument(t *testing.T) {
	t.Run("movie", func(t *testing.T) {
		doc := MovieToSearchDocument(&domain.Movie{
			ID:       "68a1b2c3d4e5f60718293a4b",
			ImdbID:   "tt0468569",
			Title:    "The Dark Knight",
			Overview: "<p>Batman raises the stakes in his war on crime.</p>",
			Genres:   []string{"Action", "Science Fiction"},
		})

		assert.Equal(t, "68a1b2c3d4e5f60718293a4b", doc.ID)
		assert.Equal(t, KindMovie, doc.Kind)
		assert.Equal(t, "tt0468569", doc.ImdbID)
		assert.Equal(t, "The Dark Knight", doc.Title)
		assert.Equal(t, "Batman raises the stakes in his war on crime.", doc.Overview)
		assert.Equal(t, []string{"action", "science-fiction"}, doc.Genres)
	})

	t.Run("series", func(t *testing.T) {
		doc := SeriesToSearchDocument(&domain.Series{
			ID:     "68a1b2c3d4e5f60718293a4c",
			ImdbID: "tt0903747",
			Title:  "Breaking Bad",
			Genres: []string{"Crime", "Drama"},
		})

		assert.Equal(t, "68a1b2c3d4e5f60718293a4c", doc.ID)
		assert.Equal(t, KindSeries, doc.Kind)
		assert.Equal(t, "tt0903747", doc.ImdbID)
		assert.Equal(t, "Breaking Bad", doc.Title)
		assert.Equal(t, []string{"crime", "drama"}, doc.Genres)
	})
}

func TestDefaultSearchParams(t *testing.T) {
	params := DefaultSearchParams()

	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "relevance", params.SortBy)
	assert.True(t, params.IncludeFacets)
	assert.Contains(t, params.FacetFields, "genres")
}
