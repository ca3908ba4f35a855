package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/config"
	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/logger"
	"github.com/cinelogapp/cinelog-server/internal/media/posters"
	"github.com/cinelogapp/cinelog-server/internal/search"
	"github.com/cinelogapp/cinelog-server/internal/store"
)

// SearchIndexHandle holds the Bleve index for injection. The embedded index
// stays nil when search is disabled, so consumers must check before use.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown closes the index files on container teardown.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex opens the Bleve index under the configured data path.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	if n, err := index.DocumentCount(); err == nil {
		log.Info("Search index opened", "documents", n)
	}

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideCatalogIndexer composes the indexer the catalog services notify
// after writes. The chain is poster hook first, then the search index; either
// half drops out when disabled. A nil result disables indexing entirely.
func ProvideCatalogIndexer(i do.Injector) (catalog.SearchIndexer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	var next catalog.SearchIndexer
	if indexHandle.SearchIndex != nil {
		next = indexHandle.SearchIndex
	}

	if !cfg.Posters.Enabled {
		return next, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	fetcher := posters.NewFetcher(storeHandle.Store, log.Logger)

	log.Info("Poster enrichment enabled")

	return posters.NewHook(next, fetcher, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the catalog.
// A fresh data directory, a mapping upgrade or a restore from backup all
// leave the index behind the store; this catches it up without manual
// intervention. Call it after the whole graph is wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	if indexHandle.SearchIndex == nil {
		return
	}
	if n, _ := indexHandle.DocumentCount(); n > 0 {
		return
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	var stored int64
	for _, collection := range []string{store.CollectionMovies, store.CollectionSeries} {
		n, err := storeHandle.Count(ctx, collection, store.Filter{})
		if err != nil {
			return
		}
		stored += n
	}
	if stored == 0 {
		return
	}

	log.Info("Search index empty, reindexing catalog", "documents", stored)

	go func() {
		if err := reindexCatalog(context.Background(), storeHandle.Store, indexHandle.SearchIndex); err != nil {
			log.Error("Catalog reindex failed", "error", err)
			return
		}
		n, _ := indexHandle.DocumentCount()
		log.Info("Catalog reindex completed", "documents", n)
	}()
}

// reindexCatalog feeds every movie and series in the store to the index.
func reindexCatalog(ctx context.Context, st store.Store, index *search.SearchIndex) error {
	var movies []domain.Movie
	if err := st.Find(ctx, store.CollectionMovies, store.Filter{}, 0, 0, &movies); err != nil {
		return err
	}
	docs := make([]*search.SearchDocument, 0, len(movies))
	for i := range movies {
		docs = append(docs, search.MovieToSearchDocument(&movies[i]))
	}

	var series []domain.Series
	if err := st.Find(ctx, store.CollectionSeries, store.Filter{}, 0, 0, &series); err != nil {
		return err
	}
	for i := range series {
		docs = append(docs, search.SeriesToSearchDocument(&series[i]))
	}

	return index.IndexDocuments(docs)
}
