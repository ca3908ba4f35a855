// Package di wires the CineLog server together through samber/do.
package di

import (
	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/config"
	"github.com/cinelogapp/cinelog-server/internal/di/providers"
	"github.com/cinelogapp/cinelog-server/internal/logger"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

// NewContainer registers every provider on a fresh injector. Providers
// are lazy: nothing is built until Bootstrap invokes it.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Foundation: config, logging, persistence
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// Search index and the hook that keeps it fed
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideCatalogIndexer)

	// Catalog services and their invariant machinery
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideMovieService)
	do.Provide(injector, providers.ProvideSeriesService)
	do.Provide(injector, providers.ProvideReviewService)
	do.Provide(injector, providers.ProvideAuditor)

	// Background workers
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideDropWatcher)

	// Outer surfaces
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap forces construction of the whole graph in dependency order
// and runs the startup reindex check. When it returns, the server is
// listening and every worker is running.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	_ = do.MustInvoke[*catalog.Registry](injector)
	_ = do.MustInvoke[*catalog.MovieService](injector)
	_ = do.MustInvoke[*catalog.SeriesService](injector)
	_ = do.MustInvoke[*catalog.ReviewService](injector)
	_ = do.MustInvoke[*catalog.Auditor](injector)

	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.DropWatcherHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Reindex from the store when the index is empty or was rebuilt.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
