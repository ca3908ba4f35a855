package providers

import (
	"github.com/samber/do/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/logger"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

// ProvideValidator provides the draft validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideRegistry provides the IMDb id claim registry.
func ProvideRegistry(i do.Injector) (*catalog.Registry, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	return catalog.NewRegistry(storeHandle.Store), nil
}

// ProvideMovieService provides the movie catalog service.
func ProvideMovieService(i do.Injector) (*catalog.MovieService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	registry := do.MustInvoke[*catalog.Registry](i)
	validate := do.MustInvoke[*validation.Validator](i)
	indexer := do.MustInvoke[catalog.SearchIndexer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewMovieService(storeHandle.Store, registry, validate, indexer, log.Logger), nil
}

// ProvideSeriesService provides the series catalog service.
func ProvideSeriesService(i do.Injector) (*catalog.SeriesService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	registry := do.MustInvoke[*catalog.Registry](i)
	validate := do.MustInvoke[*validation.Validator](i)
	indexer := do.MustInvoke[catalog.SearchIndexer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewSeriesService(storeHandle.Store, registry, validate, indexer, log.Logger), nil
}

// ProvideReviewService provides the review catalog service.
func ProvideReviewService(i do.Injector) (*catalog.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	registry := do.MustInvoke[*catalog.Registry](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewReviewService(storeHandle.Store, registry, validate, log.Logger), nil
}

// ProvideAuditor provides the catalog consistency auditor.
func ProvideAuditor(i do.Injector) (*catalog.Auditor, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewAuditor(storeHandle.Store, log.Logger), nil
}
