// Package api exposes the catalog engine over HTTP.
//
// Routing is chi, operations are registered through huma so the OpenAPI
// description stays in sync with the handlers. All wire shapes are defined
// here as input/output structs next to the handlers that use them.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/ratelimit"
	"github.com/cinelogapp/cinelog-server/internal/search"
)

// Server holds the handler dependencies and the configured router.
type Server struct {
	movies  *catalog.MovieService
	series  *catalog.SeriesService
	reviews *catalog.ReviewService
	auditor *catalog.Auditor
	search  *search.SearchIndex
	limiter *ratelimit.KeyedRateLimiter
	router  *chi.Mux
	api     huma.API
	logger  *slog.Logger
}

// NewServer builds the router and registers every route. The search index
// and the rate limiter may be nil: without an index the search endpoint
// reports that search is disabled, without a limiter no throttling happens.
func NewServer(
	movies *catalog.MovieService,
	series *catalog.SeriesService,
	reviews *catalog.ReviewService,
	auditor *catalog.Auditor,
	searchIndex *search.SearchIndex,
	limiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *Server {
	s := &Server{
		movies:  movies,
		series:  series,
		reviews: reviews,
		auditor: auditor,
		search:  searchIndex,
		limiter: limiter,
		router:  chi.NewRouter(),
		logger:  logger,
	}

	s.setupMiddleware()

	// Built by hand instead of huma.DefaultConfig: the default config
	// installs a schema link transformer that injects a "$schema" field
	// into every response body, and the response shapes here are fixed.
	registry := huma.NewMapRegistry("#/components/schemas/", huma.DefaultSchemaNamer)
	s.api = humachi.New(s.router, huma.Config{
		OpenAPI: &huma.OpenAPI{
			OpenAPI: "3.1.0",
			Info: &huma.Info{
				Title:   "CineLog API",
				Version: "1.0.0",
			},
			Components: &huma.Components{Schemas: registry},
		},
		OpenAPIPath:   "/api/v1/openapi",
		DocsPath:      "/api/v1/docs",
		SchemasPath:   "/api/v1/schemas",
		Formats:       huma.DefaultFormats,
		DefaultFormat: "application/json",
	})

	RegisterErrorHandler()

	s.registerGeneralRoutes()
	s.registerMovieRoutes()
	s.registerSeriesRoutes()
	s.registerReviewRoutes()
	s.registerSearchRoutes()
	s.registerAuditRoutes()

	return s
}

// ServeHTTP hands the request to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware)
	}
}
