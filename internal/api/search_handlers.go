package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the catalog",
		Description: "Full-text search across movies and series with facets and highlighting",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

type SearchInput struct {
	Query  string `query:"q" doc:"Search terms; empty matches everything"`
	Kind   string `query:"kind" doc:"Comma-separated kinds to include (movie, series); empty includes both"`
	Genre  string `query:"genre" doc:"Comma-separated genre slugs to filter by"`
	Limit  int    `query:"limit" doc:"Maximum number of hits, defaults to 20"`
	Offset int    `query:"offset" doc:"Number of hits to skip"`
}

type SearchOutput struct {
	Body *search.SearchResult
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.search == nil {
		return nil, errors.NotFound("search is not enabled")
	}

	params := search.DefaultSearchParams()
	params.Query = strings.TrimSpace(input.Query)
	params.Kinds = splitCSV(input.Kind)
	params.GenreSlugs = splitCSV(input.Genre)
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var parts []string
	for part := range strings.SplitSeq(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
