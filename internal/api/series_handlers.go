package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/domain"
)

func (s *Server) registerSeriesRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "findAllSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/findAll",
		Summary:     "List series",
		Description: "Returns one page of the series listing, optionally filtered by title",
		Tags:        []string{"Series"},
	}, s.handleFindAllSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "findSeriesById",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/findById/{id}",
		Summary:     "Get a series",
		Description: "Returns the full series document including its seasons",
		Tags:        []string{"Series"},
	}, s.handleFindSeriesByID)

	huma.Register(s.api, huma.Operation{
		OperationID: "findSeriesByImdbId",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/findByImdbId/{imdbId}",
		Summary:     "Get a series by IMDb id",
		Description: "Returns the full series document addressed by its IMDb id",
		Tags:        []string{"Series"},
	}, s.handleFindSeriesByImdbID)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSeries",
		Method:        http.MethodPost,
		Path:          "/api/v1/series/new",
		Summary:       "Create a series",
		Description:   "Creates a series and claims its IMDb id; every season needs at least one episode",
		Tags:          []string{"Series"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSeries",
		Method:      http.MethodPut,
		Path:        "/api/v1/series/update/{id}",
		Summary:     "Update a series",
		Description: "Replaces every updatable field of a series",
		Tags:        []string{"Series"},
	}, s.handleUpdateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchSeries",
		Method:      http.MethodPatch,
		Path:        "/api/v1/series/patch/{id}",
		Summary:     "Patch a series field",
		Description: "Changes a single allow-listed field of a series",
		Tags:        []string{"Series"},
	}, s.handlePatchSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSeries",
		Method:      http.MethodDelete,
		Path:        "/api/v1/series/delete/{id}",
		Summary:     "Delete a series",
		Description: "Deletes a series and releases its IMDb id claim",
		Tags:        []string{"Series"},
	}, s.handleDeleteSeries)
}

// === DTOs ===

type SeriesPage struct {
	Series      []domain.SeriesItem `json:"series"`
	CurrentPage int64               `json:"currentPage"`
	TotalItems  int64               `json:"totalItems"`
	TotalPages  int64               `json:"totalPages"`
}

type SeriesOutput struct {
	Body *domain.Series
}

type CreateSeriesInput struct {
	Body catalog.SeriesDraft
}

type UpdateSeriesInput struct {
	ID   string `path:"id" doc:"Hex document id"`
	Body catalog.SeriesDraft
}

// === Handlers ===

func (s *Server) handleFindAllSeries(ctx context.Context, input *ListInput) (*PageOutput, error) {
	page, err := s.series.FindAll(ctx, input.Title, catalog.PageParams{Page: input.Page, Size: input.Size})
	if err != nil {
		return emptyToNoContent(err)
	}
	return pageOutput(SeriesPage{
		Series:      page.Items,
		CurrentPage: page.CurrentPage,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
	})
}

func (s *Server) handleFindSeriesByID(ctx context.Context, input *GetByIDInput) (*SeriesOutput, error) {
	series, err := s.series.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SeriesOutput{Body: series}, nil
}

func (s *Server) handleFindSeriesByImdbID(ctx context.Context, input *GetByImdbIDInput) (*SeriesOutput, error) {
	series, err := s.series.FindByImdbID(ctx, input.ImdbID)
	if err != nil {
		return nil, err
	}
	return &SeriesOutput{Body: series}, nil
}

func (s *Server) handleCreateSeries(ctx context.Context, input *CreateSeriesInput) (*MessageOutput, error) {
	series, err := s.series.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return createdOutput("Series", series.ID), nil
}

func (s *Server) handleUpdateSeries(ctx context.Context, input *UpdateSeriesInput) (*MessageOutput, error) {
	modified, err := s.series.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return updatedOutput("Series", input.ID, modified), nil
}

func (s *Server) handlePatchSeries(ctx context.Context, input *PatchInput) (*MessageOutput, error) {
	params, err := patchParams(input.Body)
	if err != nil {
		return nil, err
	}
	modified, err := s.series.Patch(ctx, input.ID, params)
	if err != nil {
		return nil, err
	}
	return patchedOutput("Series", input.Body.Field, input.ID, modified), nil
}

func (s *Server) handleDeleteSeries(ctx context.Context, input *GetByIDInput) (*MessageOutput, error) {
	if err := s.series.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return deletedOutput("Series", input.ID), nil
}
