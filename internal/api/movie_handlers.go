package api

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/domain"
)

func (s *Server) registerMovieRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "findAllMovies",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/findAll",
		Summary:     "List movies",
		Description: "Returns one page of the movie listing, optionally filtered by title",
		Tags:        []string{"Movies"},
	}, s.handleFindAllMovies)

	huma.Register(s.api, huma.Operation{
		OperationID: "findMovieById",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/findById/{id}",
		Summary:     "Get a movie",
		Description: "Returns the full movie document",
		Tags:        []string{"Movies"},
	}, s.handleFindMovieByID)

	huma.Register(s.api, huma.Operation{
		OperationID: "findMovieByImdbId",
		Method:      http.MethodGet,
		Path:        "/api/v1/movies/findByImdbId/{imdbId}",
		Summary:     "Get a movie by IMDb id",
		Description: "Returns the full movie document addressed by its IMDb id",
		Tags:        []string{"Movies"},
	}, s.handleFindMovieByImdbID)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createMovie",
		Method:        http.MethodPost,
		Path:          "/api/v1/movies/new",
		Summary:       "Create a movie",
		Description:   "Creates a movie and claims its IMDb id",
		Tags:          []string{"Movies"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateMovie)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMovie",
		Method:      http.MethodPut,
		Path:        "/api/v1/movies/update/{id}",
		Summary:     "Update a movie",
		Description: "Replaces every updatable field of a movie",
		Tags:        []string{"Movies"},
	}, s.handleUpdateMovie)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchMovie",
		Method:      http.MethodPatch,
		Path:        "/api/v1/movies/patch/{id}",
		Summary:     "Patch a movie field",
		Description: "Changes a single allow-listed field of a movie",
		Tags:        []string{"Movies"},
	}, s.handlePatchMovie)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMovie",
		Method:      http.MethodDelete,
		Path:        "/api/v1/movies/delete/{id}",
		Summary:     "Delete a movie",
		Description: "Deletes a movie and releases its IMDb id claim",
		Tags:        []string{"Movies"},
	}, s.handleDeleteMovie)
}

// === DTOs ===

type ListInput struct {
	Title string `query:"title" doc:"Case-insensitive title substring filter"`
	Page  int64  `query:"page" doc:"Page number, 0 and 1 both address the first page"`
	Size  int64  `query:"size" doc:"Page size, defaults to 10"`
}

type MoviePage struct {
	Movies      []domain.MovieItem `json:"movies"`
	CurrentPage int64              `json:"currentPage"`
	TotalItems  int64              `json:"totalItems"`
	TotalPages  int64              `json:"totalPages"`
}

type GetByIDInput struct {
	ID string `path:"id" doc:"Hex document id"`
}

type GetByImdbIDInput struct {
	ImdbID string `path:"imdbId" doc:"IMDb id, tt followed by at least seven digits"`
}

type MovieOutput struct {
	Body *domain.Movie
}

type CreateMovieInput struct {
	Body catalog.MovieDraft
}

type UpdateMovieInput struct {
	ID   string `path:"id" doc:"Hex document id"`
	Body catalog.MovieDraft
}

// PatchRequest carries a single-field change. The value arrives in the
// field's own type and is checked against the target's allow-list.
type PatchRequest struct {
	Field string `json:"field" doc:"Name of the field to change"`
	Value any    `json:"value" doc:"New value, in the field's declared type"`
}

type PatchInput struct {
	ID   string `path:"id" doc:"Hex document id"`
	Body PatchRequest
}

// === Handlers ===

func (s *Server) handleFindAllMovies(ctx context.Context, input *ListInput) (*PageOutput, error) {
	page, err := s.movies.FindAll(ctx, input.Title, catalog.PageParams{Page: input.Page, Size: input.Size})
	if err != nil {
		return emptyToNoContent(err)
	}
	return pageOutput(MoviePage{
		Movies:      page.Items,
		CurrentPage: page.CurrentPage,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
	})
}

func (s *Server) handleFindMovieByID(ctx context.Context, input *GetByIDInput) (*MovieOutput, error) {
	movie, err := s.movies.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &MovieOutput{Body: movie}, nil
}

func (s *Server) handleFindMovieByImdbID(ctx context.Context, input *GetByImdbIDInput) (*MovieOutput, error) {
	movie, err := s.movies.FindByImdbID(ctx, input.ImdbID)
	if err != nil {
		return nil, err
	}
	return &MovieOutput{Body: movie}, nil
}

func (s *Server) handleCreateMovie(ctx context.Context, input *CreateMovieInput) (*MessageOutput, error) {
	movie, err := s.movies.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return createdOutput("Movie", movie.ID), nil
}

func (s *Server) handleUpdateMovie(ctx context.Context, input *UpdateMovieInput) (*MessageOutput, error) {
	modified, err := s.movies.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return updatedOutput("Movie", input.ID, modified), nil
}

func (s *Server) handlePatchMovie(ctx context.Context, input *PatchInput) (*MessageOutput, error) {
	params, err := patchParams(input.Body)
	if err != nil {
		return nil, err
	}
	modified, err := s.movies.Patch(ctx, input.ID, params)
	if err != nil {
		return nil, err
	}
	return patchedOutput("Movie", input.Body.Field, input.ID, modified), nil
}

func (s *Server) handleDeleteMovie(ctx context.Context, input *GetByIDInput) (*MessageOutput, error) {
	if err := s.movies.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return deletedOutput("Movie", input.ID), nil
}

// patchParams re-encodes the untyped patch value so the engine's typed
// decoders see the caller's raw JSON.
func patchParams(req PatchRequest) (catalog.PatchParams, error) {
	raw, err := json.Marshal(req.Value)
	if err != nil {
		return catalog.PatchParams{}, err
	}
	return catalog.PatchParams{Field: req.Field, Value: jsontext.Value(raw)}, nil
}
