package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/domain"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "findAllReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/findAll",
		Summary:     "List reviews",
		Description: "Returns one page of the review listing across all titles",
		Tags:        []string{"Reviews"},
	}, s.handleFindAllReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "findAllReviewsByImdbId",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/findAllByImdbId/{imdbId}",
		Summary:     "List reviews of a title",
		Description: "Returns every review attached to the movie or series claiming the IMDb id",
		Tags:        []string{"Reviews"},
	}, s.handleFindAllReviewsByImdbID)

	huma.Register(s.api, huma.Operation{
		OperationID: "findReviewById",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/findById/{id}",
		Summary:     "Get a review",
		Description: "Returns a single review",
		Tags:        []string{"Reviews"},
	}, s.handleFindReviewByID)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/reviews/new",
		Summary:       "Create a review",
		Description:   "Creates a review attached to the movie or series claiming its IMDb id",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPut,
		Path:        "/api/v1/reviews/update/{id}",
		Summary:     "Update a review",
		Description: "Replaces the title, rating and body of a review",
		Tags:        []string{"Reviews"},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reviews/patch/{id}",
		Summary:     "Patch a review field",
		Description: "Changes a single allow-listed field of a review",
		Tags:        []string{"Reviews"},
	}, s.handlePatchReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/delete/{id}",
		Summary:     "Delete a review",
		Description: "Deletes a review and detaches it from its owner",
		Tags:        []string{"Reviews"},
	}, s.handleDeleteReview)
}

// === DTOs ===

type ListReviewsInput struct {
	Page int64 `query:"page" doc:"Page number, 0 and 1 both address the first page"`
	Size int64 `query:"size" doc:"Page size, defaults to 10"`
}

type ReviewPage struct {
	Reviews     []domain.ReviewItem `json:"reviews"`
	CurrentPage int64               `json:"currentPage"`
	TotalItems  int64               `json:"totalItems"`
	TotalPages  int64               `json:"totalPages"`
}

type ReviewOutput struct {
	Body *domain.ReviewItem
}

type CreateReviewInput struct {
	Body catalog.ReviewDraft
}

type UpdateReviewInput struct {
	ID   string `path:"id" doc:"Hex document id"`
	Body catalog.ReviewUpdate
}

// === Handlers ===

func (s *Server) handleFindAllReviews(ctx context.Context, input *ListReviewsInput) (*PageOutput, error) {
	page, err := s.reviews.FindAll(ctx, catalog.PageParams{Page: input.Page, Size: input.Size})
	if err != nil {
		return emptyToNoContent(err)
	}
	return pageOutput(ReviewPage{
		Reviews:     page.Items,
		CurrentPage: page.CurrentPage,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
	})
}

func (s *Server) handleFindAllReviewsByImdbID(ctx context.Context, input *GetByImdbIDInput) (*PageOutput, error) {
	reviews, err := s.reviews.FindAllByImdbID(ctx, input.ImdbID)
	if err != nil {
		return emptyToNoContent(err)
	}
	return pageOutput(reviews)
}

func (s *Server) handleFindReviewByID(ctx context.Context, input *GetByIDInput) (*ReviewOutput, error) {
	review, err := s.reviews.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*MessageOutput, error) {
	review, err := s.reviews.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return createdOutput("Review", review.ID), nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*MessageOutput, error) {
	modified, err := s.reviews.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return updatedOutput("Review", input.ID, modified), nil
}

func (s *Server) handlePatchReview(ctx context.Context, input *PatchInput) (*MessageOutput, error) {
	params, err := patchParams(input.Body)
	if err != nil {
		return nil, err
	}
	modified, err := s.reviews.Patch(ctx, input.ID, params)
	if err != nil {
		return nil, err
	}
	return patchedOutput("Review", input.Body.Field, input.ID, modified), nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *GetByIDInput) (*MessageOutput, error) {
	if err := s.reviews.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return deletedOutput("Review", input.ID), nil
}
