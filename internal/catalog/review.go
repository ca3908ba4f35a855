package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/store"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

// ReviewDraft is the caller-supplied payload for creating a review. The
// imdbId names the movie or series the review attaches to; ownership is
// fixed at creation and cannot be moved afterwards.
type ReviewDraft struct {
	Title  string `json:"title" validate:"min=1"`
	Rating int    `json:"rating" validate:"gte=0,lte=5"`
	Body   string `json:"body" validate:"min=1"`
	ImdbID string `json:"imdbId" validate:"imdbid"`
}

// ReviewUpdate is the caller-supplied payload for rewriting a review's
// content.
type ReviewUpdate struct {
	Title  string `json:"title" validate:"min=1"`
	Rating int    `json:"rating" validate:"gte=0,lte=5"`
	Body   string `json:"body" validate:"min=1"`
}

// reviewPatchFields is the closed set of review fields a patch may target.
// The owner reference and the timestamps are deliberately absent.
var reviewPatchFields = map[string]fieldDecoder{
	"title":  decodeString,
	"rating": decodeRating,
	"body":   decodeString,
}

// ReviewService orchestrates review reads and writes, keeping the owner's
// reviewIds array and the review's back-reference in step.
type ReviewService struct {
	store    store.Store
	registry *Registry
	validate *validation.Validator
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(st store.Store, registry *Registry, validate *validation.Validator, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:    st,
		registry: registry,
		validate: validate,
		logger:   logger,
	}
}

// FindAll returns one page of the review listing. An empty page fails with
// Empty rather than returning an empty list.
func (s *ReviewService) FindAll(ctx context.Context, params PageParams) (*PageResult[domain.ReviewItem], error) {
	params.Normalize()

	total, err := s.store.Count(ctx, store.CollectionReviews, store.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "count reviews")
	}
	var reviews []domain.Review
	if err := s.store.Find(ctx, store.CollectionReviews, store.Filter{}, params.Skip(), params.Size, &reviews); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "find reviews")
	}
	if len(reviews) == 0 {
		return nil, errors.Empty()
	}

	items := make([]domain.ReviewItem, 0, len(reviews))
	for i := range reviews {
		items = append(items, reviews[i].Item())
	}
	return newPageResult(items, params, total), nil
}

// FindByID returns a review by its document id.
func (s *ReviewService) FindByID(ctx context.Context, id string) (*domain.ReviewItem, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var review domain.Review
	if err := s.store.Get(ctx, store.CollectionReviews, id, &review); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, errors.NotFoundf("review with id '%s' not found", id)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get review")
	}
	item := review.Item()
	return &item, nil
}

// FindAllByImdbID returns every review attached to the movie or series
// claiming the imdbId, in attachment order. The list is not paginated. It
// fails with NotExists when nothing claims the id and with Empty when the
// owner has no reviews.
func (s *ReviewService) FindAllByImdbID(ctx context.Context, imdbID string) ([]domain.ReviewItem, error) {
	if !validation.IsImdbID(imdbID) {
		return nil, errors.WrongImdbID(imdbID)
	}
	claim, err := s.registry.Owner(ctx, imdbID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve imdbId")
	}
	if claim == nil {
		return nil, errors.NotExistsf("no movie or series with imdbId '%s'", imdbID)
	}
	reviewIDs, err := s.ownerReviewIDs(ctx, claim)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReviewItem, 0, len(reviewIDs))
	for _, reviewID := range reviewIDs {
		var review domain.Review
		if err := s.store.Get(ctx, store.CollectionReviews, reviewID, &review); err != nil {
			if errors.Is(err, store.ErrNoDocument) {
				// Dangling reference; skip it like an id-in-set query would.
				s.logger.Warn("reviewIds entry points at a missing review", "review_id", reviewID, "imdb_id", imdbID)
				continue
			}
			return nil, errors.Wrap(err, errors.CodeInternal, "get review")
		}
		items = append(items, review.Item())
	}
	if len(items) == 0 {
		return nil, errors.Empty()
	}
	return items, nil
}

// ownerReviewIDs loads just the reviewIds array of an owner document.
func (s *ReviewService) ownerReviewIDs(ctx context.Context, claim *domain.ImdbClaim) ([]string, error) {
	var owner struct {
		ReviewIDs []string `json:"reviewIds"`
	}
	if err := s.store.Get(ctx, collectionFor(claim.OwnerKind), claim.OwnerID, &owner); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			s.logger.Warn("imdbId claim points at a missing owner", "imdb_id", claim.ImdbID, "owner_id", claim.OwnerID)
			return nil, errors.NotExistsf("no movie or series with imdbId '%s'", claim.ImdbID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get review owner")
	}
	return owner.ReviewIDs, nil
}

// MovieOwnerOf reports whether a movie owns the review, and which one.
func (s *ReviewService) MovieOwnerOf(ctx context.Context, reviewID string) (bool, string, error) {
	return s.ownerOf(ctx, reviewID, domain.OwnerMovie)
}

// SeriesOwnerOf reports whether a series owns the review, and which one.
func (s *ReviewService) SeriesOwnerOf(ctx context.Context, reviewID string) (bool, string, error) {
	return s.ownerOf(ctx, reviewID, domain.OwnerSeries)
}

// ownerOf answers a reverse ownership probe from the review's own owner
// reference. Unknown and malformed ids probe false rather than failing.
func (s *ReviewService) ownerOf(ctx context.Context, reviewID string, kind domain.OwnerKind) (bool, string, error) {
	reviewID, err := ParseID(reviewID)
	if err != nil {
		return false, "", nil
	}
	var review domain.Review
	if err := s.store.Get(ctx, store.CollectionReviews, reviewID, &review); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, "", nil
		}
		return false, "", errors.Wrap(err, errors.CodeInternal, "get review")
	}
	if review.OwnerKind != kind {
		return false, "", nil
	}
	return true, review.OwnerID, nil
}

// Create validates and stores a new review, attached to whichever movie or
// series claims the draft's imdbId. The review is written first and the
// owner's reviewIds push second; if the push fails the review is deleted
// again so the two documents never disagree.
func (s *ReviewService) Create(ctx context.Context, draft ReviewDraft) (*domain.Review, error) {
	if err := s.validate.Validate(draft); err != nil {
		return nil, err
	}
	claim, err := s.registry.Owner(ctx, draft.ImdbID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve imdbId")
	}
	if claim == nil {
		return nil, errors.NotExistsf("no movie or series with imdbId '%s'", draft.ImdbID)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        NewID(),
		Title:     draft.Title,
		Rating:    draft.Rating,
		Body:      draft.Body,
		OwnerKind: claim.OwnerKind,
		OwnerID:   claim.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, store.CollectionReviews, review.ID, review); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "insert review")
	}
	if _, err := s.store.Push(ctx, collectionFor(claim.OwnerKind), claim.OwnerID, "reviewIds", review.ID); err != nil {
		if _, delErr := s.store.Delete(ctx, store.CollectionReviews, review.ID); delErr != nil {
			s.logger.Error("failed to roll back review after push failure", "review_id", review.ID, "error", delErr)
		}
		if errors.Is(err, store.ErrNoDocument) {
			s.logger.Warn("imdbId claim points at a missing owner", "imdb_id", draft.ImdbID, "owner_id", claim.OwnerID)
			return nil, errors.NotExistsf("no movie or series with imdbId '%s'", draft.ImdbID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "attach review to owner")
	}

	s.logger.Info("review created", "review_id", review.ID, "owner_kind", claim.OwnerKind, "owner_id", claim.OwnerID)
	return review, nil
}

// Update rewrites a review's content. Resubmitting the stored values
// reports changed=false and leaves updatedAt alone; an actual change stamps
// updatedAt alongside the new content.
func (s *ReviewService) Update(ctx context.Context, id string, upd ReviewUpdate) (bool, error) {
	id, err := ParseID(id)
	if err != nil {
		return false, err
	}
	if err := s.validate.Validate(upd); err != nil {
		return false, err
	}
	var review domain.Review
	if err := s.store.Get(ctx, store.CollectionReviews, id, &review); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, errors.NotExistsf("review with id '%s' does not exist", id)
		}
		return false, errors.Wrap(err, errors.CodeInternal, "get review")
	}
	if review.Title == upd.Title && review.Rating == upd.Rating && review.Body == upd.Body {
		return false, nil
	}

	review.Touch(time.Now().UTC())
	if _, err := s.store.SetFields(ctx, store.CollectionReviews, id, map[string]any{
		"title":     upd.Title,
		"rating":    upd.Rating,
		"body":      upd.Body,
		"updatedAt": review.UpdatedAt,
	}); err != nil {
		return false, errors.Wrap(err, errors.CodeInternal, "update review")
	}
	s.logger.Info("review updated", "review_id", id)
	return true, nil
}

// Patch sets a single review field. The allow-list is {title, rating,
// body}; ownership is immutable after creation, so the owner reference is
// not patchable. Patching in the stored value reports changed=false and
// leaves updatedAt alone.
func (s *ReviewService) Patch(ctx context.Context, id string, params PatchParams) (bool, error) {
	id, err := ParseID(id)
	if err != nil {
		return false, err
	}
	decode, ok := reviewPatchFields[params.Field]
	if !ok {
		return false, errors.FieldNotAllowed(params.Field)
	}
	var review domain.Review
	if err := s.store.Get(ctx, store.CollectionReviews, id, &review); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, errors.NotExistsf("review with id '%s' does not exist", id)
		}
		return false, errors.Wrap(err, errors.CodeInternal, "get review")
	}
	value, err := decode(params.Value)
	if err != nil {
		return false, errors.ValidationWithDetails("validation failed", map[string]string{params.Field: err.Error()})
	}

	same := false
	switch params.Field {
	case "title":
		same = review.Title == value.(string)
	case "rating":
		same = review.Rating == value.(int)
	case "body":
		same = review.Body == value.(string)
	}
	if same {
		return false, nil
	}

	review.Touch(time.Now().UTC())
	if _, err := s.store.SetFields(ctx, store.CollectionReviews, id, map[string]any{
		params.Field: value,
		"updatedAt":  review.UpdatedAt,
	}); err != nil {
		return false, errors.Wrap(err, errors.CodeInternal, "patch review")
	}
	s.logger.Info("review patched", "review_id", id, "field", params.Field)
	return true, nil
}

// Delete detaches a review from its owner, then removes it. The pull runs
// first so a failure cannot leave a deleted review still referenced; an
// owner that is already gone or no longer holds the reference is logged
// and the delete proceeds, because the review itself is what the caller
// asked to remove.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	id, err := ParseID(id)
	if err != nil {
		return err
	}
	var review domain.Review
	if err := s.store.Get(ctx, store.CollectionReviews, id, &review); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return errors.NotExistsf("review with id '%s' does not exist", id)
		}
		return errors.Wrap(err, errors.CodeInternal, "get review")
	}

	removed, err := s.store.Pull(ctx, collectionFor(review.OwnerKind), review.OwnerID, "reviewIds", id)
	switch {
	case err != nil && !errors.Is(err, store.ErrNoDocument):
		return errors.Wrap(err, errors.CodeInternal, "detach review from owner")
	case err != nil || !removed:
		s.logger.Warn("review owner did not hold the reference", "review_id", id, "owner_kind", review.OwnerKind, "owner_id", review.OwnerID)
	}

	if _, err := s.store.Delete(ctx, store.CollectionReviews, id); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete review")
	}

	s.logger.Info("review deleted", "review_id", id, "owner_kind", review.OwnerKind, "owner_id", review.OwnerID)
	return nil
}
