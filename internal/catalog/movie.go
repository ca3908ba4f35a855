package catalog

import (
	"context"
	"log/slog"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/store"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

// MovieDraft is the caller-supplied movie payload for create and update.
type MovieDraft struct {
	ImdbID      string   `json:"imdbId" validate:"imdbid"`
	Title       string   `json:"title" validate:"min=1"`
	Overview    string   `json:"overview" validate:"min=1"`
	Duration    string   `json:"duration" validate:"movie_duration"`
	Director    string   `json:"director" validate:"person_name"`
	ReleaseDate string   `json:"releaseDate" validate:"release_date"`
	TrailerLink string   `json:"trailerLink" validate:"youtube_url"`
	Genres      []string `json:"genres" validate:"min=1"`
	Poster      string   `json:"poster" validate:"image_url"`
	Backdrop    string   `json:"backdrop" validate:"image_url"`
}

// moviePatchFields is the closed set of movie fields a patch may target,
// each with the decoder for its value. reviewIds is deliberately absent:
// the review service owns that array.
var moviePatchFields = map[string]fieldDecoder{
	"imdbId":      decodeString,
	"title":       decodeString,
	"overview":    decodeString,
	"duration":    decodeString,
	"director":    decodeString,
	"releaseDate": decodeString,
	"trailerLink": decodeString,
	"genres":      decodeStringList,
	"poster":      decodeString,
	"backdrop":    decodeString,
}

func movieFromDraft(id string, draft MovieDraft, reviewIDs []string) *domain.Movie {
	return &domain.Movie{
		ID:          id,
		ImdbID:      draft.ImdbID,
		Title:       draft.Title,
		Overview:    draft.Overview,
		Duration:    draft.Duration,
		Director:    draft.Director,
		ReleaseDate: draft.ReleaseDate,
		TrailerLink: draft.TrailerLink,
		Genres:      draft.Genres,
		Poster:      draft.Poster,
		Backdrop:    draft.Backdrop,
		ReviewIDs:   reviewIDs,
	}
}

// MovieService orchestrates movie reads and writes.
type MovieService struct {
	store    store.Store
	registry *Registry
	validate *validation.Validator
	indexer  SearchIndexer
	logger   *slog.Logger
}

// NewMovieService creates a new movie service.
func NewMovieService(st store.Store, registry *Registry, validate *validation.Validator, indexer SearchIndexer, logger *slog.Logger) *MovieService {
	return &MovieService{
		store:    st,
		registry: registry,
		validate: validate,
		indexer:  indexer,
		logger:   logger,
	}
}

// FindAll returns one page of the movie listing, optionally filtered by a
// case-insensitive title substring. An empty page fails with Empty rather
// than returning an empty list.
func (s *MovieService) FindAll(ctx context.Context, title string, params PageParams) (*PageResult[domain.MovieItem], error) {
	params.Normalize()
	filter := store.Filter{TitleContains: title}

	total, err := s.store.Count(ctx, store.CollectionMovies, filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "count movies")
	}
	var movies []domain.Movie
	if err := s.store.Find(ctx, store.CollectionMovies, filter, params.Skip(), params.Size, &movies); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "find movies")
	}
	if len(movies) == 0 {
		return nil, errors.Empty()
	}

	items := make([]domain.MovieItem, 0, len(movies))
	for i := range movies {
		items = append(items, movies[i].Item())
	}
	return newPageResult(items, params, total), nil
}

// FindByID returns a movie by its document id.
func (s *MovieService) FindByID(ctx context.Context, id string) (*domain.Movie, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var movie domain.Movie
	if err := s.store.Get(ctx, store.CollectionMovies, id, &movie); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, errors.NotFoundf("movie with id '%s' not found", id)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get movie")
	}
	return &movie, nil
}

// FindByImdbID returns the movie claiming an imdbId. The format check runs
// before any storage access, so a malformed id never reaches the store.
func (s *MovieService) FindByImdbID(ctx context.Context, imdbID string) (*domain.Movie, error) {
	if !validation.IsImdbID(imdbID) {
		return nil, errors.WrongImdbID(imdbID)
	}
	claim, err := s.registry.Owner(ctx, imdbID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve imdbId")
	}
	if claim == nil || claim.OwnerKind != domain.OwnerMovie {
		return nil, errors.NotFoundf("movie with imdbId '%s' not found", imdbID)
	}
	var movie domain.Movie
	if err := s.store.Get(ctx, store.CollectionMovies, claim.OwnerID, &movie); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			s.logger.Warn("imdbId claim points at a missing movie", "imdb_id", imdbID, "movie_id", claim.OwnerID)
			return nil, errors.NotFoundf("movie with imdbId '%s' not found", imdbID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get movie")
	}
	return &movie, nil
}

// ExistsByImdbID reports whether a movie claims the imdbId.
func (s *MovieService) ExistsByImdbID(ctx context.Context, imdbID string) (bool, error) {
	claim, err := s.registry.Owner(ctx, imdbID)
	if err != nil {
		return false, err
	}
	return claim != nil && claim.OwnerKind == domain.OwnerMovie, nil
}

// Create validates and stores a new movie. The imdbId claim is reserved
// before the document is written; a failed write releases the claim again
// so the id is not burned.
func (s *MovieService) Create(ctx context.Context, draft MovieDraft) (*domain.Movie, error) {
	if err := s.validate.Validate(draft); err != nil {
		return nil, err
	}

	movie := movieFromDraft(NewID(), draft, []string{})
	claim := domain.ImdbClaim{ImdbID: movie.ImdbID, OwnerKind: domain.OwnerMovie, OwnerID: movie.ID}
	if err := s.registry.Reserve(ctx, claim); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return nil, errors.AlreadyExistsf("a movie or series with imdbId '%s' already exists", movie.ImdbID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "reserve imdbId")
	}
	if err := s.store.Insert(ctx, store.CollectionMovies, movie.ID, movie); err != nil {
		if relErr := s.registry.Release(ctx, movie.ImdbID); relErr != nil {
			s.logger.Error("failed to release imdbId claim after insert failure", "imdb_id", movie.ImdbID, "error", relErr)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "insert movie")
	}

	s.logger.Info("movie created", "movie_id", movie.ID, "imdb_id", movie.ImdbID, "title", movie.Title)

	// Off the request path; a failed indexing never fails the write.
	if s.indexer != nil {
		go func() {
			if err := s.indexer.IndexMovie(context.Background(), movie); err != nil {
				s.logger.Warn("failed to index movie for search", "movie_id", movie.ID, "error", err)
			}
		}()
	}

	return movie, nil
}

// Update replaces every caller-editable field of a movie. Renaming the
// imdbId re-runs the uniqueness reservation; resubmitting the stored values
// reports changed=false so the caller can surface the no-op outcome.
func (s *MovieService) Update(ctx context.Context, id string, draft MovieDraft) (bool, error) {
	id, err := ParseID(id)
	if err != nil {
		return false, err
	}
	var existing domain.Movie
	if err := s.store.Get(ctx, store.CollectionMovies, id, &existing); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, errors.NotExistsf("movie with id '%s' does not exist", id)
		}
		return false, errors.Wrap(err, errors.CodeInternal, "get movie")
	}
	renaming := draft.ImdbID != existing.ImdbID
	if renaming && !validation.IsImdbID(draft.ImdbID) {
		return false, errors.WrongImdbID(draft.ImdbID)
	}
	if err := s.validate.Validate(draft); err != nil {
		return false, err
	}
	if renaming {
		claim := domain.ImdbClaim{ImdbID: draft.ImdbID, OwnerKind: domain.OwnerMovie, OwnerID: id}
		if err := s.registry.Reserve(ctx, claim); err != nil {
			if errors.Is(err, store.ErrDuplicateID) {
				return false, errors.ImdbIDInUse(draft.ImdbID)
			}
			return false, errors.Wrap(err, errors.CodeInternal, "reserve imdbId")
		}
	}

	changed, err := s.store.SetFields(ctx, store.CollectionMovies, id, map[string]any{
		"imdbId":      draft.ImdbID,
		"title":       draft.Title,
		"overview":    draft.Overview,
		"duration":    draft.Duration,
		"director":    draft.Director,
		"releaseDate": draft.ReleaseDate,
		"trailerLink": draft.TrailerLink,
		"genres":      draft.Genres,
		"poster":      draft.Poster,
		"backdrop":    draft.Backdrop,
	})
	if err != nil {
		if renaming {
			if relErr := s.registry.Release(ctx, draft.ImdbID); relErr != nil {
				s.logger.Error("failed to release imdbId claim after update failure", "imdb_id", draft.ImdbID, "error", relErr)
			}
		}
		return false, errors.Wrap(err, errors.CodeInternal, "update movie")
	}
	if renaming {
		if err := s.registry.Release(ctx, existing.ImdbID); err != nil {
			s.logger.Warn("failed to release replaced imdbId claim", "imdb_id", existing.ImdbID, "error", err)
		}
	}
	if changed {
		s.logger.Info("movie updated", "movie_id", id, "imdb_id", draft.ImdbID)
		s.reindexAsync(id)
	}
	return changed, nil
}

// Patch sets a single movie field. The field must be in the allow-list,
// which is checked before the document is even loaded; the value is decoded
// against the field's type. Patching in the stored value reports
// changed=false.
func (s *MovieService) Patch(ctx context.Context, id string, params PatchParams) (bool, error) {
	id, err := ParseID(id)
	if err != nil {
		return false, err
	}
	decode, ok := moviePatchFields[params.Field]
	if !ok {
		return false, errors.FieldNotAllowed(params.Field)
	}
	var existing domain.Movie
	if err := s.store.Get(ctx, store.CollectionMovies, id, &existing); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, errors.NotExistsf("movie with id '%s' does not exist", id)
		}
		return false, errors.Wrap(err, errors.CodeInternal, "get movie")
	}
	value, err := decode(params.Value)
	if err != nil {
		return false, errors.ValidationWithDetails("validation failed", map[string]string{params.Field: err.Error()})
	}

	renaming := false
	if params.Field == "imdbId" {
		imdbID := value.(string)
		if !validation.IsImdbID(imdbID) {
			return false, errors.WrongImdbID(imdbID)
		}
		renaming = imdbID != existing.ImdbID
		if renaming {
			claim := domain.ImdbClaim{ImdbID: imdbID, OwnerKind: domain.OwnerMovie, OwnerID: id}
			if err := s.registry.Reserve(ctx, claim); err != nil {
				if errors.Is(err, store.ErrDuplicateID) {
					return false, errors.ImdbIDInUse(imdbID)
				}
				return false, errors.Wrap(err, errors.CodeInternal, "reserve imdbId")
			}
		}
	}

	changed, err := s.store.SetFields(ctx, store.CollectionMovies, id, map[string]any{params.Field: value})
	if err != nil {
		if renaming {
			if relErr := s.registry.Release(ctx, value.(string)); relErr != nil {
				s.logger.Error("failed to release imdbId claim after patch failure", "imdb_id", value.(string), "error", relErr)
			}
		}
		return false, errors.Wrap(err, errors.CodeInternal, "patch movie")
	}
	if renaming {
		if err := s.registry.Release(ctx, existing.ImdbID); err != nil {
			s.logger.Warn("failed to release replaced imdbId claim", "imdb_id", existing.ImdbID, "error", err)
		}
	}
	if changed {
		s.logger.Info("movie patched", "movie_id", id, "field", params.Field)
		s.reindexAsync(id)
	}
	return changed, nil
}

// Delete removes a movie and releases its imdbId claim. Attached reviews
// are not cascaded; the audit surfaces them as orphans.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	id, err := ParseID(id)
	if err != nil {
		return err
	}
	var movie domain.Movie
	if err := s.store.Get(ctx, store.CollectionMovies, id, &movie); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return errors.NotExistsf("movie with id '%s' does not exist", id)
		}
		return errors.Wrap(err, errors.CodeInternal, "get movie")
	}
	existed, err := s.store.Delete(ctx, store.CollectionMovies, id)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete movie")
	}
	if !existed {
		return errors.NotExistsf("movie with id '%s' does not exist", id)
	}
	if err := s.registry.Release(ctx, movie.ImdbID); err != nil {
		s.logger.Warn("failed to release imdbId claim of deleted movie", "imdb_id", movie.ImdbID, "error", err)
	}

	s.logger.Info("movie deleted", "movie_id", id, "imdb_id", movie.ImdbID)

	if s.indexer != nil {
		go func() {
			if err := s.indexer.DeleteMovie(context.Background(), id); err != nil {
				s.logger.Warn("failed to remove movie from search index", "movie_id", id, "error", err)
			}
		}()
	}

	return nil
}

// reindexAsync refreshes the search document of a movie in the background.
// Update and patch go through here because the stored document, not the
// request payload, is what the index should reflect.
func (s *MovieService) reindexAsync(id string) {
	if s.indexer == nil {
		return
	}
	go func() {
		var movie domain.Movie
		if err := s.store.Get(context.Background(), store.CollectionMovies, id, &movie); err != nil {
			s.logger.Warn("failed to reload movie for search indexing", "movie_id", id, "error", err)
			return
		}
		if err := s.indexer.IndexMovie(context.Background(), &movie); err != nil {
			s.logger.Warn("failed to reindex movie for search", "movie_id", id, "error", err)
		}
	}()
}
