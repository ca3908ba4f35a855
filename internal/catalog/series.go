package catalog

import (
	"context"
	"log/slog"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/store"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

// SeriesDraft is the caller-supplied series payload for create and update.
// Seasons and episodes are embedded, not independently addressable, so the
// whole tree is validated and written in one piece.
type SeriesDraft struct {
	ImdbID          string        `json:"imdbId" validate:"imdbid"`
	Title           string        `json:"title" validate:"min=1"`
	Overview        string        `json:"overview" validate:"min=1"`
	NumberOfSeasons int           `json:"numberOfSeasons" validate:"gte=0"`
	Creator         string        `json:"creator" validate:"person_name"`
	ReleaseDate     string        `json:"releaseDate" validate:"release_date"`
	TrailerLink     string        `json:"trailerLink" validate:"youtube_url"`
	Genres          []string      `json:"genres" validate:"min=1"`
	SeasonList      []SeasonDraft `json:"seasonList" validate:"min=1,dive"`
	Poster          string        `json:"poster" validate:"image_url"`
	Backdrop        string        `json:"backdrop" validate:"image_url"`
}

// SeasonDraft is one season of a series draft. The episode list must not be
// empty.
type SeasonDraft struct {
	Overview    string         `json:"overview" validate:"min=1"`
	EpisodeList []EpisodeDraft `json:"episodeList" validate:"min=1,dive"`
	Poster      string         `json:"poster" validate:"image_url"`
}

// EpisodeDraft is one episode of a season draft.
type EpisodeDraft struct {
	Title       string `json:"title" validate:"min=1"`
	ReleaseDate string `json:"releaseDate" validate:"release_date"`
	Duration    string `json:"duration" validate:"episode_duration"`
	Description string `json:"description" validate:"min=1"`
}

// seriesPatchFields is the closed set of series fields a patch may target.
var seriesPatchFields = map[string]fieldDecoder{
	"imdbId":          decodeString,
	"title":           decodeString,
	"overview":        decodeString,
	"numberOfSeasons": decodeInt,
	"creator":         decodeString,
	"releaseDate":     decodeString,
	"trailerLink":     decodeString,
	"genres":          decodeStringList,
	"seasonList":      decodeSeasons,
	"poster":          decodeString,
	"backdrop":        decodeString,
}

func (d SeasonDraft) season() domain.Season {
	episodes := make([]domain.Episode, 0, len(d.EpisodeList))
	for _, e := range d.EpisodeList {
		episodes = append(episodes, domain.Episode{
			Title:       e.Title,
			ReleaseDate: e.ReleaseDate,
			Duration:    e.Duration,
			Description: e.Description,
		})
	}
	return domain.Season{Overview: d.Overview, EpisodeList: episodes, Poster: d.Poster}
}

func (d SeriesDraft) seasons() []domain.Season {
	seasons := make([]domain.Season, 0, len(d.SeasonList))
	for _, sd := range d.SeasonList {
		seasons = append(seasons, sd.season())
	}
	return seasons
}

func seriesFromDraft(id string, draft SeriesDraft, reviewIDs []string) *domain.Series {
	return &domain.Series{
		ID:              id,
		ImdbID:          draft.ImdbID,
		Title:           draft.Title,
		Overview:        draft.Overview,
		NumberOfSeasons: draft.NumberOfSeasons,
		Creator:         draft.Creator,
		ReleaseDate:     draft.ReleaseDate,
		TrailerLink:     draft.TrailerLink,
		Genres:          draft.Genres,
		SeasonList:      draft.seasons(),
		Poster:          draft.Poster,
		Backdrop:        draft.Backdrop,
		ReviewIDs:       reviewIDs,
	}
}

// SeriesService orchestrates series reads and writes.
type SeriesService struct {
	store    store.Store
	registry *Registry
	validate *validation.Validator
	indexer  SearchIndexer
	logger   *slog.Logger
}

// NewSeriesService creates a new series service.
func NewSeriesService(st store.Store, registry *Registry, validate *validation.Validator, indexer SearchIndexer, logger *slog.Logger) *SeriesService {
	return &SeriesService{
		store:    st,
		registry: registry,
		validate: validate,
		indexer:  indexer,
		logger:   logger,
	}
}

// FindAll returns one page of the series listing, optionally filtered by a
// case-insensitive title substring. An empty page fails with Empty.
func (s *SeriesService) FindAll(ctx context.Context, title string, params PageParams) (*PageResult[domain.SeriesItem], error) {
	params.Normalize()
	filter := store.Filter{TitleContains: title}

	total, err := s.store.Count(ctx, store.CollectionSeries, filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "count series")
	}
	var series []domain.Series
	if err := s.store.Find(ctx, store.CollectionSeries, filter, params.Skip(), params.Size, &series); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "find series")
	}
	if len(series) == 0 {
		return nil, errors.Empty()
	}

	items := make([]domain.SeriesItem, 0, len(series))
	for i := range series {
		items = append(items, series[i].Item())
	}
	return newPageResult(items, params, total), nil
}

// FindByID returns a series by its document id.
func (s *SeriesService) FindByID(ctx context.Context, id string) (*domain.Series, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var series domain.Series
	if err := s.store.Get(ctx, store.CollectionSeries, id, &series); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, errors.NotFoundf("series with id '%s' not found", id)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get series")
	}
	return &series, nil
}

// FindByImdbID returns the series claiming an imdbId. The format check runs
// before any storage access.
func (s *SeriesService) FindByImdbID(ctx context.Context, imdbID string) (*domain.Series, error) {
	if !validation.IsImdbID(imdbID) {
		return nil, errors.WrongImdbID(imdbID)
	}
	claim, err := s.registry.Owner(ctx, imdbID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve imdbId")
	}
	if claim == nil || claim.OwnerKind != domain.OwnerSeries {
		return nil, errors.NotFoundf("series with imdbId '%s' not found", imdbID)
	}
	var series domain.Series
	if err := s.store.Get(ctx, store.CollectionSeries, claim.OwnerID, &series); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			s.logger.Warn("imdbId claim points at a missing series", "imdb_id", imdbID, "series_id", claim.OwnerID)
			return nil, errors.NotFoundf("series with imdbId '%s' not found", imdbID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get series")
	}
	return &series, nil
}

// ExistsByImdbID reports whether a series claims the imdbId.
func (s *SeriesService) ExistsByImdbID(ctx context.Context, imdbID string) (bool, error) {
	claim, err := s.registry.Owner(ctx, imdbID)
	if err != nil {
		return false, err
	}
	return claim != nil && claim.OwnerKind == domain.OwnerSeries, nil
}

// Create validates and stores a new series. The imdbId claim is reserved
// before the document is written; a failed write releases the claim again.
func (s *SeriesService) Create(ctx context.Context, draft SeriesDraft) (*domain.Series, error) {
	if err := s.validate.Validate(draft); err != nil {
		return nil, err
	}

	series := seriesFromDraft(NewID(), draft, []string{})
	claim := domain.ImdbClaim{ImdbID: series.ImdbID, OwnerKind: domain.OwnerSeries, OwnerID: series.ID}
	if err := s.registry.Reserve(ctx, claim); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return nil, errors.AlreadyExistsf("a movie or series with imdbId '%s' already exists", series.ImdbID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "reserve imdbId")
	}
	if err := s.store.Insert(ctx, store.CollectionSeries, series.ID, series); err != nil {
		if relErr := s.registry.Release(ctx, series.ImdbID); relErr != nil {
			s.logger.Error("failed to release imdbId claim after insert failure", "imdb_id", series.ImdbID, "error", relErr)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "insert series")
	}

	s.logger.Info("series created", "series_id", series.ID, "imdb_id", series.ImdbID, "title", series.Title)

	// Off the request path; a failed indexing never fails the write.
	if s.indexer != nil {
		go func() {
			if err := s.indexer.IndexSeries(context.Background(), series); err != nil {
				s.logger.Warn("failed to index series for search", "series_id", series.ID, "error", err)
			}
		}()
	}

	return series, nil
}

// Update replaces every caller-editable field of a series, the embedded
// season tree included. Renaming the imdbId re-runs the uniqueness
// reservation; resubmitting the stored values reports changed=false.
func (s *SeriesService) Update(ctx context.Context, id string, draft SeriesDraft) (bool, error) {
	id, err := ParseID(id)
	if err != nil {
		return false, err
	}
	var existing domain.Series
	if err := s.store.Get(ctx, store.CollectionSeries, id, &existing); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, errors.NotExistsf("series with id '%s' does not exist", id)
		}
		return false, errors.Wrap(err, errors.CodeInternal, "get series")
	}
	renaming := draft.ImdbID != existing.ImdbID
	if renaming && !validation.IsImdbID(draft.ImdbID) {
		return false, errors.WrongImdbID(draft.ImdbID)
	}
	if err := s.validate.Validate(draft); err != nil {
		return false, err
	}
	if renaming {
		claim := domain.ImdbClaim{ImdbID: draft.ImdbID, OwnerKind: domain.OwnerSeries, OwnerID: id}
		if err := s.registry.Reserve(ctx, claim); err != nil {
			if errors.Is(err, store.ErrDuplicateID) {
				return false, errors.ImdbIDInUse(draft.ImdbID)
			}
			return false, errors.Wrap(err, errors.CodeInternal, "reserve imdbId")
		}
	}

	changed, err := s.store.SetFields(ctx, store.CollectionSeries, id, map[string]any{
		"imdbId":          draft.ImdbID,
		"title":           draft.Title,
		"overview":        draft.Overview,
		"numberOfSeasons": draft.NumberOfSeasons,
		"creator":         draft.Creator,
		"releaseDate":     draft.ReleaseDate,
		"trailerLink":     draft.TrailerLink,
		"genres":          draft.Genres,
		"seasonList":      draft.seasons(),
		"poster":          draft.Poster,
		"backdrop":        draft.Backdrop,
	})
	if err != nil {
		if renaming {
			if relErr := s.registry.Release(ctx, draft.ImdbID); relErr != nil {
				s.logger.Error("failed to release imdbId claim after update failure", "imdb_id", draft.ImdbID, "error", relErr)
			}
		}
		return false, errors.Wrap(err, errors.CodeInternal, "update series")
	}
	if renaming {
		if err := s.registry.Release(ctx, existing.ImdbID); err != nil {
			s.logger.Warn("failed to release replaced imdbId claim", "imdb_id", existing.ImdbID, "error", err)
		}
	}
	if changed {
		s.logger.Info("series updated", "series_id", id, "imdb_id", draft.ImdbID)
		s.reindexAsync(id)
	}
	return changed, nil
}

// Patch sets a single series field. The allow-list is checked before the
// document load; seasonList values are revalidated so no season loses its
// last episode through a patch.
func (s *SeriesService) Patch(ctx context.Context, id string, params PatchParams) (bool, error) {
	id, err := ParseID(id)
	if err != nil {
		return false, err
	}
	decode, ok := seriesPatchFields[params.Field]
	if !ok {
		return false, errors.FieldNotAllowed(params.Field)
	}
	var existing domain.Series
	if err := s.store.Get(ctx, store.CollectionSeries, id, &existing); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, errors.NotExistsf("series with id '%s' does not exist", id)
		}
		return false, errors.Wrap(err, errors.CodeInternal, "get series")
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
			claim := domain.ImdbClaim{ImdbID: imdbID, OwnerKind: domain.OwnerSeries, OwnerID: id}
			if err := s.registry.Reserve(ctx, claim); err != nil {
				if errors.Is(err, store.ErrDuplicateID) {
					return false, errors.ImdbIDInUse(imdbID)
				}
				return false, errors.Wrap(err, errors.CodeInternal, "reserve imdbId")
			}
		}
	}

	changed, err := s.store.SetFields(ctx, store.CollectionSeries, id, map[string]any{params.Field: value})
	if err != nil {
		if renaming {
			if relErr := s.registry.Release(ctx, value.(string)); relErr != nil {
				s.logger.Error("failed to release imdbId claim after patch failure", "imdb_id", value.(string), "error", relErr)
			}
		}
		return false, errors.Wrap(err, errors.CodeInternal, "patch series")
	}
	if renaming {
		if err := s.registry.Release(ctx, existing.ImdbID); err != nil {
			s.logger.Warn("failed to release replaced imdbId claim", "imdb_id", existing.ImdbID, "error", err)
		}
	}
	if changed {
		s.logger.Info("series patched", "series_id", id, "field", params.Field)
		s.reindexAsync(id)
	}
	return changed, nil
}

// Delete removes a series and releases its imdbId claim. Attached reviews
// are not cascaded; the audit surfaces them as orphans.
func (s *SeriesService) Delete(ctx context.Context, id string) error {
	id, err := ParseID(id)
	if err != nil {
		return err
	}
	var series domain.Series
	if err := s.store.Get(ctx, store.CollectionSeries, id, &series); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return errors.NotExistsf("series with id '%s' does not exist", id)
		}
		return errors.Wrap(err, errors.CodeInternal, "get series")
	}
	existed, err := s.store.Delete(ctx, store.CollectionSeries, id)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete series")
	}
	if !existed {
		return errors.NotExistsf("series with id '%s' does not exist", id)
	}
	if err := s.registry.Release(ctx, series.ImdbID); err != nil {
		s.logger.Warn("failed to release imdbId claim of deleted series", "imdb_id", series.ImdbID, "error", err)
	}

	s.logger.Info("series deleted", "series_id", id, "imdb_id", series.ImdbID)

	if s.indexer != nil {
		go func() {
			if err := s.indexer.DeleteSeries(context.Background(), id); err != nil {
				s.logger.Warn("failed to remove series from search index", "series_id", id, "error", err)
			}
		}()
	}

	return nil
}

// reindexAsync refreshes the search document of a series in the background.
func (s *SeriesService) reindexAsync(id string) {
	if s.indexer == nil {
		return
	}
	go func() {
		var series domain.Series
		if err := s.store.Get(context.Background(), store.CollectionSeries, id, &series); err != nil {
			s.logger.Warn("failed to reload series for search indexing", "series_id", id, "error", err)
			return
		}
		if err := s.indexer.IndexSeries(context.Background(), &series); err != nil {
			s.logger.Warn("failed to reindex series for search", "series_id", id, "error", err)
		}
	}()
}
