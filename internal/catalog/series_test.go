package catalog

import (
	"context"
	"encoding/json/jsontext"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelogapp/cinelog-server/internal/errors"
)

func TestSeriesService_CreateAndFind(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)
	require.NotEmpty(t, series.ID)
	assert.Equal(t, "Breaking Bad", series.Title)
	assert.Equal(t, "Vince Gilligan", series.Creator)
	assert.Empty(t, series.ReviewIDs)

	found, err := tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	assert.Equal(t, series, found)
	require.Len(t, found.SeasonList, 2)
	require.Len(t, found.SeasonList[0].EpisodeList, 2)
	assert.Equal(t, "Pilot", found.SeasonList[0].EpisodeList[0].Title)
	assert.Equal(t, "58m", found.SeasonList[0].EpisodeList[0].Duration)
	require.Len(t, found.SeasonList[1].EpisodeList, 1)

	byImdb, err := tc.series.FindByImdbID(ctx, "tt0903747")
	require.NoError(t, err)
	assert.Equal(t, series.ID, byImdb.ID)
}

func TestSeriesService_CreateValidation(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(d *SeriesDraft)
		field   string
		message string
	}{
		{
			name:    "no seasons",
			mutate:  func(d *SeriesDraft) { d.SeasonList = nil },
			field:   "seasonList",
			message: "must contain at least 1 item(s)",
		},
		{
			name: "season without episodes",
			mutate: func(d *SeriesDraft) {
				d.SeasonList[1].EpisodeList = nil
			},
			field:   "episodeList",
			message: "must contain at least 1 item(s)",
		},
		{
			name: "episode without title",
			mutate: func(d *SeriesDraft) {
				d.SeasonList[0].EpisodeList[0].Title = ""
			},
			field: "title",
		},
		{
			name: "episode duration spelled out",
			mutate: func(d *SeriesDraft) {
				d.SeasonList[0].EpisodeList[0].Duration = "58 minutes"
			},
			field:   "duration",
			message: "must match the following formats: '00h 00m', '00h' or '00m'",
		},
		{
			name:    "negative season count",
			mutate:  func(d *SeriesDraft) { d.NumberOfSeasons = -1 },
			field:   "numberOfSeasons",
			message: "must be greater than or equal to 0",
		},
		{
			name:   "single-word creator",
			mutate: func(d *SeriesDraft) { d.Creator = "Gilligan" },
			field:  "creator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validSeriesDraft()
			tt.mutate(&draft)
			_, err := tc.series.Create(ctx, draft)
			message := requireValidationDetail(t, err, tt.field)
			if tt.message != "" {
				assert.Equal(t, tt.message, message)
			}
		})
	}
}

func TestSeriesService_Update(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)

	// Resubmitting the stored values changes nothing, season tree included.
	changed, err := tc.series.Update(ctx, series.ID, validSeriesDraft())
	require.NoError(t, err)
	assert.False(t, changed)

	draft := validSeriesDraft()
	draft.NumberOfSeasons = 3
	draft.SeasonList = append(draft.SeasonList, SeasonDraft{
		Overview: "Walt consolidates his position in the business.",
		Poster:   "https://image.tmdb.org/t/p/original/ffP8Q8ew048YofHRnFVM18B2fPG.jpg",
		EpisodeList: []EpisodeDraft{
			{
				Title:       "No Más",
				ReleaseDate: "2010-03-21",
				Duration:    "47m",
				Description: "Walt deals with the aftermath of the air disaster.",
			},
		},
	})
	changed, err = tc.series.Update(ctx, series.ID, draft)
	require.NoError(t, err)
	assert.True(t, changed)

	found, err := tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.NumberOfSeasons)
	require.Len(t, found.SeasonList, 3)
	assert.Equal(t, "No Más", found.SeasonList[2].EpisodeList[0].Title)

	// An update may not strip a season's episodes either.
	bad := validSeriesDraft()
	bad.SeasonList[0].EpisodeList = nil
	_, err = tc.series.Update(ctx, series.ID, bad)
	requireValidationDetail(t, err, "episodeList")
}

func TestSeriesService_PatchNumberOfSeasons(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)

	changed, err := tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "numberOfSeasons",
		Value: jsontext.Value(`3`),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	found, err := tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.NumberOfSeasons)

	// Clients that quote numbers keep working.
	changed, err = tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "numberOfSeasons",
		Value: jsontext.Value(`"4"`),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	found, err = tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, found.NumberOfSeasons)

	_, err = tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "numberOfSeasons",
		Value: jsontext.Value(`"many"`),
	})
	message := requireValidationDetail(t, err, "numberOfSeasons")
	assert.Equal(t, "must be an integer", message)

	_, err = tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "numberOfSeasons",
		Value: jsontext.Value(`2.5`),
	})
	requireValidationDetail(t, err, "numberOfSeasons")
}

func TestSeriesService_PatchSeasonList(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)

	changed, err := tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "seasonList",
		Value: jsontext.Value(`[
			{
				"overview": "The final season.",
				"episodeList": [
					{
						"title": "Felina",
						"releaseDate": "2013-09-29",
						"duration": "55m",
						"description": "All bad things must come to an end."
					}
				],
				"poster": "https://image.tmdb.org/t/p/original/ggFHVNu6YYI5L9pCfOacjizRGt.jpg"
			}
		]`),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	found, err := tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, found.SeasonList, 1)
	assert.Equal(t, "Felina", found.SeasonList[0].EpisodeList[0].Title)

	// The season invariants hold for patches too.
	_, err = tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "seasonList",
		Value: jsontext.Value(`[{"overview": "Empty season.", "episodeList": [], "poster": ""}]`),
	})
	message := requireValidationDetail(t, err, "seasonList")
	assert.Equal(t, "every season has to have at least one episode", message)

	_, err = tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "seasonList",
		Value: jsontext.Value(`[]`),
	})
	message = requireValidationDetail(t, err, "seasonList")
	assert.Equal(t, "must contain at least one season", message)

	_, err = tc.series.Patch(ctx, series.ID, PatchParams{
		Field: "seasonList",
		Value: jsontext.Value(`"season one"`),
	})
	message = requireValidationDetail(t, err, "seasonList")
	assert.Equal(t, "must be an array of seasons", message)

	// Nothing of the failed patches stuck.
	found, err = tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, found.SeasonList, 1)
	require.Len(t, found.SeasonList[0].EpisodeList, 1)
}

func TestSeriesService_PatchFieldNotAllowed(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)

	// Movie-only fields are not series patch targets.
	for _, field := range []string{"duration", "director", "reviewIds"} {
		_, err = tc.series.Patch(ctx, series.ID, PatchParams{
			Field: field,
			Value: jsontext.Value(`"anything"`),
		})
		requireErrorCode(t, err, errors.CodeFieldNotAllowed)
	}
}

func TestSeriesService_Delete(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)

	require.NoError(t, tc.series.Delete(ctx, series.ID))

	_, err = tc.series.FindByID(ctx, series.ID)
	requireErrorCode(t, err, errors.CodeNotFound)

	err = tc.series.Delete(ctx, series.ID)
	requireErrorCode(t, err, errors.CodeNotExists)

	// The claim went with it, movies may take the id now.
	draft := validMovieDraft()
	draft.ImdbID = "tt0903747"
	draft.Title = "Breaking Bad: The Movie"
	_, err = tc.movies.Create(ctx, draft)
	require.NoError(t, err)
}
