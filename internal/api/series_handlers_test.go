package api

import (
	"encoding/json/v2"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelogapp/cinelog-server/internal/domain"
)

func createSeries(t *testing.T, ts *testServer, body map[string]any) *domain.Series {
	t.Helper()
	resp := ts.api.Post("/api/v1/series/new", body)
	require.Equal(t, http.StatusCreated, resp.Code, "body: %s", resp.Body.String())

	found := ts.api.Get("/api/v1/series/findByImdbId/" + body["imdbId"].(string))
	require.Equal(t, http.StatusOK, found.Code)
	var series domain.Series
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &series))
	return &series
}

func TestSeriesLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Post("/api/v1/series/new", validSeriesBody())
	require.Equal(t, http.StatusCreated, resp.Code, "body: %s", resp.Body.String())

	found := ts.api.Get("/api/v1/series/findByImdbId/tt0903747")
	require.Equal(t, http.StatusOK, found.Code)
	var series domain.Series
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &series))
	require.NotEmpty(t, series.ID)
	assert.Equal(t, "Breaking Bad", series.Title)
	require.Len(t, series.SeasonList, 1)
	assert.Len(t, series.SeasonList[0].EpisodeList, 1)

	assert.Equal(t,
		fmt.Sprintf("Series was successfully created. (id: '%s')", series.ID),
		decodeMessage(t, resp),
	)

	byID := ts.api.Get("/api/v1/series/findById/" + series.ID)
	require.Equal(t, http.StatusOK, byID.Code)
	assert.JSONEq(t, found.Body.String(), byID.Body.String())

	updated := validSeriesBody()
	updated["title"] = "Breaking Bad (Definitive Cut)"
	resp = ts.api.Put("/api/v1/series/update/"+series.ID, updated)
	require.Equal(t, http.StatusOK, resp.Code, "body: %s", resp.Body.String())
	assert.Equal(t,
		fmt.Sprintf("Series with id: '%s' was successfully updated", series.ID),
		decodeMessage(t, resp),
	)

	resp = ts.api.Put("/api/v1/series/update/"+series.ID, updated)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Fields have the same value, no update was performed", decodeMessage(t, resp))

	// Digit strings decode into the field's numeric type.
	resp = ts.api.Patch("/api/v1/series/patch/"+series.ID, map[string]any{
		"field": "numberOfSeasons",
		"value": "3",
	})
	require.Equal(t, http.StatusOK, resp.Code, "body: %s", resp.Body.String())
	assert.Equal(t,
		fmt.Sprintf("Series numberOfSeasons with id: '%s' was successfully patched", series.ID),
		decodeMessage(t, resp),
	)

	found = ts.api.Get("/api/v1/series/findById/" + series.ID)
	var patched domain.Series
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &patched))
	assert.Equal(t, 3, patched.NumberOfSeasons)

	resp = ts.api.Delete("/api/v1/series/delete/" + series.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t,
		fmt.Sprintf("Series with id: '%s' was successfully deleted", series.ID),
		decodeMessage(t, resp),
	)

	requireAPIError(t, ts.api.Get("/api/v1/series/findById/"+series.ID), http.StatusNotFound, "NOT_FOUND")

	resp = ts.api.Post("/api/v1/series/new", validSeriesBody())
	require.Equal(t, http.StatusCreated, resp.Code, "body: %s", resp.Body.String())
}

func TestFindAllSeries(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/v1/series/findAll")
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Zero(t, resp.Body.Len())

	for i, title := range []string{"Breaking Bad", "Better Call Saul"} {
		body := validSeriesBody()
		body["imdbId"] = fmt.Sprintf("tt000010%d", i+1)
		body["title"] = title
		createSeries(t, ts, body)
	}

	resp = ts.api.Get("/api/v1/series/findAll")
	require.Equal(t, http.StatusOK, resp.Code)
	var page SeriesPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Series, 2)
	assert.EqualValues(t, 2, page.TotalItems)

	var rawPage struct {
		Series []map[string]any `json:"series"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rawPage))
	require.NotEmpty(t, rawPage.Series)
	assert.Contains(t, rawPage.Series[0], "numberOfSeasons")
	assert.NotContains(t, rawPage.Series[0], "_id")
	assert.NotContains(t, rawPage.Series[0], "seasonList")

	resp = ts.api.Get("/api/v1/series/findAll?title=saul")
	require.Equal(t, http.StatusOK, resp.Code)
	page = SeriesPage{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Series, 1)
	assert.Equal(t, "Better Call Saul", page.Series[0].Title)
}

func TestCreateSeries_Validation(t *testing.T) {
	ts := newTestServer(t)

	// Every season must ship at least one episode.
	body := validSeriesBody()
	body["seasonList"] = []map[string]any{
		{
			"overview":    "A season with nothing in it.",
			"poster":      "https://image.tmdb.org/t/p/original/1BP4xYv9ZG4ZVHkL7ocOziBbSYH.jpg",
			"episodeList": []map[string]any{},
		},
	}
	resp := ts.api.Post("/api/v1/series/new", body)
	apiErr := requireAPIError(t, resp, http.StatusBadRequest, "VALIDATION")
	assert.NotNil(t, apiErr.Details)
}

func TestPatchSeries_SeasonList(t *testing.T) {
	ts := newTestServer(t)
	series := createSeries(t, ts, validSeriesBody())

	// Replacing the season list wholesale is allowed when well-formed.
	resp := ts.api.Patch("/api/v1/series/patch/"+series.ID, map[string]any{
		"field": "seasonList",
		"value": []map[string]any{
			{
				"overview": "The whole story, recut.",
				"poster":   "https://image.tmdb.org/t/p/original/1BP4xYv9ZG4ZVHkL7ocOziBbSYH.jpg",
				"episodeList": []map[string]any{
					{
						"title":       "Recut Premiere",
						"releaseDate": "2010-01-01",
						"duration":    "61m",
						"description": "The story begins again.",
					},
					{
						"title":       "Recut Finale",
						"releaseDate": "2010-01-08",
						"duration":    "59m",
						"description": "The story ends differently.",
					},
				},
			},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, "body: %s", resp.Body.String())

	found := ts.api.Get("/api/v1/series/findById/" + series.ID)
	var patched domain.Series
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &patched))
	require.Len(t, patched.SeasonList, 1)
	assert.Len(t, patched.SeasonList[0].EpisodeList, 2)

	// A season without episodes never gets in, not even by patch.
	resp = ts.api.Patch("/api/v1/series/patch/"+series.ID, map[string]any{
		"field": "seasonList",
		"value": []map[string]any{
			{
				"overview":    "Empty season.",
				"poster":      "",
				"episodeList": []map[string]any{},
			},
		},
	})
	requireAPIError(t, resp, http.StatusBadRequest, "VALIDATION")

	// Neither does an empty season list.
	resp = ts.api.Patch("/api/v1/series/patch/"+series.ID, map[string]any{
		"field": "seasonList",
		"value": []map[string]any{},
	})
	requireAPIError(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = ts.api.Patch("/api/v1/series/patch/"+series.ID, map[string]any{
		"field": "numberOfSeasons",
		"value": "many",
	})
	requireAPIError(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = ts.api.Patch("/api/v1/series/patch/"+series.ID, map[string]any{
		"field": "reviewIds",
		"value": []string{},
	})
	requireAPIError(t, resp, http.StatusBadRequest, "FIELD_NOT_ALLOWED")
}
