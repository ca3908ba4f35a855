package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

type movieRequest struct {
	ImdbID      string   `json:"imdbId" validate:"imdbid"`
	Title       string   `json:"title" validate:"required"`
	Duration    string   `json:"duration" validate:"movie_duration"`
	Director    string   `json:"director" validate:"person_name"`
	ReleaseDate string   `json:"releaseDate" validate:"release_date"`
	TrailerLink string   `json:"trailerLink" validate:"youtube_url"`
	Genres      []string `json:"genres" validate:"min=1"`
	Poster      string   `json:"poster" validate:"image_url"`
}

func validMovieRequest() movieRequest {
	return movieRequest{
		ImdbID:      "tt0468569",
		Title:       "The Dark Knight",
		Duration:    "2h 32m",
		Director:    "Christopher Nolan",
		ReleaseDate: "2008-7-18",
		TrailerLink: "https://www.youtube.com/watch?v=EXeTwQWrcwY",
		Genres:      []string{"Action", "Crime"},
		Poster:      "https://image.tmdb.org/t/p/w500/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
	}
}

func TestValidateAcceptsCatalogFormats(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(validMovieRequest()))

	// Short youtu.be links and director initials are accepted too.
	req := validMovieRequest()
	req.TrailerLink = "https://youtu.be/EXeTwQWrcwY"
	req.Director = "J. J. Abrams"
	assert.NoError(t, v.Validate(req))
}

func TestValidateRejectsMalformedFields(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		mutate  func(*movieRequest)
		field   string
		message string
	}{
		{
			name:    "imdbId without tt prefix",
			mutate:  func(r *movieRequest) { r.ImdbID = "0468569" },
			field:   "imdbId",
			message: "must match the following format: 'tt0000'",
		},
		{
			name:    "imdbId with trailing junk",
			mutate:  func(r *movieRequest) { r.ImdbID = "tt0468569x" },
			field:   "imdbId",
			message: "must match the following format: 'tt0000'",
		},
		{
			name:    "duration in minutes only",
			mutate:  func(r *movieRequest) { r.Duration = "152m" },
			field:   "duration",
			message: "must match the following format: '00h 00m'",
		},
		{
			name:    "single-name director",
			mutate:  func(r *movieRequest) { r.Director = "Tarkovsky" },
			field:   "director",
			message: "must match the following format: 'Name Surname'",
		},
		{
			name:    "release date with month 13",
			mutate:  func(r *movieRequest) { r.ReleaseDate = "2008-13-18" },
			field:   "releaseDate",
			message: "must match the following format: 'YYYY-MM-DD'",
		},
		{
			name:    "trailer on vimeo",
			mutate:  func(r *movieRequest) { r.TrailerLink = "https://vimeo.com/123456" },
			field:   "trailerLink",
			message: "has to be a valid YouTube URL",
		},
		{
			name:    "no genres",
			mutate:  func(r *movieRequest) { r.Genres = nil },
			field:   "genres",
			message: "must contain at least 1 item(s)",
		},
		{
			name:    "poster without image extension",
			mutate:  func(r *movieRequest) { r.Poster = "https://example.com/poster.gif" },
			field:   "poster",
			message: "must be a valid URL with one of these extensions: (.jpg, .jpeg, .png or .webp)",
		},
		{
			name:    "empty title",
			mutate:  func(r *movieRequest) { r.Title = "" },
			field:   "title",
			message: "is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validMovieRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, errors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.message, details[tt.field])
		})
	}
}

func TestEpisodeDurationFormats(t *testing.T) {
	v := validation.New()

	type episode struct {
		Duration string `json:"duration" validate:"episode_duration"`
	}

	for _, d := range []string{"58m", "1h", "1h 5m", "12h 59m"} {
		assert.NoError(t, v.Validate(episode{Duration: d}), d)
	}
	for _, d := range []string{"", "90", "1h5m", "m", "1h 5"} {
		assert.Error(t, v.Validate(episode{Duration: d}), d)
	}
}

func TestValidationDetailsKeyedByJSONName(t *testing.T) {
	v := validation.New()

	req := validMovieRequest()
	req.ReleaseDate = "18-07-2008"

	err := v.Validate(req)
	require.Error(t, err)

	// The details map is keyed by the JSON name the client sent, not the
	// Go field name.
	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "releaseDate")
	assert.NotContains(t, details, "ReleaseDate")
}

func TestIsImdbID(t *testing.T) {
	assert.True(t, validation.IsImdbID("tt0468569"))
	assert.True(t, validation.IsImdbID("tt1"))
	assert.False(t, validation.IsImdbID("tt"))
	assert.False(t, validation.IsImdbID("0468569"))
	assert.False(t, validation.IsImdbID("tt04685 69"))
	assert.False(t, validation.IsImdbID(""))
}
