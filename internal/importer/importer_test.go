package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/store/badger"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

// testImporter wires an importer over a throwaway catalog.
type testImporter struct {
	importer *Importer
	movies   *catalog.MovieService
	series   *catalog.SeriesService
}

func newTestImporter(t *testing.T) *testImporter {
	t.Helper()
	st, err := badger.Open(filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := catalog.NewRegistry(st)
	validate := validation.New()
	movies := catalog.NewMovieService(st, registry, validate, nil, logger)
	series := catalog.NewSeriesService(st, registry, validate, nil, logger)

	return &testImporter{
		importer: New(movies, series, logger),
		movies:   movies,
		series:   series,
	}
}

func writeDropFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const inceptionJSON = `{
	"imdbId": "tt1375666",
	"title": "Inception",
	"overview": "A thief who steals corporate secrets through dream-sharing technology.",
	"duration": "2h 28m",
	"director": "Christopher Nolan",
	"releaseDate": "2010-07-16",
	"trailerLink": "https://www.youtube.com/watch?v=YoHD9XEInc0",
	"genres": ["Action", "Science Fiction"],
	"poster": "https://image.tmdb.org/t/p/w500/inception.jpg",
	"backdrop": "https://image.tmdb.org/t/p/original/inception-backdrop.jpg"
}`

const seinfeldJSON = `{
	"imdbId": "tt0098904",
	"title": "Seinfeld",
	"overview": "Four friends navigate the minutiae of life in New York City.",
	"numberOfSeasons": 1,
	"creator": "Larry David",
	"releaseDate": "1989-07-05",
	"trailerLink": "https://www.youtube.com/watch?v=9NBG3sqv2xQ",
	"genres": ["Comedy"],
	"seasonList": [
		{
			"overview": "The show about nothing begins.",
			"episodeList": [
				{
					"title": "The Seinfeld Chronicles",
					"releaseDate": "1989-07-05",
					"duration": "23m",
					"description": "Jerry debates the meaning of a houseguest's visit."
				}
			],
			"poster": "https://image.tmdb.org/t/p/w500/seinfeld-s1.jpg"
		}
	],
	"poster": "https://image.tmdb.org/t/p/w500/seinfeld.jpg",
	"backdrop": "https://image.tmdb.org/t/p/original/seinfeld-backdrop.jpg"
}`

func TestImporter_ImportFile(t *testing.T) {
	ti := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeDropFile(t, dir, "batch.json",
		`{"movies": [`+inceptionJSON+`], "series": [`+seinfeldJSON+`]}`)

	summary, err := ti.importer.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.JobID)
	assert.Equal(t, "batch.json", summary.File)
	assert.Equal(t, 1, summary.Movies)
	assert.Equal(t, 1, summary.Series)
	assert.Equal(t, 0, summary.Conflicts)
	assert.Equal(t, 0, summary.Invalid)

	// Entries went through the regular create path
	movie, err := ti.movies.FindByImdbID(ctx, "tt1375666")
	require.NoError(t, err)
	assert.Equal(t, "Inception", movie.Title)

	created, err := ti.series.FindByImdbID(ctx, "tt0098904")
	require.NoError(t, err)
	assert.Equal(t, "Seinfeld", created.Title)
	require.Len(t, created.SeasonList, 1)
	assert.Len(t, created.SeasonList[0].EpisodeList, 1)

	// File renamed out of the watcher's sight
	assert.NoFileExists(t, path)
	assert.FileExists(t, path+".imported")
}

func TestImporter_ImportFile_ConflictCounted(t *testing.T) {
	ti := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	// Claim the imdbId up front
	path := writeDropFile(t, dir, "first.json", `{"movies": [`+inceptionJSON+`]}`)
	_, err := ti.importer.ImportFile(ctx, path)
	require.NoError(t, err)

	// Same entry again, plus a fresh one
	path = writeDropFile(t, dir, "second.json",
		`{"movies": [`+inceptionJSON+`, {
			"imdbId": "tt0816692",
			"title": "Interstellar",
			"overview": "Explorers travel through a wormhole in search of a new home.",
			"duration": "2h 49m",
			"director": "Christopher Nolan",
			"releaseDate": "2014-11-07",
			"trailerLink": "https://www.youtube.com/watch?v=zSWdZVtXT7E",
			"genres": ["Adventure", "Drama"],
			"poster": "https://image.tmdb.org/t/p/w500/interstellar.jpg",
			"backdrop": "https://image.tmdb.org/t/p/original/interstellar-backdrop.jpg"
		}]}`)

	summary, err := ti.importer.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Movies)
	assert.Equal(t, 1, summary.Conflicts)
	assert.Equal(t, 0, summary.Invalid)

	// Conflicts do not fail the batch
	assert.FileExists(t, path+".imported")

	_, err = ti.movies.FindByImdbID(ctx, "tt0816692")
	assert.NoError(t, err)
}

func TestImporter_ImportFile_InvalidCounted(t *testing.T) {
	ti := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	// First entry has a duration the validator rejects
	path := writeDropFile(t, dir, "batch.json",
		`{"movies": [{
			"imdbId": "tt0133093",
			"title": "The Matrix",
			"overview": "A hacker learns the truth about his reality.",
			"duration": "136 minutes",
			"director": "Lana Wachowski",
			"releaseDate": "1999-03-31",
			"trailerLink": "https://www.youtube.com/watch?v=vKQi3bBA1y8",
			"genres": ["Action"],
			"poster": "https://image.tmdb.org/t/p/w500/matrix.jpg",
			"backdrop": "https://image.tmdb.org/t/p/original/matrix-backdrop.jpg"
		}, `+inceptionJSON+`]}`)

	summary, err := ti.importer.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Movies)
	assert.Equal(t, 0, summary.Conflicts)
	assert.Equal(t, 1, summary.Invalid)
	assert.FileExists(t, path+".imported")

	// The invalid entry never reached the catalog
	_, err = ti.movies.FindByImdbID(ctx, "tt0133093")
	assert.Error(t, err)
}

func TestImporter_ImportFile_HTMLOverview(t *testing.T) {
	ti := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeDropFile(t, dir, "batch.json",
		`{"movies": [{
			"imdbId": "tt0468569",
			"title": "The Dark Knight",
			"overview": "<p>Batman raises the stakes.</p><p>Chaos answers.</p>",
			"duration": "2h 32m",
			"director": "Christopher Nolan",
			"releaseDate": "2008-07-18",
			"trailerLink": "https://www.youtube.com/watch?v=EXeTwQWrcwY",
			"genres": ["Action", "Crime"],
			"poster": "https://image.tmdb.org/t/p/w500/dark-knight.jpg",
			"backdrop": "https://image.tmdb.org/t/p/original/dark-knight-backdrop.jpg"
		}]}`)

	summary, err := ti.importer.ImportFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Movies)

	movie, err := ti.movies.FindByImdbID(ctx, "tt0468569")
	require.NoError(t, err)
	assert.Equal(t, "Batman raises the stakes.\n\nChaos answers.", movie.Overview)
}

func TestImporter_ImportFile_BadJSON(t *testing.T) {
	ti := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeDropFile(t, dir, "garbage.json", `{"movies": [`)

	summary, err := ti.importer.ImportFile(ctx, path)
	require.Error(t, err)

	assert.Equal(t, 0, summary.Movies)
	assert.NoFileExists(t, path)
	assert.FileExists(t, path+".failed")
}

func TestImporter_ImportFile_MissingFile(t *testing.T) {
	ti := newTestImporter(t)
	ctx := context.Background()

	_, err := ti.importer.ImportFile(ctx, filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDropWatcher_ImportsDroppedFile(t *testing.T) {
	ti := newTestImporter(t)
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dw, err := NewDropWatcher(dir, ti.importer, 50*time.Millisecond, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go dw.Start(ctx)
	t.Cleanup(func() {
		cancel()
		dw.Stop()
	})

	path := writeDropFile(t, dir, "batch.json", `{"movies": [`+inceptionJSON+`]}`)

	require.Eventually(t, func() bool {
		_, err := os.Stat(path + ".imported")
		return err == nil
	}, 5*time.Second, 25*time.Millisecond, "drop file should be imported and renamed")

	movie, err := ti.movies.FindByImdbID(context.Background(), "tt1375666")
	require.NoError(t, err)
	assert.Equal(t, "Inception", movie.Title)
}

func TestDropWatcher_SweepsExistingFiles(t *testing.T) {
	ti := newTestImporter(t)
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Dropped while the server was down
	path := writeDropFile(t, dir, "offline.json", `{"movies": [`+inceptionJSON+`]}`)

	dw, err := NewDropWatcher(dir, ti.importer, 50*time.Millisecond, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go dw.Start(ctx)
	t.Cleanup(func() {
		cancel()
		dw.Stop()
	})

	require.Eventually(t, func() bool {
		_, err := os.Stat(path + ".imported")
		return err == nil
	}, 5*time.Second, 25*time.Millisecond)
}

func TestDropWatcher_IgnoresOtherFiles(t *testing.T) {
	ti := newTestImporter(t)
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dw, err := NewDropWatcher(dir, ti.importer, 50*time.Millisecond, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go dw.Start(ctx)
	t.Cleanup(func() {
		cancel()
		dw.Stop()
	})

	path := writeDropFile(t, dir, "notes.txt", "not a batch")

	// Give the watcher time to (wrongly) act before checking nothing happened
	time.Sleep(300 * time.Millisecond)
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".imported")
	assert.NoFileExists(t, path+".failed")
}

func TestIsBatchFile(t *testing.T) {
	assert.True(t, isBatchFile("batch.json"))
	assert.True(t, isBatchFile("/drop/batch.JSON"))
	assert.False(t, isBatchFile("batch.json.imported"))
	assert.False(t, isBatchFile("batch.json.failed"))
	assert.False(t, isBatchFile("notes.txt"))
}
