// Package importer ingests catalog batches dropped into a watched folder.
// A drop file is a JSON document holding movie and series drafts; every
// entry runs through the regular catalog create path, so imdbId claims,
// validation and referential rules apply exactly as they do over HTTP.
package importer

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/id"
	"github.com/cinelogapp/cinelog-server/internal/normalize"
)

// Processed files are renamed in place so a sweep never sees them twice.
const (
	importedSuffix = ".imported"
	failedSuffix   = ".failed"
)

// Batch is the on-disk shape of a drop file.
type Batch struct {
	Movies []catalog.MovieDraft  `json:"movies"`
	Series []catalog.SeriesDraft `json:"series"`
}

// Summary reports what a single drop file produced. Conflicts are entries
// whose imdbId is already claimed; Invalid are entries the validator
// rejected. Neither aborts the batch.
type Summary struct {
	JobID     string `json:"jobId"`
	File      string `json:"file"`
	Movies    int    `json:"movies"`
	Series    int    `json:"series"`
	Conflicts int    `json:"conflicts"`
	Invalid   int    `json:"invalid"`
}

// Importer feeds drop files through the catalog services.
type Importer struct {
	movies *catalog.MovieService
	series *catalog.SeriesService
	logger *slog.Logger
}

// New creates an importer over the given catalog services.
func New(movies *catalog.MovieService, series *catalog.SeriesService, logger *slog.Logger) *Importer {
	return &Importer{
		movies: movies,
		series: series,
		logger: logger,
	}
}

// ImportFile runs one drop file through the catalog and renames it according
// to the outcome. Unparseable files and storage faults leave a .failed file
// behind; everything else ends as .imported, with per-entry conflicts and
// validation rejects counted in the summary rather than failing the batch.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	jobID, err := id.Generate("imp")
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}

	summary := &Summary{JobID: jobID, File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drop file: %w", err)
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		imp.logger.Error("drop file is not a valid batch",
			"job_id", jobID,
			"file", path,
			"error", err,
		)
		imp.renameProcessed(path, failedSuffix)
		return summary, fmt.Errorf("parse drop file: %w", err)
	}

	for i := range batch.Movies {
		draft := batch.Movies[i]
		draft.Overview = normalize.HTMLToMarkdown(draft.Overview)

		if _, err := imp.movies.Create(ctx, draft); err != nil {
			if !imp.recordSkip(summary, err, "movie", draft.ImdbID) {
				imp.renameProcessed(path, failedSuffix)
				return summary, fmt.Errorf("create movie %s: %w", draft.ImdbID, err)
			}
			continue
		}
		summary.Movies++
	}

	for i := range batch.Series {
		draft := batch.Series[i]
		draft.Overview = normalize.HTMLToMarkdown(draft.Overview)

		if _, err := imp.series.Create(ctx, draft); err != nil {
			if !imp.recordSkip(summary, err, "series", draft.ImdbID) {
				imp.renameProcessed(path, failedSuffix)
				return summary, fmt.Errorf("create series %s: %w", draft.ImdbID, err)
			}
			continue
		}
		summary.Series++
	}

	imp.renameProcessed(path, importedSuffix)

	imp.logger.Info("import complete",
		"job_id", summary.JobID,
		"file", summary.File,
		"movies", summary.Movies,
		"series", summary.Series,
		"conflicts", summary.Conflicts,
		"invalid", summary.Invalid,
	)

	return summary, nil
}

// recordSkip counts an expected per-entry failure and reports whether the
// batch should continue. Anything outside the conflict and validation codes
// is a fault the batch must not paper over.
func (imp *Importer) recordSkip(summary *Summary, err error, kind, imdbID string) bool {
	var domainErr *errors.Error
	if !errors.As(err, &domainErr) {
		return false
	}

	switch domainErr.Code {
	case errors.CodeAlreadyExists, errors.CodeImdbIDInUse:
		summary.Conflicts++
		imp.logger.Warn("batch entry conflicts with existing catalog entry",
			"job_id", summary.JobID,
			"kind", kind,
			"imdb_id", imdbID,
		)
		return true
	case errors.CodeValidation:
		summary.Invalid++
		imp.logger.Warn("batch entry failed validation",
			"job_id", summary.JobID,
			"kind", kind,
			"imdb_id", imdbID,
			"error", err,
		)
		return true
	default:
		return false
	}
}

// renameProcessed moves a handled file out of the watcher's sight. A rename
// failure is only logged; the next sweep re-runs the file and the create
// path rejects the duplicates.
func (imp *Importer) renameProcessed(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		imp.logger.Error("failed to rename processed drop file",
			"file", path,
			"suffix", suffix,
			"error", err,
		)
	}
}
