package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// mappingVersion is stamped next to the index directory and checked on
// open. Bump it whenever buildIndexMapping changes shape so stale
// indexes are rebuilt instead of silently missing fields.
const mappingVersion = "1"

// SearchIndex wraps a Bleve index over the catalog. All public methods
// are safe for concurrent use; Rebuild takes the write lock so readers
// never see a half-replaced index.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options carries what NewSearchIndex needs.
type Options struct {
	DataPath string       // Directory holding the index and its version stamp
	Logger   *slog.Logger // Uses a stderr text handler if nil
}

// NewSearchIndex opens the index under opts.DataPath, creating it when
// absent. An index whose stored mapping version no longer matches, or
// that fails to open, is thrown away and recreated empty; the caller is
// expected to reindex from the store in that case.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "catalog.bleve")
	versionPath := filepath.Join(opts.DataPath, "mapping.version")

	index, err := openCurrent(indexPath, versionPath, logger)
	if err != nil {
		return nil, err
	}
	if index != nil {
		logger.Info("opened existing search index", "path", indexPath)
	} else {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write mapping version stamp", "error", err)
		}
		logger.Info("search index created", "path", indexPath, "mapping_version", mappingVersion)
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// openCurrent opens the existing index at indexPath if its version
// stamp matches the current mapping. It returns (nil, nil) when there
// is nothing usable to open, removing any stale index directory so the
// caller can create a fresh one in its place.
func openCurrent(indexPath, versionPath string, logger *slog.Logger) (bleve.Index, error) {
	if _, err := os.Stat(indexPath); err != nil {
		return nil, nil
	}

	stamp, err := os.ReadFile(versionPath)
	switch {
	case err != nil:
		logger.Info("search index has no version stamp, rebuilding", "mapping_version", mappingVersion)
	case string(stamp) != mappingVersion:
		logger.Info("search index mapping changed, rebuilding",
			"old_version", string(stamp),
			"new_version", mappingVersion,
		)
	default:
		index, openErr := bleve.Open(indexPath)
		if openErr == nil {
			return index, nil
		}
		logger.Warn("failed to open existing search index, rebuilding", "path", indexPath, "error", openErr)
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("remove stale index: %w", err)
	}
	return nil, nil
}

// Close closes the index and releases its lock files.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes a single document, replacing any previous
// version under the same id.
func (s *SearchIndex) IndexDocument(doc *SearchDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Bleve matches on the lowercase field names of the mapping.
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments indexes documents in batches of 500, keeping memory
// flat during a full catalog reindex.
func (s *SearchIndex) IndexDocuments(docs []*SearchDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for len(docs) > 0 {
		n := min(batchSize, len(docs))
		batch := s.index.NewBatch()
		for _, doc := range docs[:n] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		docs = docs[n:]
	}

	return nil
}

// DeleteDocument removes a document from the index. Deleting an id that
// was never indexed is not an error.
func (s *SearchIndex) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DeleteDocuments removes documents in one batch.
func (s *SearchIndex) DeleteDocuments(ids []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// DocumentCount reports how many documents the index holds.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one with the current
// mapping. It holds the write lock for the whole swap, so searches and
// writes block until the fresh index is in place.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
