// Package badger implements store.Store on an embedded Badger key-value
// database. Documents are stored as JSON values under "<collection>:<id>"
// keys, so a collection scan is a single prefix iteration.
package badger

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/cinelogapp/cinelog-server/internal/store"
)

// Store is the default embedded backend.
type Store struct {
	db     *badgerdb.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database at the given path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil
	// Synced writes and L0 compaction on close trade some write speed for
	// clean recovery and faster reopening after a crash.
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	if logger != nil {
		logger.Info("Badger database opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database")
	}
	return s.db.Close()
}

func key(collection, id string) []byte {
	return []byte(collection + ":" + id)
}

// Insert stores a new document, failing with store.ErrDuplicateID when the
// id is already present.
func (s *Store) Insert(_ context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	k := key(collection, id)
	return s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return store.ErrDuplicateID
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		return txn.Set(k, data)
	})
}

// Get decodes the document with the given id into out.
func (s *Store) Get(_ context.Context, collection, id string, out any) error {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(collection, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return store.ErrNoDocument
	}
	return err
}

// Find scans the collection prefix in key order, applies the filter and the
// paging window, and decodes the surviving documents into out.
func (s *Store) Find(_ context.Context, collection string, f store.Filter, skip, limit int64, out any) error {
	prefix := []byte(collection + ":")

	var docs [][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		var matched int64
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var keep []byte
			err := it.Item().Value(func(val []byte) error {
				if !matches(f, val) {
					return nil
				}
				matched++
				if matched <= skip {
					return nil
				}
				// Value bytes are only valid inside the closure.
				keep = append([]byte(nil), val...)
				return nil
			})
			if err != nil {
				return err
			}
			if keep != nil {
				docs = append(docs, keep)
				if limit > 0 && int64(len(docs)) >= limit {
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", collection, err)
	}

	return store.DecodeList(docs, out)
}

// Count scans the collection and counts documents matching the filter.
func (s *Store) Count(_ context.Context, collection string, f store.Filter) (int64, error) {
	prefix := []byte(collection + ":")

	var total int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		if f.IsZero() {
			// Key-only iteration is enough when every document matches.
			opts.PrefetchValues = false
		}

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if f.IsZero() {
				total++
				continue
			}
			err := it.Item().Value(func(val []byte) error {
				if matches(f, val) {
					total++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return total, nil
}

// SetFields overwrites top-level fields of the stored document inside a
// single read-modify-write transaction. Reports whether anything changed.
func (s *Store) SetFields(_ context.Context, collection, id string, fields map[string]any) (bool, error) {
	k := key(collection, id)

	changed := false
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		doc, err := getDoc(txn, k)
		if err != nil {
			return err
		}

		changed, err = store.ApplyFields(doc, fields)
		if err != nil || !changed {
			return err
		}
		return putDoc(txn, k, doc)
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, store.ErrNoDocument
	}
	return changed, err
}

// Push appends a value to an array field, creating the array if missing.
func (s *Store) Push(_ context.Context, collection, id, field string, value any) (bool, error) {
	k := key(collection, id)

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		doc, err := getDoc(txn, k)
		if err != nil {
			return err
		}

		if err := store.PushValue(doc, field, value); err != nil {
			return err
		}
		return putDoc(txn, k, doc)
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, store.ErrNoDocument
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Pull removes every occurrence of a value from an array field and reports
// whether anything was removed.
func (s *Store) Pull(_ context.Context, collection, id, field string, value any) (bool, error) {
	k := key(collection, id)

	changed := false
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		doc, err := getDoc(txn, k)
		if err != nil {
			return err
		}

		changed, err = store.PullValue(doc, field, value)
		if err != nil || !changed {
			return err
		}
		return putDoc(txn, k, doc)
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, store.ErrNoDocument
	}
	return changed, err
}

// Delete removes a document and reports whether it existed.
func (s *Store) Delete(_ context.Context, collection, id string) (bool, error) {
	k := key(collection, id)

	existed := false
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(k)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(k)
	})
	return existed, err
}

// Helpers.

func getDoc(txn *badgerdb.Txn, key []byte) (map[string]any, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

func putDoc(txn *badgerdb.Txn, key []byte, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return txn.Set(key, data)
}

// matches evaluates the filter against a raw document without a full decode.
func matches(f store.Filter, doc []byte) bool {
	if f.IsZero() {
		return true
	}
	var probe struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return false
	}
	return f.MatchTitle(probe.Title)
}

