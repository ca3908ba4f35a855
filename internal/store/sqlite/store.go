// Package sqlite implements store.Store on a SQLite database. Documents are
// JSON bodies in a single two-column-keyed table, which keeps the backend as
// schemaless as the other two.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cinelogapp/cinelog-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed document persistence.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (creating on first use) the database file at path and prepares
// it for the document workload: WAL journaling, a small connection pool and
// the documents table from the embedded schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// modernc.org/sqlite serializes writers anyway, a small pool is plenty.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger != nil {
		logger.Info("SQLite database opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a new document, failing with store.ErrDuplicateID when the
// (collection, id) pair is already taken.
func (s *Store) Insert(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
		collection, id, string(body))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrDuplicateID
		}
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// Get decodes the document with the given id into out.
func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("select from %s: %w", collection, err)
	}
	return json.Unmarshal([]byte(body), out)
}

// Find decodes the documents matching the filter into out. The title filter
// runs through SQLite's JSON functions so paging happens in SQL.
func (s *Store) Find(ctx context.Context, collection string, f store.Filter, skip, limit int64, out any) error {
	q := `SELECT body FROM documents WHERE collection = ?`
	args := []any{collection}
	if !f.IsZero() {
		q += ` AND instr(lower(json_extract(body, '$.title')), lower(?)) > 0`
		args = append(args, f.TitleContains)
	}
	q += ` ORDER BY id LIMIT ? OFFSET ?`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("select from %s: %w", collection, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scan %s row: %w", collection, err)
		}
		docs = append(docs, []byte(body))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s rows: %w", collection, err)
	}

	return store.DecodeList(docs, out)
}

// Count returns the number of documents matching the filter.
func (s *Store) Count(ctx context.Context, collection string, f store.Filter) (int64, error) {
	q := `SELECT COUNT(*) FROM documents WHERE collection = ?`
	args := []any{collection}
	if !f.IsZero() {
		q += ` AND instr(lower(json_extract(body, '$.title')), lower(?)) > 0`
		args = append(args, f.TitleContains)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// SetFields overwrites top-level fields inside a single transaction.
func (s *Store) SetFields(ctx context.Context, collection, id string, fields map[string]any) (bool, error) {
	changed := false
	err := s.withDoc(ctx, collection, id, func(doc map[string]any) (bool, error) {
		var err error
		changed, err = store.ApplyFields(doc, fields)
		return changed, err
	})
	return changed, err
}

// Push appends a value to an array field.
func (s *Store) Push(ctx context.Context, collection, id, field string, value any) (bool, error) {
	err := s.withDoc(ctx, collection, id, func(doc map[string]any) (bool, error) {
		if err := store.PushValue(doc, field, value); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Pull removes every occurrence of a value from an array field.
func (s *Store) Pull(ctx context.Context, collection, id, field string, value any) (bool, error) {
	changed := false
	err := s.withDoc(ctx, collection, id, func(doc map[string]any) (bool, error) {
		var err error
		changed, err = store.PullValue(doc, field, value)
		return changed, err
	})
	return changed, err
}

// Delete removes a document and reports whether it existed.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// withDoc runs a read-modify-write cycle on one document inside a
// transaction. The modify callback reports whether the document should be
// written back.
func (s *Store) withDoc(ctx context.Context, collection, id string, modify func(map[string]any) (bool, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("select from %s: %w", collection, err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	write, err := modify(doc)
	if err != nil || !write {
		return err
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`,
		string(updated), collection, id); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return tx.Commit()
}
