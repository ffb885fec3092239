// Package sqlite stores documents as JSON text in a single SQLite table using
// the pure Go modernc.org/sqlite driver.
//
// Every collection shares one table keyed by (collection, id). A monotonically
// increasing seq column records insertion order, which is the fetch order of
// GetAll. Native queries filter with json_type and json_extract so that, like
// any typed document store, a stored "true" string does not match a boolean
// filter.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     TEXT NOT NULL,
	UNIQUE (collection, id)
)`

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a docstore.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ docstore.Store = (*Store)(nil)

// Open opens (and creates if needed) the database at path. Use ":memory:" for
// a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=10000",
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

func (s *Store) GetOne(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	fields, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	raw, err := encode(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)`, collection, id, raw); err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := encode(fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields`,
		collection, id, raw)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges inside a transaction so concurrent merges on one document do
// not drop each other's fields.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}
	current, err := decode(raw)
	if err != nil {
		return err
	}
	for k, v := range fields {
		current[k] = v
	}
	merged, err := encode(current)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET fields = ? WHERE collection = ? AND id = ?`, merged, collection, id); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filter *docstore.Equals, orderBy string) ([]docstore.Document, error) {
	var (
		where = []string{"collection = ?"}
		args  = []any{collection}
	)
	if filter != nil {
		pred, predArgs, err := equalsPredicate(filter)
		if err != nil {
			return nil, err
		}
		where = append(where, pred)
		args = append(args, predArgs...)
	}
	order := "seq"
	if orderBy != "" {
		if !fieldName.MatchString(orderBy) {
			return nil, fmt.Errorf("invalid order field %q", orderBy)
		}
		path := "$." + orderBy
		// json_type is NULL for a missing path, so this drops absent fields too.
		where = append(where, "json_type(fields, ?) <> 'null'")
		args = append(args, path)
		order = "json_extract(fields, ?), seq"
		args = append(args, path)
	}

	q := "SELECT id, fields FROM documents WHERE " + strings.Join(where, " AND ") + " ORDER BY " + order
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

// equalsPredicate compares the JSON type as well as the value.
func equalsPredicate(filter *docstore.Equals) (string, []any, error) {
	if !fieldName.MatchString(filter.Field) {
		return "", nil, fmt.Errorf("invalid filter field %q", filter.Field)
	}
	path := "$." + filter.Field

	switch v := filter.Value.(type) {
	case nil:
		return "json_type(fields, ?) = 'null'", []any{path}, nil
	case bool:
		if v {
			return "json_type(fields, ?) = 'true'", []any{path}, nil
		}
		return "json_type(fields, ?) = 'false'", []any{path}, nil
	case string:
		return "(json_type(fields, ?) = 'text' AND json_extract(fields, ?) = ?)", []any{path, path, v}, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "(json_type(fields, ?) IN ('integer', 'real') AND json_extract(fields, ?) = ?)", []any{path, path, v}, nil
	}
	return "", nil, fmt.Errorf("unsupported filter value %T", filter.Value)
}

func scanDocuments(rows *sql.Rows) ([]docstore.Document, error) {
	defer rows.Close()
	out := []docstore.Document{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		fields, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return out, nil
}

func encode(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(b), nil
}

func decode(raw string) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return fields, nil
}
