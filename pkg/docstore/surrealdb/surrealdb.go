// Package surrealdb provides a SurrealDB implementation of [docstore.Store]
// using native SurrealQL through the official Go SDK.
//
// Each collection maps to a table and each document to a record whose id is
// the document id. Queries are always parameterized: tables and ids travel as
// $tb and $id and are turned into record ids with type::table and type::thing.
// Field names used in Query are validated identifiers, since SurrealQL cannot
// bind them as parameters.
//
// # Value mapping
//
// Record ids come back from the SDK as [models.RecordID] and datetimes as
// [models.CustomDateTime]. Documents handed to callers carry plain Go values
// instead: the id part of the record id as a string, time.Time for datetimes
// and nil for NONE. On write, time.Time values are sent as datetimes.
//
// # Fetch order
//
// SurrealDB returns table scans ordered by record id. Add assigns version 7
// UUIDs, which sort by creation time, so GetAll returns documents in the order
// they were added.
package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store implements docstore.Store on SurrealDB.
type Store struct {
	db *surrealdb.DB
}

var _ docstore.Store = (*Store)(nil)

// Open connects, signs in when credentials are given and selects the
// namespace and database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

// query runs a single statement and returns its rows.
func (s *Store) query(ctx context.Context, sql string, vars map[string]any) ([]map[string]any, error) {
	res, err := surrealdb.Query[[]map[string]any](ctx, s.db, sql, vars)
	if err != nil {
		return nil, err
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	first := (*res)[0]
	if first.Status != "OK" {
		return nil, fmt.Errorf("query returned status %s", first.Status)
	}
	return first.Result, nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := s.query(ctx, "SELECT * FROM type::table($tb) ORDER BY id", map[string]any{
		"tb": collection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return toDocuments(rows), nil
}

func (s *Store) GetOne(ctx context.Context, collection, id string) (*docstore.Document, error) {
	rows, err := s.query(ctx, "SELECT * FROM type::thing($tb, $id)", map[string]any{
		"tb": collection,
		"id": id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return nil, docstore.ErrNotFound
	}
	doc := toDocument(rows[0])
	return &doc, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	_, err = s.query(ctx, "CREATE type::thing($tb, $id) CONTENT $data", map[string]any{
		"tb":   collection,
		"id":   id.String(),
		"data": toSurreal(fields),
	})
	if err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return id.String(), nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := s.query(ctx, "UPSERT type::thing($tb, $id) CONTENT $data", map[string]any{
		"tb":   collection,
		"id":   id,
		"data": toSurreal(fields),
	})
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update checks existence first because UPDATE on a missing record id
// creates it on older SurrealDB releases.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.GetOne(ctx, collection, id); err != nil {
		return err
	}
	rows, err := s.query(ctx, "UPDATE type::thing($tb, $id) MERGE $data", map[string]any{
		"tb":   collection,
		"id":   id,
		"data": toSurreal(fields),
	})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.query(ctx, "DELETE type::thing($tb, $id)", map[string]any{
		"tb": collection,
		"id": id,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filter *docstore.Equals, orderBy string) ([]docstore.Document, error) {
	sql, vars, err := buildQuery(collection, filter, orderBy)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return toDocuments(rows), nil
}

var errInvalidField = errors.New("invalid field name")

func buildQuery(collection string, filter *docstore.Equals, orderBy string) (string, map[string]any, error) {
	sql := "SELECT * FROM type::table($tb)"
	vars := map[string]any{"tb": collection}

	var conds []string
	if filter != nil {
		if !fieldName.MatchString(filter.Field) {
			return "", nil, fmt.Errorf("%w: %q", errInvalidField, filter.Field)
		}
		field := quoteIdent(filter.Field)
		if filter.Value == nil {
			conds = append(conds, field+" = NULL")
		} else {
			conds = append(conds, field+" = $value")
			vars["value"] = toSurrealValue(filter.Value)
		}
	}
	if orderBy != "" {
		if !fieldName.MatchString(orderBy) {
			return "", nil, fmt.Errorf("%w: %q", errInvalidField, orderBy)
		}
		conds = append(conds, quoteIdent(orderBy)+" != NONE", quoteIdent(orderBy)+" != NULL")
	}
	for i, c := range conds {
		if i == 0 {
			sql += " WHERE " + c
			continue
		}
		sql += " AND " + c
	}
	if orderBy != "" {
		sql += " ORDER BY " + quoteIdent(orderBy) + " ASC, id ASC"
	} else {
		sql += " ORDER BY id"
	}
	return sql, vars, nil
}

// quoteIdent escapes a validated field name so keywords such as order can be
// used as field names.
func quoteIdent(name string) string {
	return "`" + name + "`"
}

func toDocuments(rows []map[string]any) []docstore.Document {
	out := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDocument(row))
	}
	return out
}

func toDocument(row map[string]any) docstore.Document {
	doc := docstore.Document{Fields: make(map[string]any, len(row))}
	for k, v := range row {
		if k == "id" {
			doc.ID = recordKey(v)
			continue
		}
		doc.Fields[k] = fromSurrealValue(v)
	}
	return doc
}

// recordKey extracts the id part of a record id.
func recordKey(v any) string {
	switch t := v.(type) {
	case models.RecordID:
		return fmt.Sprint(t.ID)
	case *models.RecordID:
		if t == nil {
			return ""
		}
		return fmt.Sprint(t.ID)
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func fromSurrealValue(v any) any {
	switch t := v.(type) {
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time
	case models.CustomNil, *models.CustomNil:
		return nil
	case models.RecordID, *models.RecordID:
		return recordKey(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, iv := range t {
			out[k] = fromSurrealValue(iv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, iv := range t {
			out[i] = fromSurrealValue(iv)
		}
		return out
	}
	return v
}

func toSurreal(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = toSurrealValue(v)
	}
	return out
}

func toSurrealValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return models.CustomDateTime{Time: t}
	case *time.Time:
		if t == nil {
			return nil
		}
		return models.CustomDateTime{Time: *t}
	case map[string]any:
		return toSurreal(t)
	case []any:
		out := make([]any, len(t))
		for i, iv := range t {
			out[i] = toSurrealValue(iv)
		}
		return out
	}
	return v
}
