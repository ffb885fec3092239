// Package docstore defines the document store collaborator the content layer
// is written against.
//
// A [Store] holds schema-less documents grouped into named collections. Each
// document is a flat map of field names to values plus a store-assigned id.
// Stores make no promise about the Go types they hand back: a boolean written
// by one client may come back as a string written by another, numbers may be
// any numeric kind, and timestamps may be native times or strings. Callers that
// need canonical types convert through [github.com/surrealdb/sitecontent/pkg/coerce].
//
// # Implementations
//
//   - [github.com/surrealdb/sitecontent/pkg/docstore/memory.Store]: in-process, used by tests and demos
//   - [github.com/surrealdb/sitecontent/pkg/docstore/surrealdb.Store]: SurrealDB over WebSocket using SurrealQL
//   - [github.com/surrealdb/sitecontent/pkg/docstore/postgres.Store]: PostgreSQL JSONB documents through GORM
//   - [github.com/surrealdb/sitecontent/pkg/docstore/sqlite.Store]: SQLite JSON documents, handy for single host deployments
//
// [NewReadOnly] wraps any of them to refuse writes during maintenance.
//
// # Native queries
//
// [Store.Query] runs the store's own equality filter. That filter compares raw
// values, so a document holding the string "TRUE" does not match a filter for
// the boolean true. Content code must not rely on it for weakly typed fields.
// It exists so the mismatch can be measured.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by GetOne and Update when no document has the id.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrReadOnly is returned by every write while the store is read-only.
	ErrReadOnly = errors.New("docstore: operation denied, store is in read-only mode")
)

// Document is a raw stored document.
type Document struct {
	ID     string
	Fields map[string]any
}

// Get returns the raw value of a field, or nil when absent.
func (d Document) Get(field string) any {
	if d.Fields == nil {
		return nil
	}
	return d.Fields[field]
}

// Equals is a single field equality filter for Query.
type Equals struct {
	Field string
	Value any
}

// Store is the document store client.
//
// Fields passed to writes are never retained by the store, and maps returned
// by reads belong to the caller.
type Store interface {
	// GetAll returns every document in the collection in the store's fetch
	// order. An unknown collection yields an empty slice.
	GetAll(ctx context.Context, collection string) ([]Document, error)

	// GetOne returns the document with the given id or ErrNotFound.
	GetOne(ctx context.Context, collection, id string) (*Document, error)

	// Add creates a document and returns the id the store assigned to it.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Set creates or fully replaces the document with the given id.
	Set(ctx context.Context, collection, id string, fields map[string]any) error

	// Update merges fields into an existing document. It returns ErrNotFound
	// when no document has the id.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes the document. Deleting a missing id is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Query returns documents matching filter, ordered ascending by orderBy.
	// A nil filter matches every document and an empty orderBy keeps fetch
	// order. Documents that lack the orderBy field are left out.
	Query(ctx context.Context, collection string, filter *Equals, orderBy string) ([]Document, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}

// CloneFields returns a shallow copy of fields. Nested maps and slices are
// copied one level deep so callers cannot mutate stored lists in place.
func CloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case []any:
			out[k] = append([]any(nil), t...)
		case []string:
			out[k] = append([]string(nil), t...)
		case map[string]any:
			inner := make(map[string]any, len(t))
			for ik, iv := range t {
				inner[ik] = iv
			}
			out[k] = inner
		default:
			out[k] = v
		}
	}
	return out
}
