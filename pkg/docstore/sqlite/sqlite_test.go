package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/docstore/docstoretest"
	"github.com/surrealdb/sitecontent/pkg/docstore/sqlite"
)

func newStore(t *testing.T) docstore.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestConformance(t *testing.T) {
	docstoretest.Run(t, newStore)
}

func TestSetKeepsFetchPosition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first, err := s.Add(ctx, "projects", map[string]any{"title": "a"})
	require.NoError(t, err)
	_, err = s.Add(ctx, "projects", map[string]any{"title": "b"})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "projects", first, map[string]any{"title": "a2"}))

	docs, err := s.GetAll(ctx, "projects")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first, docs[0].ID)
	assert.Equal(t, "a2", docs[0].Get("title"))
}

func TestQueryRejectsUnsafeFieldNames(t *testing.T) {
	s := newStore(t)
	_, err := s.Query(context.Background(), "services", &docstore.Equals{Field: "x') OR 1=1 --", Value: true}, "")
	assert.Error(t, err)

	_, err = s.Query(context.Background(), "services", nil, "order; DROP TABLE documents")
	assert.Error(t, err)
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	ctx := context.Background()

	s, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "contact", "info", map[string]any{"email": "hi@example.com"}))
	require.NoError(t, s.Close(ctx))

	s, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close(ctx)

	doc, err := s.GetOne(ctx, "contact", "info")
	require.NoError(t, err)
	assert.Equal(t, "hi@example.com", doc.Get("email"))
}
