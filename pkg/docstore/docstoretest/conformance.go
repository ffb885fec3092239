// Package docstoretest holds the behaviour every docstore.Store adapter must
// share. Adapter tests call [Run] with a constructor for a fresh, empty store.
package docstoretest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

// NewStore returns an empty store. It may register cleanup on t.
type NewStore func(t *testing.T) docstore.Store

// Run exercises the docstore.Store contract against stores built by newStore.
func Run(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("get all on unknown collection is empty", func(t *testing.T) {
		s := newStore(t)
		docs, err := s.GetAll(context.Background(), "nothing")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("add then get one", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "services", map[string]any{"title": "Web", "isActive": true})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.GetOne(ctx, "services", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "Web", doc.Get("title"))
		assert.Equal(t, true, doc.Get("isActive"))
	})

	t.Run("get one missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetOne(context.Background(), "services", "missing")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("get all keeps insertion order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		var ids []string
		for _, title := range []string{"a", "b", "c"} {
			id, err := s.Add(ctx, "projects", map[string]any{"title": title})
			require.NoError(t, err)
			ids = append(ids, id)
		}
		docs, err := s.GetAll(ctx, "projects")
		require.NoError(t, err)
		require.Len(t, docs, 3)
		for i, d := range docs {
			assert.Equal(t, ids[i], d.ID)
		}
	})

	t.Run("set creates and fully replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "companyInfo", "main", map[string]any{"aboutUs": "x", "mission": "m"}))
		require.NoError(t, s.Set(ctx, "companyInfo", "main", map[string]any{"aboutUs": "y"}))

		doc, err := s.GetOne(ctx, "companyInfo", "main")
		require.NoError(t, err)
		assert.Equal(t, "y", doc.Get("aboutUs"))
		assert.Nil(t, doc.Get("mission"))
	})

	t.Run("update merges", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "services", map[string]any{"title": "Web", "description": "d"})
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, "services", id, map[string]any{"title": "Mobile"}))

		doc, err := s.GetOne(ctx, "services", id)
		require.NoError(t, err)
		assert.Equal(t, "Mobile", doc.Get("title"))
		assert.Equal(t, "d", doc.Get("description"))
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), "services", "missing", map[string]any{"title": "x"})
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "services", map[string]any{"title": "Web"})
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, "services", id))
		require.NoError(t, s.Delete(ctx, "services", id))
		require.NoError(t, s.Delete(ctx, "services", "never-existed"))

		_, err = s.GetOne(ctx, "services", id)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("query filter is strict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		native, err := s.Add(ctx, "services", map[string]any{"isActive": true, "order": 1})
		require.NoError(t, err)
		_, err = s.Add(ctx, "services", map[string]any{"isActive": "TRUE", "order": 0})
		require.NoError(t, err)
		_, err = s.Add(ctx, "services", map[string]any{"isActive": false, "order": 2})
		require.NoError(t, err)
		_, err = s.Add(ctx, "services", map[string]any{"order": 3})
		require.NoError(t, err)

		docs, err := s.Query(ctx, "services", &docstore.Equals{Field: "isActive", Value: true}, "order")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, native, docs[0].ID)
	})

	t.Run("query orders and drops documents without the order field", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		second, err := s.Add(ctx, "projects", map[string]any{"order": 5})
		require.NoError(t, err)
		first, err := s.Add(ctx, "projects", map[string]any{"order": 2})
		require.NoError(t, err)
		_, err = s.Add(ctx, "projects", map[string]any{"title": "unordered"})
		require.NoError(t, err)

		docs, err := s.Query(ctx, "projects", nil, "order")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, first, docs[0].ID)
		assert.Equal(t, second, docs[1].ID)
	})

	t.Run("string lists round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "projects", map[string]any{"technologies": []string{"Go", "SQL"}})
		require.NoError(t, err)
		doc, err := s.GetOne(ctx, "projects", id)
		require.NoError(t, err)

		var got []string
		switch v := doc.Get("technologies").(type) {
		case []string:
			got = v
		case []any:
			for _, item := range v {
				got = append(got, item.(string))
			}
		}
		assert.Equal(t, []string{"Go", "SQL"}, got)
	})
}
