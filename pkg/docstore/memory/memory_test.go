package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/docstore/docstoretest"
	"github.com/surrealdb/sitecontent/pkg/docstore/memory"
)

func TestConformance(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		return memory.New()
	})
}

func TestSeedKeepsRawTypes(t *testing.T) {
	s := memory.New()
	s.Seed("services", "s1", map[string]any{"isActive": "TRUE"})

	doc, err := s.GetOne(context.Background(), "services", "s1")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", doc.Get("isActive"))
	assert.Equal(t, int64(0), s.Writes())
}

func TestReturnedFieldsAreCopies(t *testing.T) {
	s := memory.New()
	s.Seed("projects", "p1", map[string]any{"technologies": []any{"Go"}})

	doc, err := s.GetOne(context.Background(), "projects", "p1")
	require.NoError(t, err)
	doc.Fields["technologies"].([]any)[0] = "changed"
	doc.Fields["title"] = "changed"

	raw, ok := s.Raw("projects", "p1")
	require.True(t, ok)
	assert.Equal(t, []any{"Go"}, raw["technologies"])
	assert.NotContains(t, raw, "title")
}

func TestWithFailures(t *testing.T) {
	boom := errors.New("boom")
	s := memory.New(memory.WithFailures(func(op memory.Op, _, id string) error {
		if op == memory.OpUpdate && id == "bad" {
			return boom
		}
		return nil
	}))
	s.Seed("services", "bad", map[string]any{"title": "x"})
	s.Seed("services", "good", map[string]any{"title": "y"})
	ctx := context.Background()

	assert.ErrorIs(t, s.Update(ctx, "services", "bad", map[string]any{"title": "z"}), boom)
	assert.NoError(t, s.Update(ctx, "services", "good", map[string]any{"title": "z"}))
	assert.Equal(t, int64(1), s.Writes())
}

func TestWithIDGenerator(t *testing.T) {
	n := 0
	s := memory.New(memory.WithIDGenerator(func() string {
		n++
		return string(rune('a' + n - 1))
	}))
	id, err := s.Add(context.Background(), "projects", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "a", id)
}

func TestCanceledContext(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetAll(ctx, "projects")
	assert.ErrorIs(t, err, context.Canceled)
}
