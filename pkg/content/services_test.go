package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/docstore/memory"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// seedDrift plants one service per historical isActive representation.
func seedDrift(store *memory.Store) {
	rows := []struct {
		id       string
		isActive any
		present  bool
	}{
		{"native-true", true, true},
		{"string-true", "TRUE", true},
		{"string-false", "false", true},
		{"number-one", 1, true},
		{"number-zero", 0.0, true},
		{"null", nil, true},
		{"absent", nil, false},
		{"yes", "yes", true},
		{"native-false", false, true},
	}
	for i, r := range rows {
		fields := map[string]any{"title": r.id, "description": "d", "order": i}
		if r.present {
			fields["isActive"] = r.isActive
		}
		store.Seed(models.CollectionServices, r.id, fields)
	}
}

func TestListActive(t *testing.T) {
	services, store := newServices(t)
	seedDrift(store)

	active, err := services.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"native-true", "string-true", "number-one"}, ids(active))

	all, err := services.List(context.Background())
	require.NoError(t, err)
	var want []string
	for _, svc := range all {
		if svc.IsActive {
			want = append(want, svc.ID)
		}
	}
	assert.Equal(t, want, ids(active), "ListActive is List filtered on the coerced flag")
}

func TestToggleActive(t *testing.T) {
	ctx := context.Background()

	t.Run("twice restores the original value", func(t *testing.T) {
		services, store := newServices(t)
		seedDrift(store)

		for _, id := range []string{"native-true", "string-true", "absent", "yes"} {
			before, err := services.Get(ctx, id)
			require.NoError(t, err)

			once, err := services.ToggleActive(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, !before.IsActive, once.IsActive, id)

			twice, err := services.ToggleActive(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, before.IsActive, twice.IsActive, id)
		}
	})

	t.Run("writes a native boolean", func(t *testing.T) {
		services, store := newServices(t)
		seedDrift(store)

		svc, err := services.ToggleActive(ctx, "string-true")
		require.NoError(t, err)
		assert.False(t, svc.IsActive)
		assert.Equal(t, fixedNow, svc.UpdatedAt)

		raw, _ := store.Raw(models.CollectionServices, "string-true")
		assert.Equal(t, false, raw["isActive"])
		assert.Equal(t, fixedNow, raw["updatedAt"])
	})

	t.Run("missing id", func(t *testing.T) {
		services, _ := newServices(t)
		_, err := services.ToggleActive(ctx, "missing")
		var nf *content.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestRepair(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("string TRUE is listed then repaired to native true", func(t *testing.T) {
		services, store := newServices(t)
		store.Seed(models.CollectionServices, "s1", map[string]any{"title": "Web", "isActive": "TRUE"})

		active, err := services.ListActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, ids(active))

		res, err := services.Repair(ctx, content.RepairOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, res.Fixed)

		raw, _ := store.Raw(models.CollectionServices, "s1")
		assert.Equal(t, true, raw["isActive"])
		assert.Equal(t, fixedNow, raw["updatedAt"])
	})

	t.Run("second run fixes nothing", func(t *testing.T) {
		services, store := newServices(t)
		seedDrift(store)

		first, err := services.Repair(ctx, content.RepairOptions{})
		require.NoError(t, err)
		wantFixed := []string{"string-true", "string-false", "number-one", "number-zero", "null", "absent", "yes"}
		if diff := cmp.Diff(wantFixed, first.Fixed); diff != "" {
			t.Errorf("first run Fixed mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []string{"native-true", "native-false"}, first.AlreadyCorrect)
		assert.Empty(t, first.Failed)
		assert.False(t, first.Partial())

		writes := store.Writes()
		second, err := services.Repair(ctx, content.RepairOptions{})
		require.NoError(t, err)
		assert.Empty(t, second.Fixed)
		assert.Equal(t, writes, store.Writes(), "a repaired collection is not written again")
		for _, id := range first.Fixed {
			assert.Contains(t, second.AlreadyCorrect, id)
		}

		active, err := services.ListActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"native-true", "string-true", "number-one"}, ids(active),
			"repair never changes the coerced value")
	})

	t.Run("failed writes do not abort the batch", func(t *testing.T) {
		boom := errors.New("write refused")
		services, store := newServices(t, memory.WithFailures(func(op memory.Op, _, id string) error {
			if op == memory.OpUpdate && (id == "string-true" || id == "yes") {
				return boom
			}
			return nil
		}))
		seedDrift(store)

		res, err := services.Repair(ctx, content.RepairOptions{})
		require.NoError(t, err)
		assert.True(t, res.Partial())
		assert.Equal(t, []string{"string-true", "yes"}, res.Failed)
		assert.Equal(t, []string{"string-false", "number-one", "number-zero", "null", "absent"}, res.Fixed)

		raw, _ := store.Raw(models.CollectionServices, "string-true")
		assert.Equal(t, "TRUE", raw["isActive"], "failed documents are left as they were")
	})

	t.Run("listing failure is an error", func(t *testing.T) {
		services, _ := newServices(t, memory.WithFailures(func(op memory.Op, _, _ string) error {
			if op == memory.OpGetAll {
				return errors.New("down")
			}
			return nil
		}))
		_, err := services.Repair(ctx, content.RepairOptions{})
		assert.True(t, content.IsUnavailable(err))
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		services, store := newServices(t)
		seedDrift(store)

		res, err := services.Repair(ctx, content.RepairOptions{DryRun: true})
		require.NoError(t, err)
		assert.True(t, res.DryRun)
		assert.Len(t, res.Fixed, 7)
		assert.Equal(t, int64(0), store.Writes())

		raw, _ := store.Raw(models.CollectionServices, "string-true")
		assert.Equal(t, "TRUE", raw["isActive"])
	})

	t.Run("bounded fan-out over a large collection", func(t *testing.T) {
		store := memory.New()
		for i := 0; i < 200; i++ {
			store.Seed(models.CollectionServices, string(rune('A'+i%26))+string(rune('a'+i/26)), map[string]any{"isActive": "true"})
		}
		services := content.NewServices(store, content.WithRepairConcurrency(8))

		res, err := services.Repair(ctx, content.RepairOptions{})
		require.NoError(t, err)
		assert.Len(t, res.Fixed, 200)
		assert.Equal(t, int64(200), store.Writes())
	})
}

func TestAuditActive(t *testing.T) {
	services, store := newServices(t)
	seedDrift(store)
	ctx := context.Background()

	report, err := services.AuditActive(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, []string{"native-true"}, report.Native)
	assert.Equal(t, []string{"string-true", "number-one"}, report.Missed)
	assert.Empty(t, report.Spurious)

	_, err = services.Repair(ctx, content.RepairOptions{})
	require.NoError(t, err)

	report, err = services.AuditActive(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}
