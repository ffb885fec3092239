package admin_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/sitecontent/pkg/admin"
	"github.com/surrealdb/sitecontent/pkg/auth"
	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/docstore/memory"
	"github.com/surrealdb/sitecontent/pkg/markup"
	"github.com/surrealdb/sitecontent/pkg/metrics"
	"github.com/surrealdb/sitecontent/pkg/models"
)

const secret = "admin-test-secret"

type fixture struct {
	server   *admin.Server
	store    *memory.Store
	readOnly *atomic.Bool
	token    string
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	store := memory.New(opts...)
	readOnly := new(atomic.Bool)
	guarded := docstore.NewReadOnly(store, readOnly.Load)

	authn, err := auth.NewJWT(secret)
	require.NoError(t, err)

	collector := metrics.New()
	copts := []content.Option{content.WithObserver(collector)}
	server := admin.New(admin.Config{
		Projects: content.NewProjects(guarded, copts...),
		Services: content.NewServices(guarded, copts...),
		Company:  content.NewCompanyInfo(guarded, copts...),
		Contact:  content.NewContactInfo(guarded, copts...),
		Auth:     authn,
		ReadOnly: readOnly,
		Metrics:  collector.Handler(),
	})
	return &fixture{
		server:   server,
		store:    store,
		readOnly: readOnly,
		token:    mint(t, []string{"admin"}),
	}
}

func mint(t *testing.T, roles []string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "editor-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return f.doAs(t, f.token, method, path, body)
}

func (f *fixture) doAs(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(t, "", http.MethodGet, "/api/admin/services", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "authentication required")

	rec = f.doAs(t, "garbage", http.MethodGet, "/api/admin/services", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.doAs(t, mint(t, []string{"viewer"}), http.MethodGet, "/api/admin/services", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "editor-1", decode[auth.Identity](t, rec).Subject)

	rec = f.doAs(t, "", http.MethodGet, "/api/public/services", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "public routes need no token")
}

func TestServiceLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/services", map[string]any{
		"title":       "Web",
		"description": "Sites",
		"icon":        `<svg width="10"><path d="M0 0"/></svg>`,
		"features":    []string{"SEO"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Service](t, rec)
	assert.Equal(t, 0, created.Order)
	assert.True(t, created.IsActive)
	assert.NotContains(t, created.Icon, `width="10"`)

	path := "/api/admin/services/" + created.ID

	rec = f.do(t, http.MethodPatch, path, map[string]any{"description": "Fast sites"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fast sites", decode[models.Service](t, rec).Description)

	rec = f.do(t, http.MethodPost, path+"/items/features", map[string]string{"value": "Hosting"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SEO", "Hosting"}, decode[models.Service](t, rec).Features)

	rec = f.do(t, http.MethodPost, path+"/items/features", map[string]string{"value": "SEO"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, path+"/items/features?value=SEO", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Hosting"}, decode[models.Service](t, rec).Features)

	rec = f.do(t, http.MethodPost, path+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Service](t, rec).IsActive)

	rec = f.doAs(t, "", http.MethodGet, "/api/public/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Service](t, rec))

	rec = f.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/api/admin/services", map[string]any{
			"title": "Web", "description": "d", "icon": "<div/>",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "icon")

		req := httptest.NewRequest(http.MethodPost, "/api/admin/projects", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+f.token)
		raw := httptest.NewRecorder()
		f.server.ServeHTTP(raw, req)
		assert.Equal(t, http.StatusBadRequest, raw.Code)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPatch, "/api/admin/projects/nope", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("read-only", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/api/admin/read-only", map[string]bool{"readOnly": true})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.readOnly.Load())

		rec = f.do(t, http.MethodPost, "/api/admin/projects", map[string]any{"title": "a", "description": "b"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, int64(0), f.store.Writes())

		rec = f.do(t, http.MethodGet, "/api/admin/projects", nil)
		assert.Equal(t, http.StatusOK, rec.Code, "reads still work")

		rec = f.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, true, decode[map[string]any](t, rec)["readOnly"])
	})

	t.Run("store unavailable", func(t *testing.T) {
		f := newFixture(t, memory.WithFailures(func(memory.Op, string, string) error {
			return errors.New("connection refused")
		}))
		rec := f.doAs(t, "", http.MethodGet, "/api/public/projects", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestReorderProjects(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		f.store.Seed(models.CollectionProjects, id, map[string]any{"title": id, "description": id, "order": len(id) - 1})
	}

	rec := f.do(t, http.MethodPut, "/api/admin/projects/order", map[string]any{"ids": []string{"c", "b", "a"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got []string
	for _, p := range decode[[]models.Project](t, rec) {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestPublicServicesRenderIcons(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(models.CollectionServices, "ok", map[string]any{
		"title": "Ok", "isActive": "TRUE", "order": 0,
		"icon": `<svg height="5"><path d="M0 0"/></svg>`,
	})
	f.store.Seed(models.CollectionServices, "broken", map[string]any{
		"title": "Broken", "isActive": 1, "order": 1, "icon": "<svg><path",
	})
	f.store.Seed(models.CollectionServices, "hidden", map[string]any{
		"title": "Hidden", "isActive": "false", "order": 2,
	})

	rec := f.doAs(t, "", http.MethodGet, "/api/public/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	services := decode[[]models.Service](t, rec)
	require.Len(t, services, 2)
	assert.Contains(t, services[0].Icon, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Equal(t, string(markup.Placeholder), services[1].Icon)
}

func TestRepairAndAudit(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(models.CollectionServices, "s1", map[string]any{"title": "A", "isActive": "TRUE", "order": 0})
	f.store.Seed(models.CollectionServices, "s2", map[string]any{"title": "B", "isActive": true, "order": 1})

	rec := f.do(t, http.MethodGet, "/api/admin/services/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s1"}, decode[content.AuditReport](t, rec).Missed)

	rec = f.do(t, http.MethodPost, "/api/admin/services/repair?dryRun=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[content.RepairResult](t, rec).DryRun)
	assert.Equal(t, int64(0), f.store.Writes())

	rec = f.do(t, http.MethodPost, "/api/admin/services/repair", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[content.RepairResult](t, rec)
	assert.Equal(t, []string{"s1"}, res.Fixed)
	assert.Equal(t, []string{"s2"}, res.AlreadyCorrect)

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sitecontent_repair_documents_total{collection="services",outcome="fixed"} 1`)
}

func TestPartialRepair(t *testing.T) {
	f := newFixture(t, memory.WithFailures(func(op memory.Op, _, id string) error {
		if op == memory.OpUpdate && id == "s1" {
			return errors.New("write refused")
		}
		return nil
	}))
	f.store.Seed(models.CollectionServices, "s1", map[string]any{"isActive": "TRUE"})
	f.store.Seed(models.CollectionServices, "s2", map[string]any{"isActive": "0"})

	rec := f.do(t, http.MethodPost, "/api/admin/services/repair", nil)
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	res := decode[content.RepairResult](t, rec)
	assert.Equal(t, []string{"s1"}, res.Failed)
	assert.Equal(t, []string{"s2"}, res.Fixed)
}

func TestSingletons(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(t, "", http.MethodGet, "/api/public/contact", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Closed", decode[models.ContactInfo](t, rec).BusinessHours.Saturday)
	assert.Equal(t, int64(0), f.store.Writes())

	rec = f.do(t, http.MethodPut, "/api/admin/company", models.CompanyInfo{YearsExperience: 8, ClientSatisfaction: 97})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.doAs(t, "", http.MethodGet, "/api/public/company", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 97, decode[models.CompanyInfo](t, rec).ClientSatisfaction)

	rec = f.do(t, http.MethodPut, "/api/admin/contact", models.ContactInfo{MapURL: "ftp://maps"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
