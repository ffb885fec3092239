// Package admin serves the content repository over HTTP: a public read API
// for the website and an authenticated admin API for the console.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/surrealdb/sitecontent/pkg/auth"
	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// DefaultAdminRole is the role required on admin routes when Config leaves
// AdminRole empty.
const DefaultAdminRole = "admin"

const maxBodyBytes = 1 << 20

// Switch is a runtime on/off flag. *atomic.Bool satisfies it.
type Switch interface {
	Load() bool
	Store(bool)
}

// Config holds the collaborators of a Server.
type Config struct {
	Projects *content.Repository[models.Project]
	Services *content.Services
	Company  *content.Singleton[models.CompanyInfo]
	Contact  *content.Singleton[models.ContactInfo]

	Auth      auth.Authenticator
	AdminRole string

	// ReadOnly, when set, can be toggled through the admin API.
	ReadOnly Switch
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler

	Logger zerolog.Logger
}

type Server struct {
	cfg    Config
	router *mux.Router
	log    zerolog.Logger
}

func New(cfg Config) *Server {
	if cfg.AdminRole == "" {
		cfg.AdminRole = DefaultAdminRole
	}
	s := &Server{cfg: cfg, log: cfg.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.cfg.Metrics != nil {
		router.Handle("/metrics", s.cfg.Metrics).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	public := api.PathPrefix("/public").Subrouter()
	public.HandleFunc("/projects", s.handlePublicProjects).Methods("GET")
	public.HandleFunc("/services", s.handlePublicServices).Methods("GET")
	public.HandleFunc("/company", s.handleGetCompany).Methods("GET")
	public.HandleFunc("/contact", s.handleGetContact).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/me", s.handleMe).Methods("GET")

	collectionRoutes(s, admin.PathPrefix("/projects").Subrouter(), s.cfg.Projects)

	services := admin.PathPrefix("/services").Subrouter()
	services.HandleFunc("/repair", s.handleRepair).Methods("POST")
	services.HandleFunc("/audit", s.handleAudit).Methods("GET")
	services.HandleFunc("/{id}/toggle", s.handleToggle).Methods("POST")
	collectionRoutes(s, services, s.cfg.Services.Repository)

	admin.HandleFunc("/company", s.handleGetCompany).Methods("GET")
	admin.HandleFunc("/company", s.handlePutCompany).Methods("PUT")
	admin.HandleFunc("/contact", s.handleGetContact).Methods("GET")
	admin.HandleFunc("/contact", s.handlePutContact).Methods("PUT")

	admin.HandleFunc("/read-only", s.handleGetReadOnly).Methods("GET")
	admin.HandleFunc("/read-only", s.handleSetReadOnly).Methods("POST")

	return router
}

type identityKey struct{}

// requireAdmin rejects anonymous callers with 401 and callers without the
// admin role with 403.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Auth == nil {
			respondError(w, http.StatusUnauthorized, "authentication is not configured")
			return
		}
		id, err := s.cfg.Auth.CurrentUser(r)
		if err != nil {
			s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if id == nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !id.HasRole(s.cfg.AdminRole) {
			respondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(rec, r)

		ev := s.log.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":   "healthy",
		"readOnly": s.cfg.ReadOnly != nil && s.cfg.ReadOnly.Load(),
		"time":     time.Now().Unix(),
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := r.Context().Value(identityKey{}).(*auth.Identity)
	respondJSON(w, http.StatusOK, id)
}

// fail maps a repository error to its status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case content.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, docstore.ErrReadOnly):
		status = http.StatusConflict
	case content.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	respondError(w, status, err.Error())
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &content.ValidationError{Reason: "invalid request payload"}
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
