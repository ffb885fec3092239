package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/markup"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// collectionHandlers serves CRUD for one ordered collection.
type collectionHandlers[E models.Entity] struct {
	s    *Server
	repo *content.Repository[E]
}

func collectionRoutes[E models.Entity](s *Server, r *mux.Router, repo *content.Repository[E]) {
	h := collectionHandlers[E]{s: s, repo: repo}
	r.HandleFunc("", h.list).Methods("GET")
	r.HandleFunc("", h.create).Methods("POST")
	r.HandleFunc("/order", h.reorder).Methods("PUT")
	r.HandleFunc("/{id}", h.get).Methods("GET")
	r.HandleFunc("/{id}", h.update).Methods("PATCH", "PUT")
	r.HandleFunc("/{id}", h.delete).Methods("DELETE")
	r.HandleFunc("/{id}/items/{field}", h.addItem).Methods("POST")
	r.HandleFunc("/{id}/items/{field}", h.removeItem).Methods("DELETE")
}

func (h collectionHandlers[E]) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h collectionHandlers[E]) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.repo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h collectionHandlers[E]) create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeBody(r, &fields); err != nil {
		h.s.fail(w, r, err)
		return
	}
	item, err := h.repo.Create(r.Context(), fields)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h collectionHandlers[E]) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeBody(r, &patch); err != nil {
		h.s.fail(w, r, err)
		return
	}
	item, err := h.repo.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h collectionHandlers[E]) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (h collectionHandlers[E]) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		h.s.fail(w, r, err)
		return
	}
	items, err := h.repo.Reorder(r.Context(), req.IDs)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

type itemRequest struct {
	Value string `json:"value"`
}

func (h collectionHandlers[E]) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		h.s.fail(w, r, err)
		return
	}
	vars := mux.Vars(r)
	item, err := h.repo.AddItem(r.Context(), vars["id"], vars["field"], req.Value)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// removeItem takes the item from the value query parameter.
func (h collectionHandlers[E]) removeItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	item, err := h.repo.RemoveItem(r.Context(), vars["id"], vars["field"], r.URL.Query().Get("value"))
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	svc, err := s.cfg.Services.ToggleActive(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, svc)
}

func (s *Server) handlePublicProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.cfg.Projects.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// publicService is a service as the website shows it: the icon is always
// safe markup, or the placeholder.
type publicService struct {
	models.Service
	Icon string `json:"icon"`
}

func (s *Server) handlePublicServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.cfg.Services.ListActive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]publicService, 0, len(services))
	for _, svc := range services {
		out = append(out, publicService{Service: svc, Icon: string(markup.Render(svc.Icon))})
	}
	respondJSON(w, http.StatusOK, out)
}
