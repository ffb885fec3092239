package admin

import (
	"net/http"
	"strconv"

	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/models"
)

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	info, err := s.cfg.Company.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePutCompany(w http.ResponseWriter, r *http.Request) {
	var info models.CompanyInfo
	if err := decodeBody(r, &info); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.cfg.Company.Put(r.Context(), info)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	info, err := s.cfg.Contact.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePutContact(w http.ResponseWriter, r *http.Request) {
	var info models.ContactInfo
	if err := decodeBody(r, &info); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.cfg.Contact.Put(r.Context(), info)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// handleRepair runs a repair. ?dryRun=true reports without writing. A
// partial failure answers 207 with the full result.
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))
	res, err := s.cfg.Services.Repair(r.Context(), content.RepairOptions{DryRun: dryRun})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Partial() {
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, res)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.cfg.Services.AuditActive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type readOnlyState struct {
	ReadOnly bool `json:"readOnly"`
}

func (s *Server) handleGetReadOnly(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, readOnlyState{ReadOnly: s.cfg.ReadOnly != nil && s.cfg.ReadOnly.Load()})
}

func (s *Server) handleSetReadOnly(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ReadOnly == nil {
		respondError(w, http.StatusNotImplemented, "read-only mode is not available")
		return
	}
	var req readOnlyState
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.cfg.ReadOnly.Store(req.ReadOnly)
	s.log.Warn().Bool("read_only", req.ReadOnly).Msg("read-only mode changed")
	respondJSON(w, http.StatusOK, req)
}
