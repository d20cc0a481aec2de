package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// handleGetPreview returns the caller's current session.
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.ListSession(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, previewResponse(sess, ""))
}

// handleListRecords pages through persisted records, newest first.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	limit := parseIntParam(r, "limit", core.DefaultPageLimit)

	result, err := s.service.ListRecords(r.Context(), page, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleDeleteRecord removes one persisted record.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: record id: %v", errBadRequest, err))
		return
	}
	if err := s.service.DeleteRecord(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
