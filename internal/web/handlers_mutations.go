package web

import (
	"net/http"

	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/web/templates"
)

// DeleteRowRequest names one row of a previewed sheet.
type DeleteRowRequest struct {
	SheetName string `json:"sheetName"`
	RowNumber int    `json:"rowNumber"`
}

// ImportRequest names the sheet to commit.
type ImportRequest struct {
	SheetName string `json:"sheetName"`
}

// handleDeleteRow removes one row from the preview and returns the sheet.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	var req DeleteRowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.SheetName == "" {
		s.fail(w, r, errBadRequest)
		return
	}

	outcome, err := s.service.DeleteRow(r.Context(), sessionID(r), req.SheetName, req.RowNumber)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, outcome)
}

// handleImport commits the valid rows of one sheet.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.SheetName == "" {
		s.fail(w, r, errBadRequest)
		return
	}

	ctx := core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent())
	res, err := s.service.ImportSheet(ctx, sessionID(r), req.SheetName)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		templates.ImportSummary(res).Render(r.Context(), w)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

// handleDiscardPreview drops the caller's session.
func (s *Server) handleDiscardPreview(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardSession(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
