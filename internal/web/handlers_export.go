package web

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/sheet"
)

// handleExportValidated downloads the valid rows of a previewed sheet.
func (s *Server) handleExportValidated(w http.ResponseWriter, r *http.Request) {
	s.exportSheet(w, r, "validated_data", func(out io.Writer, o core.SheetOutcome) error {
		return sheet.WriteValidated(out, o.ValidRows)
	})
}

// handleExportErrors downloads the rejected rows of a previewed sheet.
func (s *Server) handleExportErrors(w http.ResponseWriter, r *http.Request) {
	s.exportSheet(w, r, "import_errors", sheet.WriteErrorReport)
}

func (s *Server) exportSheet(w http.ResponseWriter, r *http.Request, prefix string, write func(io.Writer, core.SheetOutcome) error) {
	outcome, err := s.service.Sheet(r.Context(), sessionID(r), chi.URLParam(r, "sheet"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Buffer so a write failure can still produce an error response.
	var buf bytes.Buffer
	if err := write(&buf, outcome); err != nil {
		s.fail(w, r, err)
		return
	}

	attachment(w, prefix)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
