package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/logging"
	"github.com/JonMunkholm/sheetimport/internal/sheet"
	"github.com/JonMunkholm/sheetimport/internal/web/templates"
)

// multipartOverhead allows for form boundaries and headers around the file.
const multipartOverhead = 64 << 10

// PreviewResponse is returned by the preview endpoints.
type PreviewResponse struct {
	SessionID string              `json:"sessionId"`
	Version   string              `json:"version"`
	Period    string              `json:"period,omitempty"`
	Sheets    []core.SheetOutcome `json:"sheets"`
}

func previewResponse(sess core.ValidationSession, period string) PreviewResponse {
	sheets := sess.Sheets
	if sheets == nil {
		sheets = []core.SheetOutcome{}
	}
	return PreviewResponse{SessionID: sess.ID, Version: sess.Version, Period: period, Sheets: sheets}
}

// handlePreview decodes an uploaded workbook, validates every sheet against
// the current month and replaces the caller's session with the result.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	if r.ContentLength > maxSize+multipartOverhead {
		s.fail(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		s.fail(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize))
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	defer s.limiter.Release()

	wb, err := sheet.Decode(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	period := s.service.CurrentPeriod()
	sess, err := s.service.PreviewWorkbook(r.Context(), sessionID(r), wb, period)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("preview created",
		"file", header.Filename,
		"bytes", header.Size,
		"sheets", len(sess.Sheets),
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		for _, o := range sess.Sheets {
			templates.SheetSummary(o).Render(r.Context(), w)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, previewResponse(sess, period.String()))
}
