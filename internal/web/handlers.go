package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// HealthResponse reports liveness and dependency state.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database,omitempty"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth returns 200 when the server and database are reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Uploads: s.limiter.Status()}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, r, status, resp)
}
