package handler

import (
	"log/slog"
	"net/http"
)

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	if len(s.openAPI) == 0 {
		writeJSON(w, http.StatusNotFound, notFoundBody("api description not available"))
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(s.openAPI); err != nil {
		slog.Error("write openapi", "error", err)
	}
}
