// Package handler: export.go implements GET /export and POST /import.
package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// GetExport handles GET /export.
// ?format=csv returns every trip as CSV; the default (json) returns the whole
// dataset as a versioned backup envelope. The body is built in memory first
// so a failure can still be reported with a proper status.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = s.transfer.ExportCSV(r.Context(), &buf)
	case "json":
		contentType = "application/json"
		err = s.transfer.ExportJSON(r.Context(), &buf)
	default:
		writeJSON(w, http.StatusBadRequest, requestBody(fmt.Sprintf("unsupported format %q", format)))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, transferFailedBody("export failed"))
		return
	}

	filename := fmt.Sprintf("fare-ledger-%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// PostImport handles POST /import.
// The body is a backup envelope; it replaces every trip and ticket, or
// nothing at all when it fails.
func (s *Server) PostImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.transfer.ImportJSON(r.Context(), r.Body)
	if bodyTooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, payloadTooLargeBody())
		return
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, transferFailedBody("import failed"))
		return
	}
	writeJSON(w, http.StatusOK, ImportResult{Trips: res.Trips, Tickets: res.Tickets})
}
