package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/fare-ledger/internal/middleware"
)

const frontend = "http://localhost:5173"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func corsRequest(method, target, origin string) *httptest.ResponseRecorder {
	h := middleware.NewCORSHandler([]string{frontend})(okHandler)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		// Browsers send these lowercase; rs/cors compares them verbatim.
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSHandler_AllowedOrigin(t *testing.T) {
	rec := corsRequest(http.MethodGet, "/trips", frontend)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, frontend, rec.Header().Get("Access-Control-Allow-Origin"))
}

// A disallowed origin still gets the response; the browser blocks it
// because the allow header is missing.
func TestCORSHandler_DisallowedOrigin(t *testing.T) {
	rec := corsRequest(http.MethodGet, "/trips", "http://evil.example.com")

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSHandler_PreflightForTicketUpdate(t *testing.T) {
	rec := corsRequest(http.MethodOptions, "/tickets/3", frontend)

	assert.True(t, rec.Code == http.StatusNoContent || rec.Code == http.StatusOK,
		"expected 2xx for preflight, got %d", rec.Code)
	assert.Equal(t, frontend, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPut, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSHandler_ExposesDownloadAndRequestIDHeaders(t *testing.T) {
	rec := corsRequest(http.MethodGet, "/export", frontend)

	assert.Equal(t, "Content-Disposition, X-Request-Id", rec.Header().Get("Access-Control-Expose-Headers"))
}
