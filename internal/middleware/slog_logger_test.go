package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fare-ledger/internal/middleware"
)

// loggedRouter mounts the logger on a chi router with a few fixed routes and
// returns it together with the buffer the log lines land in.
func loggedRouter(level slog.Level) (http.Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))

	r := chi.NewRouter()
	r.Use(middleware.NewSlogLogger(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/trips/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/import", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	return r, &buf
}

func withRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, id))
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %q", buf.String())
	return entry
}

func TestSlogLogger_logsRequestFields(t *testing.T) {
	h, buf := loggedRouter(slog.LevelInfo)

	req := withRequestID(httptest.NewRequest(http.MethodGet, "/trips/7", nil), "test-req-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entry := decodeLogLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/trips/7", entry["path"])
	assert.Equal(t, "/trips/{id}", entry["route"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.Equal(t, "test-req-id", entry["request_id"])
	assert.NotNil(t, entry["duration_ms"])
}

func TestSlogLogger_echoesRequestID(t *testing.T) {
	h, _ := loggedRouter(slog.LevelInfo)

	req := withRequestID(httptest.NewRequest(http.MethodGet, "/trips/7", nil), "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestSlogLogger_serverErrorsLogAtWarn(t *testing.T) {
	h, buf := loggedRouter(slog.LevelInfo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import", nil))

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, 4, entry["bytes"])
	assert.EqualValues(t, http.StatusInternalServerError, entry["status"])
}

func TestSlogLogger_healthChecksLogAtDebug(t *testing.T) {
	h, buf := loggedRouter(slog.LevelInfo)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String(), "health checks stay below the info level")

	h, buf = loggedRouter(slog.LevelDebug)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "DEBUG", decodeLogLine(t, buf)["level"])
}
