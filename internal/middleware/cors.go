// Package middleware provides the HTTP middleware chain of the fare ledger API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight answer.
const corsMaxAge = 600

// NewCORSHandler lets the listed web front ends call the API. Entries are
// full origins without a trailing slash; "*" allows any origin.
// Export downloads need Content-Disposition readable cross-origin, and the
// request ID is echoed so a browser error can be matched to a log line.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}
