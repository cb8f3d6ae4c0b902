// Package handler implements the HTTP handlers for the fare ledger API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, ticket.go, etc.) but share the same Server struct
// so they can access its dependencies. Routes wires them onto a chi router.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/fare-ledger/internal/amount"
	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id int64) (domain.Trip, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Delete(ctx context.Context, id int64) error
}

// FeedServicer serves the section-annotated trip feed.
type FeedServicer interface {
	Page(ctx context.Context, query *string, p domain.PaginationParams) (service.FeedPage, error)
	Open(query *string, limit int) *service.Cursor
}

// TicketServicer defines the ticket operations.
type TicketServicer interface {
	Create(ctx context.Context, t domain.Ticket) (domain.Ticket, *domain.OverlapWarning, error)
	GetByID(ctx context.Context, id int64) (domain.Ticket, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Ticket, int64, error)
	Update(ctx context.Context, t domain.Ticket) (domain.Ticket, *domain.OverlapWarning, error)
	Delete(ctx context.Context, id int64) error
	Progress(ctx context.Context, id int64) (domain.Ticket, service.Progress, error)
	ActiveProgress(ctx context.Context) (domain.Ticket, service.Progress, error)
}

// SettingsServicer reads and writes user settings.
type SettingsServicer interface {
	Current() domain.Settings
	Update(ctx context.Context, fn func(domain.Settings) domain.Settings) (domain.Settings, error)
}

// TransferServicer exports and imports the dataset.
type TransferServicer interface {
	ExportCSV(ctx context.Context, w io.Writer) error
	ExportJSON(ctx context.Context, w io.Writer) error
	ImportJSON(ctx context.Context, r io.Reader) (service.ImportResult, error)
}

// Deps lists everything the Server needs. Nil servicers leave their routes
// answering 501.
type Deps struct {
	Trips    TripServicer
	Feed     FeedServicer
	Tickets  TicketServicer
	Settings SettingsServicer
	Transfer TransferServicer
	Codec    *amount.Codec
	OpenAPI  []byte
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	trips    TripServicer
	feed     FeedServicer
	tickets  TicketServicer
	settings SettingsServicer
	transfer TransferServicer
	codec    *amount.Codec
	openAPI  []byte
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	codec := d.Codec
	if codec == nil {
		codec = amount.NewCodec("")
	}
	return &Server{
		trips:    d.Trips,
		feed:     d.Feed,
		tickets:  d.Tickets,
		settings: d.Settings,
		transfer: d.Transfer,
		codec:    codec,
		openAPI:  d.OpenAPI,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(Deps{})
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Use(s.require(s.trips != nil))
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.With(s.require(s.feed != nil)).Get("/feed", s.GetFeed)
		r.With(s.require(s.feed != nil)).Get("/feed/stream", s.StreamFeed)
		r.Get("/{id}", s.GetTrip)
		r.Put("/{id}", s.UpdateTrip)
		r.Delete("/{id}", s.DeleteTrip)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Use(s.require(s.tickets != nil))
		r.Get("/", s.ListTickets)
		r.Post("/", s.CreateTicket)
		r.Get("/active/progress", s.GetActiveProgress)
		r.Get("/{id}", s.GetTicket)
		r.Put("/{id}", s.UpdateTicket)
		r.Delete("/{id}", s.DeleteTicket)
		r.Get("/{id}/progress", s.GetTicketProgress)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Use(s.require(s.settings != nil))
		r.Get("/", s.GetSettings)
		r.Put("/", s.UpdateSettings)
	})

	r.With(s.require(s.transfer != nil)).Get("/export", s.GetExport)
	r.With(s.require(s.transfer != nil)).Post("/import", s.PostImport)
}

// Handler returns a chi router serving every endpoint.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

// require answers 501 when a route's servicer was not wired.
func (s *Server) require(wired bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if wired {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: ErrorDetail{
				Code: "not_implemented", Message: "endpoint not available",
			}})
		})
	}
}
