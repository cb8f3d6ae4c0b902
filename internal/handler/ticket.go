package handler

import (
	"fmt"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/service"
)

// CreateTicket handles POST /tickets.
// An overlapping validity period does not fail the request; the response
// carries a warning instead.
func (s *Server) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var body TicketRequest
	if err := decodeBody(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	ticket, err := s.requestToTicket(0, body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}

	created, warning, err := s.tickets.Create(r.Context(), ticket)
	if err != nil {
		writeServiceError(w, r, err, "ticket not found")
		return
	}
	writeJSON(w, http.StatusCreated, s.savedTicket(created, warning))
}

// ListTickets handles GET /tickets.
func (s *Server) ListTickets(w http.ResponseWriter, r *http.Request) {
	params, err := pageParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	tickets, total, err := s.tickets.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err, "tickets not found")
		return
	}

	data := make([]Ticket, len(tickets))
	for i, t := range tickets {
		data[i] = s.ticketToResponse(t)
	}
	writeJSON(w, http.StatusOK, TicketList{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: int(total)},
	})
}

// GetTicket handles GET /tickets/{id}.
func (s *Server) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	ticket, err := s.tickets.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, s.ticketToResponse(ticket))
}

// UpdateTicket handles PUT /tickets/{id}.
func (s *Server) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	var body TicketRequest
	if err := decodeBody(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	ticket, err := s.requestToTicket(id, body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}

	updated, warning, err := s.tickets.Update(r.Context(), ticket)
	if err != nil {
		writeServiceError(w, r, err, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, s.savedTicket(updated, warning))
}

// DeleteTicket handles DELETE /tickets/{id}.
func (s *Server) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	if err := s.tickets.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "ticket not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTicketProgress handles GET /tickets/{id}/progress.
func (s *Server) GetTicketProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badID(w, err)
		return
	}
	ticket, p, err := s.tickets.Progress(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, s.progressToResponse(ticket, p))
}

// GetActiveProgress handles GET /tickets/active/progress.
// The active ticket is the highlighted one, else the latest.
func (s *Server) GetActiveProgress(w http.ResponseWriter, r *http.Request) {
	ticket, p, err := s.tickets.ActiveProgress(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "no tickets")
		return
	}
	writeJSON(w, http.StatusOK, s.progressToResponse(ticket, p))
}

// --- mapping helpers --------------------------------------------------------

func (s *Server) requestToTicket(id int64, body TicketRequest) (domain.Ticket, error) {
	price, err := s.codec.Parse(body.Price)
	if err != nil {
		return domain.Ticket{}, err
	}
	if price == nil {
		return domain.Ticket{}, fmt.Errorf("%w: price is required", domain.ErrValidation)
	}
	deduction, err := s.optionalAmount(body.Deduction)
	if err != nil {
		return domain.Ticket{}, err
	}
	return domain.Ticket{
		ID:        id,
		Name:      body.Name,
		Price:     *price,
		Deduction: deduction,
		StartDate: body.StartDate.Time,
		EndDate:   body.EndDate.Time,
	}, nil
}

func (s *Server) ticketToResponse(t domain.Ticket) Ticket {
	resp := Ticket{
		Id:               t.ID,
		Name:             t.Name,
		Price:            t.Price,
		PriceText:        s.codec.FormatPrice(t.Price),
		Deduction:        t.Deduction,
		StartDate:        openapi_types.Date{Time: t.StartDate},
		EndDate:          openapi_types.Date{Time: t.EndDate},
		CreatedTimestamp: t.CreatedTimestamp,
	}
	if t.Deduction != nil {
		text := s.codec.FormatPrice(*t.Deduction)
		resp.DeductionText = &text
	}
	return resp
}

func (s *Server) savedTicket(t domain.Ticket, w *domain.OverlapWarning) SavedTicket {
	resp := SavedTicket{Ticket: s.ticketToResponse(t)}
	if w != nil {
		resp.Warning = &OverlapWarning{
			ConflictingTicketId: w.Conflicting.ID,
			Message:             w.Message(),
		}
	}
	return resp
}

func (s *Server) progressToResponse(t domain.Ticket, p service.Progress) TicketProgress {
	return TicketProgress{
		Ticket:      s.ticketToResponse(t),
		Fraction:    p.Fraction,
		Percent:     p.Percent,
		ProgressSum: p.ProgressSum,
		Goal:        p.Goal,
		Remaining:   p.Remaining,
		Label:       p.Label,
	}
}
