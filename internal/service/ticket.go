package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
)

// SettingsStore is the part of the settings store the services need.
type SettingsStore interface {
	Current() domain.Settings
	Update(ctx context.Context, fn func(domain.Settings) domain.Settings) (domain.Settings, error)
}

// TicketService implements business logic for Ticket operations.
type TicketService struct {
	tickets  repo.TicketRepo
	trips    repo.TripRepo
	tx       repo.Transactor
	settings SettingsStore
	checker  ValidityChecker
	calc     *ProgressCalculator
	gen      *Generation
	now      func() time.Time
}

// NewTicketService wires a TicketService. tickets and trips serve reads;
// writes go through tx so the overlap check sees the same ticket set as the
// write.
func NewTicketService(
	tickets repo.TicketRepo,
	trips repo.TripRepo,
	tx repo.Transactor,
	settings SettingsStore,
	calc *ProgressCalculator,
	gen *Generation,
) *TicketService {
	return &TicketService{
		tickets:  tickets,
		trips:    trips,
		tx:       tx,
		settings: settings,
		calc:     calc,
		gen:      gen,
		now:      time.Now,
	}
}

// Create validates and stores a ticket. When its validity period overlaps an
// existing ticket the ticket is still stored and a warning is returned.
func (s *TicketService) Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, *domain.OverlapWarning, error) {
	ticket = normalizeTicket(ticket)
	if err := ticket.Validate(); err != nil {
		return domain.Ticket{}, nil, err
	}
	ticket.CreatedTimestamp = s.now().UnixMilli()

	var (
		created domain.Ticket
		warning *domain.OverlapWarning
	)
	err := s.tx.WithinTx(ctx, func(st repo.Stores) error {
		if err := st.Tickets.LockWrites(ctx); err != nil {
			return err
		}
		w, err := s.checker.Check(ctx, st.Tickets, ticket.StartDate, ticket.EndDate, nil)
		if err != nil {
			return err
		}
		created, err = st.Tickets.Create(ctx, ticket)
		if err != nil {
			return err
		}
		warning = w
		return nil
	})
	if err != nil {
		return domain.Ticket{}, nil, fmt.Errorf("service.TicketService.Create: %w", err)
	}
	s.gen.Bump()
	return created, warning, nil
}

// GetByID returns a single ticket by ID.
func (s *TicketService) GetByID(ctx context.Context, id int64) (domain.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("service.TicketService.GetByID: %w", err)
	}
	return t, nil
}

// List returns one page of tickets, latest period first, plus the total count.
func (s *TicketService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Ticket, int64, error) {
	total, err := s.tickets.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TicketService.List: %w", err)
	}
	tickets, err := s.tickets.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TicketService.List: %w", err)
	}
	return tickets, total, nil
}

// Update validates and stores changes to a ticket. The ticket itself is
// excluded from the overlap check.
func (s *TicketService) Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, *domain.OverlapWarning, error) {
	ticket = normalizeTicket(ticket)
	if err := ticket.Validate(); err != nil {
		return domain.Ticket{}, nil, err
	}

	var (
		updated domain.Ticket
		warning *domain.OverlapWarning
	)
	err := s.tx.WithinTx(ctx, func(st repo.Stores) error {
		if err := st.Tickets.LockWrites(ctx); err != nil {
			return err
		}
		w, err := s.checker.Check(ctx, st.Tickets, ticket.StartDate, ticket.EndDate, &ticket.ID)
		if err != nil {
			return err
		}
		updated, err = st.Tickets.Update(ctx, ticket)
		if err != nil {
			return err
		}
		warning = w
		return nil
	})
	if err != nil {
		return domain.Ticket{}, nil, fmt.Errorf("service.TicketService.Update: %w", err)
	}
	s.gen.Bump()
	return updated, warning, nil
}

// Delete removes a ticket by ID and clears it from the highlighted-ticket
// setting when it was highlighted.
func (s *TicketService) Delete(ctx context.Context, id int64) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TicketService.Delete: %w", err)
	}
	s.gen.Bump()

	if h := s.settings.Current().HighlightedTicketID; h != nil && *h == id {
		_, err := s.settings.Update(ctx, func(v domain.Settings) domain.Settings {
			v.HighlightedTicketID = nil
			return v
		})
		if err != nil {
			return fmt.Errorf("service.TicketService.Delete: clear highlight: %w", err)
		}
	}
	return nil
}

// Progress computes how much of ticket id has been ridden off by the trips
// dated inside its validity period.
func (s *TicketService) Progress(ctx context.Context, id int64) (domain.Ticket, Progress, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, Progress{}, fmt.Errorf("service.TicketService.Progress: %w", err)
	}
	p, err := s.progressOf(ctx, t)
	if err != nil {
		return domain.Ticket{}, Progress{}, fmt.Errorf("service.TicketService.Progress: %w", err)
	}
	return t, p, nil
}

// ActiveProgress computes progress for the highlighted ticket, or for the
// latest ticket when none is highlighted or the highlighted one is gone.
// Returns domain.ErrNotFound when there are no tickets.
func (s *TicketService) ActiveProgress(ctx context.Context) (domain.Ticket, Progress, error) {
	t, err := s.activeTicket(ctx)
	if err != nil {
		return domain.Ticket{}, Progress{}, fmt.Errorf("service.TicketService.ActiveProgress: %w", err)
	}
	p, err := s.progressOf(ctx, t)
	if err != nil {
		return domain.Ticket{}, Progress{}, fmt.Errorf("service.TicketService.ActiveProgress: %w", err)
	}
	return t, p, nil
}

func (s *TicketService) activeTicket(ctx context.Context) (domain.Ticket, error) {
	if h := s.settings.Current().HighlightedTicketID; h != nil {
		t, err := s.tickets.GetByID(ctx, *h)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Ticket{}, err
		}
	}
	return s.tickets.Latest(ctx)
}

func (s *TicketService) progressOf(ctx context.Context, t domain.Ticket) (Progress, error) {
	fareSum, err := s.trips.SumFaresBetween(ctx, t.StartDate, t.EndDate)
	if err != nil {
		return Progress{}, err
	}
	include := s.settings.Current().IncludeDeductionInProgress
	return s.calc.Compute(fareSum, t.Price, t.Deduction, include), nil
}

func normalizeTicket(t domain.Ticket) domain.Ticket {
	t.Name = strings.TrimSpace(t.Name)
	if !t.StartDate.IsZero() {
		t.StartDate = domain.CalendarDate(t.StartDate)
	}
	if !t.EndDate.IsZero() {
		t.EndDate = domain.CalendarDate(t.EndDate)
	}
	return t
}
