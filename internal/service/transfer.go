package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/repo"
	"github.com/pkordes/fare-ledger/internal/transfer"
)

// ImportResult counts what an import stored.
type ImportResult struct {
	Trips   int64
	Tickets int64
}

// TransferService exports the dataset and replaces it from a backup.
// Failures are logged with their cause (domain.ErrIO, domain.ErrParse or
// domain.ErrConstraint); callers only need to know that it failed.
type TransferService struct {
	trips    repo.TripRepo
	tickets  repo.TicketRepo
	tx       repo.Transactor
	settings SettingsStore
	gen      *Generation
	loc      *time.Location
	log      *slog.Logger
	checker  ValidityChecker
}

// NewTransferService wires a TransferService. loc is the zone CSV creation
// timestamps are rendered in.
func NewTransferService(
	trips repo.TripRepo,
	tickets repo.TicketRepo,
	tx repo.Transactor,
	settings SettingsStore,
	gen *Generation,
	loc *time.Location,
	log *slog.Logger,
) *TransferService {
	return &TransferService{
		trips:    trips,
		tickets:  tickets,
		tx:       tx,
		settings: settings,
		gen:      gen,
		loc:      loc,
		log:      log,
	}
}

// ExportCSV writes every trip, in store order, as CSV to w.
func (s *TransferService) ExportCSV(ctx context.Context, w io.Writer) error {
	log := s.log.With("op", "export_csv", "op_id", uuid.NewString())

	trips, err := s.trips.List(ctx)
	if err != nil {
		return s.fail(log, fmt.Errorf("service.TransferService.ExportCSV: %w: %w", domain.ErrIO, err))
	}
	if err := transfer.WriteCSV(w, trips, s.loc); err != nil {
		return s.fail(log, fmt.Errorf("service.TransferService.ExportCSV: %w", err))
	}
	log.Info("export finished", "trips", len(trips))
	return nil
}

// ExportJSON writes the full dataset as a current-version envelope to w.
func (s *TransferService) ExportJSON(ctx context.Context, w io.Writer) error {
	log := s.log.With("op", "export_json", "op_id", uuid.NewString())

	ds, err := s.snapshot(ctx)
	if err != nil {
		return s.fail(log, fmt.Errorf("service.TransferService.ExportJSON: %w: %w", domain.ErrIO, err))
	}
	if err := transfer.Encode(w, ds); err != nil {
		return s.fail(log, fmt.Errorf("service.TransferService.ExportJSON: %w", err))
	}
	log.Info("export finished", "trips", len(ds.Trips), "tickets", len(ds.Tickets))
	return nil
}

// snapshot loads trips and tickets concurrently.
func (s *TransferService) snapshot(ctx context.Context) (domain.Dataset, error) {
	ds := domain.Dataset{Settings: s.settings.Current()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds.Trips, err = s.trips.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Tickets, err = s.tickets.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}
	return ds, nil
}

// ImportJSON replaces every trip and ticket with the contents of the
// envelope read from r. The envelope is decoded completely before the store
// is touched, and the replace runs in one transaction: on any failure the
// previous dataset is left as it was. Settings are not restored.
func (s *TransferService) ImportJSON(ctx context.Context, r io.Reader) (ImportResult, error) {
	log := s.log.With("op", "import_json", "op_id", uuid.NewString())

	ds, err := transfer.Decode(r)
	if err != nil {
		return ImportResult{}, s.fail(log, fmt.Errorf("service.TransferService.ImportJSON: %w", err))
	}

	var res ImportResult
	err = s.tx.WithinTx(ctx, func(st repo.Stores) error {
		if err := st.Tickets.LockWrites(ctx); err != nil {
			return fmt.Errorf("lock ticket writes: %w", err)
		}
		if _, err := st.Tickets.DeleteAll(ctx); err != nil {
			return fmt.Errorf("delete tickets: %w", err)
		}
		if _, err := st.Trips.DeleteAll(ctx); err != nil {
			return fmt.Errorf("delete trips: %w", err)
		}
		var err error
		if res.Tickets, err = st.Tickets.InsertAll(ctx, ds.Tickets); err != nil {
			return fmt.Errorf("insert tickets: %w", err)
		}
		if res.Trips, err = st.Trips.InsertAll(ctx, ds.Trips); err != nil {
			return fmt.Errorf("insert trips: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrConstraint) {
			err = fmt.Errorf("%w: %w", domain.ErrIO, err)
		}
		return ImportResult{}, s.fail(log, fmt.Errorf("service.TransferService.ImportJSON: %w", err))
	}
	s.gen.Bump()

	for _, p := range s.checker.FindOverlappingPairs(ds.Tickets) {
		log.Warn("imported tickets overlap", "first", p.First.Name, "second", p.Second.Name)
	}
	log.Info("import finished", "trips", res.Trips, "tickets", res.Tickets)
	return res, nil
}

func (s *TransferService) fail(log *slog.Logger, err error) error {
	log.Error("transfer failed", "cause", failureCause(err), "err", err)
	return err
}

// failureCause names the failure class for logs.
func failureCause(err error) string {
	switch {
	case errors.Is(err, domain.ErrParse):
		return "parse"
	case errors.Is(err, domain.ErrConstraint):
		return "constraint"
	default:
		return "io"
	}
}
