// Package settings keeps the user's settings in memory, persists every change
// through repo.SettingsRepo and notifies subscribers of new values.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/pkordes/fare-ledger/internal/domain"
	"github.com/pkordes/fare-ledger/internal/notify"
	"github.com/pkordes/fare-ledger/internal/repo"
)

// Store is the settings read/write contract used by the rest of the service.
// Writes are last-write-wins.
type Store struct {
	repo repo.SettingsRepo
	log  *slog.Logger

	writeMu sync.Mutex
	values  *notify.Broadcaster[domain.Settings]
}

// Open loads the persisted settings and returns a Store serving them.
func Open(ctx context.Context, r repo.SettingsRepo, log *slog.Logger) (*Store, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings.Open: %w", err)
	}
	return &Store{repo: r, log: log, values: notify.New(clone(s))}, nil
}

// Current returns the latest settings snapshot.
func (s *Store) Current() domain.Settings {
	return clone(s.values.Current())
}

// Subscribe returns the current snapshot, a channel of later snapshots and a
// cancel func. Only the most recent undelivered snapshot is kept per
// subscriber. Snapshots received from the channel are shared between
// subscribers and must be treated as read-only.
func (s *Store) Subscribe() (domain.Settings, <-chan domain.Settings, func()) {
	cur, ch, cancel := s.values.Subscribe()
	return clone(cur), ch, cancel
}

// Update applies fn to a copy of the current settings, persists the result
// and publishes it. Nothing is published when persisting fails.
func (s *Store) Update(ctx context.Context, fn func(domain.Settings) domain.Settings) (domain.Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := fn(s.Current())
	next.EnabledOptionalTripFields = domain.NormalizeOptionalTripFields(next.EnabledOptionalTripFields)

	if err := s.repo.Save(ctx, next); err != nil {
		return domain.Settings{}, fmt.Errorf("settings.Store.Update: %w", err)
	}
	s.values.Publish(clone(next))
	s.log.Debug("settings updated",
		"enabled_fields", len(next.EnabledOptionalTripFields),
		"include_deduction", next.IncludeDeductionInProgress,
	)
	return next, nil
}

func clone(s domain.Settings) domain.Settings {
	s.EnabledOptionalTripFields = slices.Clone(s.EnabledOptionalTripFields)
	if s.HighlightedTicketID != nil {
		id := *s.HighlightedTicketID
		s.HighlightedTicketID = &id
	}
	return s
}
