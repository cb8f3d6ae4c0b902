package repo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// Settings keys as stored in the settings table.
const (
	keyEnabledFields    = "enabled_optional_trip_fields"
	keyIncludeDeduction = "include_deduction_in_progress"
	keyHighlightedID    = "highlighted_ticket_id"
)

// SettingsRepo persists the user's settings as key/value rows.
type SettingsRepo interface {
	// Load returns the stored settings. Keys that were never written fall back
	// to domain.DefaultSettings.
	Load(ctx context.Context) (domain.Settings, error)

	// Save writes every settings key.
	Save(ctx context.Context, s domain.Settings) error
}

type pgSettingsRepo struct {
	db db
}

// NewSettingsRepo constructs a SettingsRepo backed by the provided db connection.
func NewSettingsRepo(db db) SettingsRepo {
	return &pgSettingsRepo{db: db}
}

func (r *pgSettingsRepo) Load(ctx context.Context) (domain.Settings, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("repo.SettingsRepo.Load: %w", err)
	}
	defer rows.Close()

	s := domain.DefaultSettings()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Settings{}, fmt.Errorf("repo.SettingsRepo.Load: scan: %w", err)
		}
		if err := applySetting(&s, key, value); err != nil {
			return domain.Settings{}, fmt.Errorf("repo.SettingsRepo.Load: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Settings{}, fmt.Errorf("repo.SettingsRepo.Load: rows: %w", err)
	}
	return s, nil
}

func (r *pgSettingsRepo) Save(ctx context.Context, s domain.Settings) error {
	const q = `
		INSERT INTO settings (key, value)
		VALUES (@fields_key, @fields),
		       (@deduction_key, @deduction),
		       (@highlighted_key, @highlighted)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	values := encodeSettings(s)
	args := pgx.NamedArgs{
		"fields_key":      keyEnabledFields,
		"fields":          values[keyEnabledFields],
		"deduction_key":   keyIncludeDeduction,
		"deduction":       values[keyIncludeDeduction],
		"highlighted_key": keyHighlightedID,
		"highlighted":     values[keyHighlightedID],
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.SettingsRepo.Save: %w", mapError(err))
	}
	return nil
}

func encodeSettings(s domain.Settings) map[string]string {
	fields := make([]string, 0, len(s.EnabledOptionalTripFields))
	for _, f := range domain.NormalizeOptionalTripFields(s.EnabledOptionalTripFields) {
		fields = append(fields, string(f))
	}
	highlighted := ""
	if s.HighlightedTicketID != nil {
		highlighted = strconv.FormatInt(*s.HighlightedTicketID, 10)
	}
	return map[string]string{
		keyEnabledFields:    strings.Join(fields, ","),
		keyIncludeDeduction: strconv.FormatBool(s.IncludeDeductionInProgress),
		keyHighlightedID:    highlighted,
	}
}

func applySetting(s *domain.Settings, key, value string) error {
	switch key {
	case keyEnabledFields:
		fields := []domain.OptionalTripField{}
		if value != "" {
			for _, name := range strings.Split(value, ",") {
				f, err := domain.ParseOptionalTripField(name)
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}
		}
		s.EnabledOptionalTripFields = domain.NormalizeOptionalTripFields(fields)
	case keyIncludeDeduction:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		s.IncludeDeductionInProgress = b
	case keyHighlightedID:
		if value == "" {
			s.HighlightedTicketID = nil
			return nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		s.HighlightedTicketID = &id
	}
	return nil
}
