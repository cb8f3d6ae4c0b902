// Package transfer implements the interchange formats of the fare ledger:
// the trip-only CSV export and the versioned JSON envelope that carries the
// whole dataset. It knows nothing about storage.
package transfer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/fare-ledger/internal/domain"
)

// CSVHeaders are the column names written as the first CSV line.
var CSVHeaders = []string{
	"createdDateTime", "date", "startCity", "endCity", "fare", "additionalCosts",
	"durationMinutes", "delayMinutes", "distanceKm", "types", "notes",
}

// csvLineEnd terminates every CSV line, header included.
const csvLineEnd = "\r\n"

// WriteCSV writes trips as CSV, one line per trip in the given order.
// Every field is quoted, including empty ones, and embedded quotes are
// doubled. Created timestamps are rendered in loc.
//
// encoding/csv only quotes fields that need it, so lines are assembled here.
func WriteCSV(w io.Writer, trips []domain.Trip, loc *time.Location) error {
	bw := bufio.NewWriter(w)
	if err := writeCSVLine(bw, CSVHeaders); err != nil {
		return err
	}
	for _, t := range trips {
		if err := writeCSVLine(bw, csvRecord(t, loc)); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("transfer.WriteCSV: %w: %w", domain.ErrIO, err)
	}
	return nil
}

func writeCSVLine(w *bufio.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteCSV(f)
	}
	if _, err := w.WriteString(strings.Join(quoted, ",") + csvLineEnd); err != nil {
		return fmt.Errorf("transfer.WriteCSV: %w: %w", domain.ErrIO, err)
	}
	return nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvRecord flattens one trip into CSV fields in CSVHeaders order.
func csvRecord(t domain.Trip, loc *time.Location) []string {
	notes := ""
	if t.Notes != nil {
		notes = *t.Notes
	}
	distance := ""
	if t.Distance != nil {
		distance = strconv.FormatFloat(*t.Distance, 'f', -1, 64)
	}
	return []string{
		time.UnixMilli(t.CreatedTimestamp).In(loc).Format(time.RFC3339Nano),
		t.Date.Format(domain.DateLayout),
		t.StartCity,
		t.EndCity,
		decimal(t.Fare),
		optionalDecimal(t.AdditionalCosts),
		optionalMinutes(t.Duration),
		optionalMinutes(t.Delay),
		distance,
		strings.Join(t.Types.Strings(), ","),
		notes,
	}
}

// decimal renders minor units as a plain dot decimal in major units,
// e.g. 1250 -> "12.50", 1200 -> "12.00".
func decimal(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func optionalDecimal(minor *int64) string {
	if minor == nil {
		return ""
	}
	return decimal(*minor)
}

func optionalMinutes(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return strconv.FormatInt(int64(d.Minutes()), 10)
}
