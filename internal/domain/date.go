package domain

import "time"

// DateLayout is the ISO calendar date format used on every wire format.
const DateLayout = "2006-01-02"

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// FirstDay returns the first day of the month at midnight UTC.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last day of the month at midnight UTC.
func (m Month) LastDay() time.Time {
	return m.FirstDay().AddDate(0, 1, -1)
}

// Label renders the month as e.g. "March 2021".
func (m Month) Label() string {
	return m.FirstDay().Format("January 2006")
}

// CalendarDate strips the time of day and zone from t, keeping the wall date.
func CalendarDate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
