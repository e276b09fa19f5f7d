// Package clock pins every date/time business rule to one fixed reporting
// timezone, independent of the server's local clock. Budget months, business
// hours and sweep gating are all evaluated against this zone.
package clock

import (
	"fmt"
	"time"
)

// DefaultTimezone is the reporting timezone used when none is configured.
const DefaultTimezone = "America/Sao_Paulo"

const (
	businessHourStart = 8
	businessHourEnd   = 18
)

// Clock resolves "now", month keys and month boundaries in the reporting
// timezone. The time source is injectable for tests.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New loads the named timezone and returns a Clock backed by time.Now.
func New(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load reporting timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewWithNow returns a Clock with a fixed time source, for tests.
func NewWithNow(timezone string, now func() time.Time) (*Clock, error) {
	c, err := New(timezone)
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Location returns the reporting timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the reporting timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current civil date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format("2006-01-02")
}

// MonthKey formats t's calendar month as YYYY-MM in the reporting timezone.
func (c *Clock) MonthKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01")
}

// CurrentMonthKey returns the month key for the current instant.
func (c *Clock) CurrentMonthKey() string {
	return c.MonthKey(c.Now())
}

// MonthRange returns the inclusive civil-date bounds of a month key, both
// formatted YYYY-MM-DD. Year rollover falls out of time.Date normalization:
// the day before "2025-01-01" is December 31 of the previous year and the
// zeroth day of month+1 is the last day of the month.
func (c *Clock) MonthRange(monthKey string) (start, end string, err error) {
	t, err := time.ParseInLocation("2006-01", monthKey, c.loc)
	if err != nil {
		return "", "", fmt.Errorf("parse month key %q: %w", monthKey, err)
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, c.loc)
	return first.Format("2006-01-02"), last.Format("2006-01-02"), nil
}

// MonthBounds returns the first and last instants of a month key: midnight on
// the first day and 23:59:59.999999999 on the last, in the reporting timezone.
func (c *Clock) MonthBounds(monthKey string) (start, end time.Time, err error) {
	t, err := time.ParseInLocation("2006-01", monthKey, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse month key %q: %w", monthKey, err)
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
	end = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, c.loc).Add(-time.Nanosecond)
	return start, end, nil
}

// IsBusinessHour reports whether t falls within [08:00, 18:00) local time.
func (c *Clock) IsBusinessHour(t time.Time) bool {
	h := t.In(c.loc).Hour()
	return h >= businessHourStart && h < businessHourEnd
}

// IsLastDayOfMonth reports whether t is the last civil day of its month:
// one day later the day-of-month resets to 1.
func (c *Clock) IsLastDayOfMonth(t time.Time) bool {
	local := t.In(c.loc)
	return local.AddDate(0, 0, 1).Day() == 1
}

// MonthName returns the Portuguese month name with year for display in
// monthly report notifications, e.g. "maio de 2024".
func MonthName(monthKey string) string {
	t, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return monthKey
	}
	names := [...]string{
		"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
	}
	return fmt.Sprintf("%s de %d", names[t.Month()-1], t.Year())
}
