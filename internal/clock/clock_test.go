package clock

import (
	"testing"
	"time"
)

func fixed(t *testing.T, instant time.Time) *Clock {
	t.Helper()
	c, err := NewWithNow(DefaultTimezone, func() time.Time { return instant })
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	return c
}

func TestMonthKey(t *testing.T) {
	c := fixed(t, time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC))
	if got := c.CurrentMonthKey(); got != "2024-05" {
		t.Errorf("CurrentMonthKey() = %q, want 2024-05", got)
	}
}

func TestMonthKeyCrossesMidnightUTC(t *testing.T) {
	// 01:30 UTC on June 1 is still May 31 in São Paulo (UTC-3).
	c := fixed(t, time.Date(2024, 6, 1, 1, 30, 0, 0, time.UTC))
	if got := c.CurrentMonthKey(); got != "2024-05" {
		t.Errorf("CurrentMonthKey() = %q, want 2024-05", got)
	}
}

func TestMonthRange(t *testing.T) {
	c := fixed(t, time.Now())

	tests := []struct {
		key       string
		wantStart string
		wantEnd   string
	}{
		{"2024-05", "2024-05-01", "2024-05-31"},
		{"2024-02", "2024-02-01", "2024-02-29"}, // leap year
		{"2023-02", "2023-02-01", "2023-02-28"},
		{"2024-12", "2024-12-01", "2024-12-31"},
		{"2025-01", "2025-01-01", "2025-01-31"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			start, end, err := c.MonthRange(tt.key)
			if err != nil {
				t.Fatalf("MonthRange(%q): %v", tt.key, err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("MonthRange(%q) = (%q, %q), want (%q, %q)",
					tt.key, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}

	if _, _, err := c.MonthRange("May 2024"); err == nil {
		t.Error("MonthRange with malformed key should fail")
	}
}

func TestMonthBounds(t *testing.T) {
	c := fixed(t, time.Now())
	start, end, err := c.MonthBounds("2024-05")
	if err != nil {
		t.Fatalf("MonthBounds: %v", err)
	}
	if start.Day() != 1 || start.Hour() != 0 {
		t.Errorf("start = %v, want first instant of month", start)
	}
	if end.Day() != 31 || end.Hour() != 23 || end.Minute() != 59 {
		t.Errorf("end = %v, want last instant of month", end)
	}
	if !end.Before(start.AddDate(0, 1, 0)) {
		t.Errorf("end %v should precede the next month's first instant", end)
	}
}

func TestIsBusinessHour(t *testing.T) {
	c := fixed(t, time.Now())
	loc := c.Location()

	tests := []struct {
		name string
		hour int
		want bool
	}{
		{"before opening", 7, false},
		{"opening hour", 8, true},
		{"midday", 12, true},
		{"last business hour", 17, true},
		{"closing hour", 18, false},
		{"night", 23, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instant := time.Date(2024, 5, 15, tt.hour, 30, 0, 0, loc)
			if got := c.IsBusinessHour(instant); got != tt.want {
				t.Errorf("IsBusinessHour(%02d:30) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

func TestIsLastDayOfMonth(t *testing.T) {
	c := fixed(t, time.Now())
	loc := c.Location()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"mid month", time.Date(2024, 5, 15, 10, 0, 0, 0, loc), false},
		{"last day", time.Date(2024, 5, 31, 10, 0, 0, 0, loc), true},
		{"feb 29 leap", time.Date(2024, 2, 29, 10, 0, 0, 0, loc), true},
		{"feb 28 leap", time.Date(2024, 2, 28, 10, 0, 0, 0, loc), false},
		{"dec 31 year rollover", time.Date(2024, 12, 31, 10, 0, 0, 0, loc), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsLastDayOfMonth(tt.date); got != tt.want {
				t.Errorf("IsLastDayOfMonth(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestMonthName(t *testing.T) {
	if got := MonthName("2024-05"); got != "maio de 2024" {
		t.Errorf("MonthName(2024-05) = %q, want %q", got, "maio de 2024")
	}
	if got := MonthName("bogus"); got != "bogus" {
		t.Errorf("MonthName(bogus) = %q, want passthrough", got)
	}
}
