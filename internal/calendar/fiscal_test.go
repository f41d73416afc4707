package calendar

import (
	"errors"
	"testing"
	"time"

	"budgetsync/internal/core"
)

func TestMonthLabel(t *testing.T) {
	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		month int
		want  string
	}{
		{1, "January 2025"},
		{3, "March 2025"},
		{4, "April 2024"},
		{9, "September 2024"},
		{12, "December 2024"},
	}
	for _, tc := range cases {
		got, err := MonthLabel(tc.month, start, "")
		if err != nil || got != tc.want {
			t.Fatalf("MonthLabel(%d) = %q, %v; want %q", tc.month, got, err, tc.want)
		}
	}
}

func TestMonthLabelCalendarYearAndLayout(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	got, err := MonthLabel(12, start, "Jan 06")
	if err != nil || got != "Dec 25" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestMonthLabelInvalid(t *testing.T) {
	for _, m := range []int{0, 13, -4} {
		if _, err := MonthLabel(m, time.Now(), ""); !errors.Is(err, core.ErrInvalidMonth) {
			t.Fatalf("MonthLabel(%d): expected ErrInvalidMonth, got %v", m, err)
		}
	}
}

func TestDayOfFiscalYear(t *testing.T) {
	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, time.April, 1, 23, 59, 0, 0, time.UTC), 1},
		{time.Date(2024, time.April, 30, 8, 0, 0, 0, time.UTC), 30},
		{time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC), 365},
	}
	for _, tc := range cases {
		if got := DayOfFiscalYear(tc.now, start); got != tc.want {
			t.Fatalf("DayOfFiscalYear(%s) = %d, want %d", tc.now.Format(time.RFC3339), got, tc.want)
		}
	}
}

func TestDayOfFiscalYearUsesLocalCalendarDay(t *testing.T) {
	start := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	loc := time.FixedZone("UTC-7", -7*3600)
	// 2024-04-02 22:00 local is already 04-03 in UTC; the local date counts.
	now := time.Date(2024, time.April, 2, 22, 0, 0, 0, loc)
	if got := DayOfFiscalYear(now, start); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestParseFiscalStart(t *testing.T) {
	got, err := ParseFiscalStart("2024-04-01")
	if err != nil || got.Month() != time.April || got.Year() != 2024 {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := ParseFiscalStart("April 2024"); err == nil {
		t.Fatalf("expected error")
	}
}
