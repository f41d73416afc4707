// Package calendar maps report months onto the ledger's fiscal year.
package calendar

import (
	"fmt"
	"time"

	"budgetsync/internal/core"
)

// DefaultMonthLayout renders month headers such as "April 2024".
const DefaultMonthLayout = "January 2006"

// MonthLabel returns the ledger header for month within the fiscal year that
// begins at fiscalStart. Months on or after the start month belong to the
// start year, earlier months to the following year.
func MonthLabel(month int, fiscalStart time.Time, layout string) (string, error) {
	if err := core.ValidateMonth(month); err != nil {
		return "", fmt.Errorf("month %d: %w", month, err)
	}
	if layout == "" {
		layout = DefaultMonthLayout
	}
	year := fiscalStart.Year()
	if time.Month(month) < fiscalStart.Month() {
		year++
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format(layout), nil
}

// DayOfFiscalYear counts calendar days since the fiscal year began, with the
// first day of the fiscal year being day 1. Both times are reduced to the
// calendar date in their own location.
func DayOfFiscalYear(now, fiscalStart time.Time) int {
	today := utcDate(now)
	origin := utcDate(fiscalStart).AddDate(0, 0, -1)
	return int(today.Sub(origin).Hours() / 24)
}

// ParseFiscalStart parses a YYYY-MM-DD fiscal year start date.
func ParseFiscalStart(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse fiscal start %q: %w", s, err)
	}
	return t, nil
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
