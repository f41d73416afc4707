package report

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"budgetsync/internal/core"
)

func TestParseFileExport(t *testing.T) {
	rep, err := ParseFile(filepath.Join("testdata", "export.html"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rep.Month != 5 {
		t.Fatalf("month = %d, want 5", rep.Month)
	}
	want := []core.BudgetEntry{
		{Category: "Groceries", Code: "101", Spent: core.Money{Cents: 112435}},
		{Category: "Rent", Code: "205", Spent: core.Money{Cents: 95000}},
		{Category: "Uncategorized", Code: "", Spent: core.Money{Cents: 1200}},
	}
	if len(rep.Entries) != len(want) {
		t.Fatalf("entries = %+v", rep.Entries)
	}
	for i := range want {
		if rep.Entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, rep.Entries[i], want[i])
		}
	}
	if err := rep.Validate(); err != nil {
		t.Fatalf("parsed report should validate: %v", err)
	}
}

func TestParseMissingMonth(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html><body><h3>Spending Report</h3></body></html>`))
	if !errors.Is(err, ErrNoMonth) {
		t.Fatalf("expected ErrNoMonth, got %v", err)
	}
}

func TestParseInvalidMonth(t *testing.T) {
	_, err := Parse(strings.NewReader(`<h3>From 13/01/2024</h3>`))
	if !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestParseBadAmount(t *testing.T) {
	html := `<h3>From 01/01/2025 To 01/31/2025</h3>
<table>
<tr><td class="total-label-cell">Total For Fuel</td><td class="total-number-cell">n/a</td></tr>
</table>`
	_, err := Parse(strings.NewReader(html))
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Fuel"`) {
		t.Fatalf("error should name the category: %v", err)
	}
}

func TestParseNoTotals(t *testing.T) {
	rep, err := Parse(strings.NewReader(`<h3>From 02/01/2025</h3><p>nothing</p>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rep.Month != 2 || len(rep.Entries) != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestParseFileEmptyPath(t *testing.T) {
	if _, err := ParseFile(" "); !errors.Is(err, core.ErrEmptyReportPath) {
		t.Fatalf("expected ErrEmptyReportPath, got %v", err)
	}
}
