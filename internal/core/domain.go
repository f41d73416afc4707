package core

import (
	"errors"
	"strings"
)

type (
	// Grid is a read-only snapshot of sheet values. Row 0 is spreadsheet row 1.
	Grid [][]string

	Money struct {
		Cents int64
	}

	BudgetEntry struct {
		Category string
		Code     string // Row-matching key, may be empty
		Spent    Money
	}

	// Report is the result of extracting one budget export.
	Report struct {
		Month   int // 1-12
		Entries []BudgetEntry
	}

	// WriteInstruction is a single cell write destined for a batch update.
	WriteInstruction struct {
		Address string
		Value   any
	}

	// UpdatePlan is the ordered list of writes handed to one batch update call.
	UpdatePlan []WriteInstruction
)

var (
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrEmptyReportPath = errors.New("empty report path")
)

// ValidateMonth reports whether m is a calendar month number.
func ValidateMonth(m int) error {
	if m < 1 || m > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (e BudgetEntry) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Spent.Validate()
}

func (r Report) Validate() error {
	if err := ValidateMonth(r.Month); err != nil {
		return err
	}
	for _, e := range r.Entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int {
	return len(g)
}

// Cell returns the value at row, col or "" when the cell is absent.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Clone returns a deep copy so callers can mutate without touching the snapshot.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Addresses lists the target addresses in plan order.
func (p UpdatePlan) Addresses() []string {
	out := make([]string, len(p))
	for i, w := range p {
		out[i] = w.Address
	}
	return out
}
