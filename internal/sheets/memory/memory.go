package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
	ports "budgetsync/internal/sheets"
)

// Store is an in-memory ledger. It trims trailing empty cells from every
// row the way the Sheets API does, so width-gated code lookups behave the
// same as against a real sheet.
type Store struct {
	mu     sync.Mutex
	grid   core.Grid
	writes int
}

var (
	_ ports.GridReader  = (*Store)(nil)
	_ ports.BatchWriter = (*Store)(nil)
)

func New(grid core.Grid) *Store {
	g := grid.Clone()
	for i := range g {
		g[i] = trimRow(g[i])
	}
	return &Store{grid: g}
}

// NewFromFile seeds the store from a CSV export of the ledger sheet.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read grid file %s: %w", path, err)
	}
	return New(core.Grid(records)), nil
}

// ReadGrid returns a copy of the current grid.
func (s *Store) ReadGrid(_ context.Context) (core.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone(), nil
}

// BatchWrite applies the plan in order. Every address is validated before
// any cell changes so a bad plan leaves the grid untouched.
func (s *Store) BatchWrite(_ context.Context, plan core.UpdatePlan) error {
	type cell struct{ row, col int }
	cells := make([]cell, len(plan))
	for i, w := range plan {
		row, col, err := ledger.ParseAddress(w.Address)
		if err != nil {
			return fmt.Errorf("write %d: %w", i, err)
		}
		cells[i] = cell{row, col}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range cells {
		for len(s.grid) <= c.row {
			s.grid = append(s.grid, nil)
		}
		row := s.grid[c.row]
		for len(row) <= c.col {
			row = append(row, "")
		}
		row[c.col] = formatValue(plan[i].Value)
		s.grid[c.row] = trimRow(row)
		s.writes++
	}
	return nil
}

// Cell returns the value at an A1 address.
func (s *Store) Cell(address string) (string, error) {
	row, col, err := ledger.ParseAddress(address)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Cell(row, col), nil
}

// Writes returns the number of cell writes applied so far.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func trimRow(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}
