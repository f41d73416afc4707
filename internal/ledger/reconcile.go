package ledger

import (
	"strconv"

	"budgetsync/internal/core"
)

// CodeRowMap maps a row code to its 1-based ledger row.
type CodeRowMap map[string]int

// Row returns the row for code and whether it is known.
func (m CodeRowMap) Row(code string) (int, bool) {
	row, ok := m[code]
	return row, ok
}

// BuildCodeRowMap scans codeColumn of every row and maps each non-empty
// code to its 1-based row number.
//
// When expectedWidth > 0 only rows with exactly that many cells are
// considered. The Sheets API trims trailing empty cells, so category rows
// carrying a code in the last ledger column are exactly as wide as that
// column; shorter rows are headers, totals or notes.
//
// A code that appears on several rows maps to the last one.
func BuildCodeRowMap(grid core.Grid, codeColumn, expectedWidth int) CodeRowMap {
	out := make(CodeRowMap)
	for i, cols := range grid {
		if expectedWidth > 0 && len(cols) != expectedWidth {
			continue
		}
		if codeColumn < 0 || codeColumn >= len(cols) {
			continue
		}
		code := cols[codeColumn]
		if code == "" {
			continue
		}
		out[code] = i + 1
	}
	return out
}

// Reconcile turns entries into writes at writeColumn on the row of each
// entry's code. Entries whose code is blank or unknown are skipped. Input
// order is kept and writes to the same address are not merged.
func Reconcile(entries []core.BudgetEntry, rows CodeRowMap, writeColumn string) []core.WriteInstruction {
	out := make([]core.WriteInstruction, 0, len(entries))
	for _, e := range entries {
		row, ok := rows.Row(e.Code)
		if !ok {
			continue
		}
		out = append(out, core.WriteInstruction{
			Address: writeColumn + strconv.Itoa(row),
			Value:   e.Spent.Float(),
		})
	}
	return out
}

// Unmatched returns the entries Reconcile would skip, in input order.
func Unmatched(entries []core.BudgetEntry, rows CodeRowMap) []core.BudgetEntry {
	var out []core.BudgetEntry
	for _, e := range entries {
		if _, ok := rows.Row(e.Code); !ok {
			out = append(out, e)
		}
	}
	return out
}
