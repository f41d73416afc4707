package ledger

import (
	"fmt"
	"regexp"
	"strconv"

	"budgetsync/internal/core"
)

var addressPattern = regexp.MustCompile(`^([A-Z]+)([0-9]*)$`)

// FindCoordinates returns the zero-based row and column of the first cell
// equal to target, scanning rows top to bottom and columns left to right.
// Matching is exact. An empty target is never found.
func FindCoordinates(target string, grid core.Grid) (row, col int, ok bool) {
	if target == "" {
		return 0, 0, false
	}
	for r, cols := range grid {
		for c, v := range cols {
			if v == target {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// ToAddress converts zero-based coordinates to an A1 address.
func ToAddress(row, col int) (string, error) {
	label, err := EncodeColumn(col)
	if err != nil {
		return "", err
	}
	return label + strconv.Itoa(row+1), nil
}

// SplitAddress separates an address into its column label and row suffix.
// The row suffix may be empty for whole-column references such as "AQ".
func SplitAddress(address string) (label, row string, err error) {
	m := addressPattern.FindStringSubmatch(address)
	if m == nil {
		return "", "", fmt.Errorf("split address %q: %w", address, ErrInvalidFormat)
	}
	return m[1], m[2], nil
}

// ColumnOf returns the column label of an address.
func ColumnOf(address string) (string, error) {
	label, _, err := SplitAddress(address)
	return label, err
}

// ParseAddress returns zero-based coordinates for an A1 address with a row.
func ParseAddress(address string) (row, col int, err error) {
	label, digits, err := SplitAddress(address)
	if err != nil {
		return 0, 0, err
	}
	if digits == "" {
		return 0, 0, fmt.Errorf("parse address %q: missing row: %w", address, ErrInvalidFormat)
	}
	col, err = DecodeColumn(label)
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("parse address %q: bad row: %w", address, ErrInvalidFormat)
	}
	return n - 1, col, nil
}

// OffsetColumn shifts an address delta columns to the right (left when
// negative), keeping its row. A zero delta or an empty address is returned
// unchanged.
func OffsetColumn(address string, delta int) (string, error) {
	if delta == 0 || address == "" {
		return address, nil
	}
	label, row, err := SplitAddress(address)
	if err != nil {
		return "", err
	}
	index, err := DecodeColumn(label)
	if err != nil {
		return "", err
	}
	shifted, err := EncodeColumn(index + delta)
	if err != nil {
		return "", fmt.Errorf("offset %s by %d: %w", address, delta, err)
	}
	return shifted + row, nil
}

// FindAndOffsetAddress locates target and returns the address delta columns
// away from it, typically the writable cell next to a label. ok is false
// when the label is absent; that is not an error.
func FindAndOffsetAddress(target string, grid core.Grid, delta int) (address string, ok bool, err error) {
	row, col, found := FindCoordinates(target, grid)
	if !found {
		return "", false, nil
	}
	address, err = ToAddress(row, col)
	if err != nil {
		return "", false, err
	}
	address, err = OffsetColumn(address, delta)
	if err != nil {
		return "", false, err
	}
	return address, true, nil
}
