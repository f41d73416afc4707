// Package ledger implements spreadsheet addressing and reconciliation of
// budget entries against a ledger grid.
//
// Columns are addressed with one or two letters (A..Z, AA..ZZ). The two
// letter limit matches the widest ledger layout in use and keeps the
// encoding a simple bijection.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxColumns is the number of columns expressible with one or two letters.
const MaxColumns = len(alphabet)*len(alphabet) + len(alphabet)

var (
	ErrOutOfRange    = errors.New("column index out of range")
	ErrInvalidFormat = errors.New("invalid column label")
)

// EncodeColumn returns the label for a zero-based column index: 0 -> "A",
// 25 -> "Z", 26 -> "AA", 701 -> "ZZ".
func EncodeColumn(index int) (string, error) {
	if index < 0 || index >= MaxColumns {
		return "", fmt.Errorf("encode %d: %w", index, ErrOutOfRange)
	}
	n := len(alphabet)
	var b strings.Builder
	if magnitude := index / n; magnitude > 0 {
		b.WriteByte(alphabet[magnitude-1])
	}
	b.WriteByte(alphabet[index%n])
	return b.String(), nil
}

// DecodeColumn is the inverse of EncodeColumn.
func DecodeColumn(label string) (int, error) {
	if len(label) < 1 || len(label) > 2 {
		return 0, fmt.Errorf("decode %q: %w", label, ErrInvalidFormat)
	}
	last := strings.IndexByte(alphabet, label[len(label)-1])
	if last < 0 {
		return 0, fmt.Errorf("decode %q: %w", label, ErrInvalidFormat)
	}
	index := last
	if len(label) == 2 {
		first := strings.IndexByte(alphabet, label[0])
		if first < 0 {
			return 0, fmt.Errorf("decode %q: %w", label, ErrInvalidFormat)
		}
		index += (first + 1) * len(alphabet)
	}
	return index, nil
}
