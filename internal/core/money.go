// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from report text
// and converting between cents and the decimal value written to the ledger.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a report amount to a non-negative Money value.
//
// Currency symbols, thousands separators and surrounding whitespace are
// stripped. Negative values, either "-12.50" or accounting style "(12.50)",
// are returned as their absolute value since the ledger records spend as a
// positive figure. Fractions beyond cents are rounded half away from zero.
//
// Examples:
//
//	ParseAmount("$1,234.56")  -> 123456, nil
//	ParseAmount("-$20.00")    -> 2000, nil
//	ParseAmount("(7.005)")    -> 701, nil
//	ParseAmount("")           -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Abs().Shift(2).Round(0)
	if !cents.IsInteger() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Float returns the amount in currency units, the form written to the sheet.
// Use cents for arithmetic to avoid floating-point drift.
func (m Money) Float() float64 {
	f, _ := decimal.New(m.Cents, -2).Float64()
	return f
}

// String formats the amount with two decimals.
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}
