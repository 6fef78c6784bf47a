// Package core holds the ledger domain: transactions, categories, money
// amounts and the derived balance.
//
// This file contains parsing and formatting for monetary amounts. Amounts
// are stored as integer cents to keep arithmetic exact; decimal strings are
// parsed with shopspring/decimal and half-up rounded to two places.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string such as "20.00" into cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Anything past
// the second decimal place is half-up rounded. Negative amounts are rejected;
// zero is allowed.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// String renders the amount as a plain decimal, e.g. 1234 -> "12.34".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Float64 returns the amount in currency units for serialization.
// Cents remain the unit for all arithmetic.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}
