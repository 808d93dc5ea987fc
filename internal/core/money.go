// Package core provides the sales record model and field coercion.
//
// This file contains the parsing rules for amounts and dates as they appear
// in the sales file: decimal comma amounts and month/day/year dates.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the month/day/year layout of the Date column.
// Single-digit months and days are accepted as well as zero-padded ones.
const DateLayout = "1/2/2006"

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is an optional non-negative decimal value. A missing amount is
// excluded from every sum.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount wraps a present value.
func NewAmount(v decimal.Decimal) Amount {
	return Amount{Value: v, Valid: true}
}

// MissingAmount returns an absent value.
func MissingAmount() Amount {
	return Amount{}
}

// ParseAmount converts a decimal comma string to an Amount.
//
// The first comma is treated as the decimal marker and replaced by a dot
// before parsing. Empty, non-numeric or negative inputs return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("100,50") -> 100.50, nil
//	ParseAmount("99.5")   -> 99.50, nil
//	ParseAmount("abc")    -> missing, ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MissingAmount(), ErrInvalidAmount
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return MissingAmount(), ErrInvalidAmount
	}
	if v.IsNegative() {
		return MissingAmount(), ErrInvalidAmount
	}
	return NewAmount(v), nil
}

// CoerceAmount is ParseAmount with errors turned into a missing value.
func CoerceAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		return MissingAmount()
	}
	return a
}

// ParseDate parses a month/day/year date string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// CoerceDate is ParseDate with errors turned into ok == false.
func CoerceDate(s string) (t time.Time, ok bool) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Float64 returns the amount for display purposes. Missing amounts yield 0.
// Use Value for arithmetic.
func (a Amount) Float64() float64 {
	if !a.Valid {
		return 0
	}
	f, _ := a.Value.Float64()
	return f
}

// String renders the amount with two decimals, or an empty string when missing.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return a.Value.StringFixed(2)
}
