// Package core provides the ledger data model, validation and the pure
// aggregation functions derived from a snapshot.
//
// This file contains helpers for parsing user-entered amounts and formatting
// them for display.
package core

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₱"

var ErrUnparsableAmount = errors.New("amount is not a number")

var (
	// 1,234 and 1,234,567.89: commas group thousands.
	groupedAmount = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	// 12,5 and 12,34: a lone comma with at most two digits is a decimal point.
	commaDecimal = regexp.MustCompile(`^[+-]?\d+,\d{1,2}$`)
)

// ParseAmount converts a user-entered decimal string to a float.
//
// A comma followed by groups of three digits separates thousands, as
// FormatAmount writes them. A single comma followed by one or two digits is a
// decimal separator. Any other comma is rejected rather than guessed. The
// sign is kept so that validation, not parsing, decides whether the amount
// is acceptable.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1,234")    -> 1234, nil
//	ParseAmount("1,234.50") -> 1234.5, nil
//	ParseAmount("12,3456")  -> 0, ErrUnparsableAmount
//	ParseAmount("-5")       -> -5, nil
//	ParseAmount("abc")      -> 0, ErrUnparsableAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), CurrencySymbol))
	if s == "" {
		return 0, ErrUnparsableAmount
	}
	if strings.Contains(s, ",") {
		switch {
		case groupedAmount.MatchString(s):
			s = strings.ReplaceAll(s, ",", "")
		case commaDecimal.MatchString(s):
			s = strings.Replace(s, ",", ".", 1)
		default:
			return 0, ErrUnparsableAmount
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrUnparsableAmount
	}
	return v, nil
}

// FormatAmount renders v with the currency symbol, thousands separators and at
// most two decimals, e.g. 147500 -> "₱147,500" and 1234.5 -> "₱1,234.5".
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(CurrencySymbol)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
