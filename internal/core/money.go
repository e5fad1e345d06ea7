// Package core provides the transaction model and the field parsers that feed it.
//
// This file contains the amount parsing and formatting helpers. Amounts are
// exact decimals end to end; nothing here goes through float64.
package core

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Decimal marks used by the sources.
const (
	BankDecimalMark   = ','
	LedgerDecimalMark = '.'
)

// ParseDecimal parses an amount written with the given decimal mark.
//
// Spaces (including non-breaking ones) are ignored. The other separator is a
// thousands separator when it precedes the decimal mark. If the mark is absent
// and the other separator occurs once without a three-digit group after it,
// it is taken as the decimal mark instead. When a second separator follows the
// decimal mark the fraction is truncated there.
//
// Examples with mark ',':
//
//	ParseDecimal("-1 234,50", ',') -> -1234.50
//	ParseDecimal("1.234,5", ',')   -> 1234.5
//	ParseDecimal("12.50", ',')     -> 12.50
//	ParseDecimal("12,50.00", ',')  -> 12.50
func ParseDecimal(s string, mark rune) (decimal.Decimal, error) {
	normalized, ok := normalizeDecimal(s, mark)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", ErrMalformedRecord, s)
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q: %v", ErrMalformedRecord, s, err)
	}
	return d, nil
}

// ParseNullDecimal is ParseDecimal for nullable columns: blank or
// unparsable input yields an invalid NullDecimal instead of an error.
func ParseNullDecimal(s string, mark rune) decimal.NullDecimal {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}
	}
	d, err := ParseDecimal(s, mark)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatAmount renders d with a decimal point, no grouping and at least two
// fraction digits. It never rounds.
func FormatAmount(d decimal.Decimal) string {
	places := int32(2)
	if exp := d.Exponent(); exp < -2 {
		places = -exp
	}
	return d.StringFixed(places)
}

func normalizeDecimal(s string, mark rune) (string, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", false
	}

	sign := ""
	if s[0] == '-' || s[0] == '+' {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	dec, thou := byte(mark), byte(',')
	if dec == ',' {
		thou = '.'
	}

	idx := strings.IndexByte(s, dec)
	if idx < 0 && strings.Count(s, string(thou)) == 1 {
		j := strings.IndexByte(s, thou)
		if len(s)-j-1 != 3 {
			dec, thou = thou, dec
			idx = j
		}
	}

	intPart, frac := s, ""
	if idx >= 0 {
		intPart, frac = s[:idx], s[idx+1:]
		if k := strings.IndexAny(frac, ".,"); k >= 0 {
			frac = frac[:k]
		}
	}
	intPart = strings.ReplaceAll(intPart, string(thou), "")

	if intPart == "" && frac == "" {
		return "", false
	}
	if !allDigits(intPart) || !allDigits(frac) {
		return "", false
	}
	if intPart == "" {
		intPart = "0"
	}
	if frac == "" {
		return sign + intPart, true
	}
	return sign + intPart + "." + frac, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
