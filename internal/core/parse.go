package core

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used by the bank export and the ledger sheets.
const (
	DateLayout           = "2006-01-02"
	MonthLayout          = "2006-01"
	LedgerDateTimeLayout = "2006-01-02 15:04:05"
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// SplitDelimited splits line on sep wherever sep is outside a quoted segment,
// then removes one layer of enclosing double quotes from each field. Doubled
// quotes inside a quoted field are unescaped.
func SplitDelimited(line string, sep rune) ([]string, error) {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			field.WriteRune(r)
		case r == sep && !inQuotes:
			fields = append(fields, unquote(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("%w: unbalanced quotes in %q", ErrMalformedRecord, line)
	}
	fields = append(fields, unquote(field.String()))
	return fields, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

// ParseTristate never fails: blank and anything that is not the number 0 or 1
// is Unknown.
func ParseTristate(s string) Tristate {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Unknown
	}
	switch {
	case d.Equal(decimal.Zero):
		return False
	case d.Equal(decimal.NewFromInt(1)):
		return True
	default:
		return Unknown
	}
}

// ParseDate parses a calendar date in UTC.
func ParseDate(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrDateFormat, s, layout)
	}
	return t, nil
}

// ParseDateTime parses a wall-clock timestamp in loc.
func ParseDateTime(s, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrDateFormat, s, layout)
	}
	return t, nil
}

// ParseZonedTime parses an ISO-8601 timestamp with offset, optionally followed
// by a bracketed region id ("2025-01-03T10:15:30+01:00[Europe/Budapest]").
func ParseZonedTime(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if i := strings.IndexByte(v, '['); i > 0 && strings.HasSuffix(v, "]") {
		v = v[:i]
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 zoned timestamp", ErrDateFormat, s)
}

// ParseMonth parses a month-only value and normalizes it to day 1.
func ParseMonth(s, layout string) (time.Time, error) {
	t, err := ParseDate(s, layout)
	if err != nil {
		return time.Time{}, err
	}
	return FirstOfMonth(t), nil
}

// ParseNullMonth is ParseMonth for nullable columns: blank is null, a
// non-blank mismatch is still an error.
func ParseNullMonth(s, layout string) (sql.NullTime, error) {
	if strings.TrimSpace(s) == "" {
		return sql.NullTime{}, nil
	}
	t, err := ParseMonth(s, layout)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// nullString trims s and maps blank to null.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
