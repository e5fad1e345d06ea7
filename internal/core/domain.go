package core

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tristate is a boolean with an explicit "unknown" value distinct from false.
// The zero value is Unknown.
type Tristate int8

const (
	Unknown Tristate = iota
	False
	True
)

// TristateOf converts a plain bool.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Known reports whether the value is True or False.
func (t Tristate) Known() bool {
	return t == True || t == False
}

// Bool returns the boolean value and whether it is known.
func (t Tristate) Bool() (value bool, ok bool) {
	return t == True, t.Known()
}

// Sentinel returns the persisted encoding: -1 unknown, 0 false, 1 true.
func (t Tristate) Sentinel() int {
	switch t {
	case True:
		return 1
	case False:
		return 0
	default:
		return -1
	}
}

// TristateFromSentinel is the inverse of Sentinel. Any other value is Unknown.
func TristateFromSentinel(v int64) Tristate {
	switch v {
	case 1:
		return True
	case 0:
		return False
	default:
		return Unknown
	}
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

type (
	// TransactionRecord is a bank transaction as stored in the reconciliation
	// store. It is a value type: the With* methods return modified copies.
	// ID and Month are derived from the other fields and cannot be set.
	TransactionRecord struct {
		AccountNumber        string
		AccountName          string
		EntryTime            time.Time
		ValueDate            time.Time
		CounterAccountNumber string
		Partner              string
		Amount               decimal.Decimal
		Currency             string
		Notice               string
		BankTransactionID    string
		TypeCode             string
		TypeName             string

		Control Control
	}

	// Control holds the annotations applied after ingest, mostly from the
	// hand-edited ledger. Invalid/Unknown members mean "not supplied".
	Control struct {
		Category   sql.NullString
		Month      sql.NullTime
		Include    Tristate
		VAT        Tristate
		Amount     decimal.NullDecimal
		InvoiceURL sql.NullString
	}

	// Transfer is the settlement-export projection of a ledger row.
	Transfer struct {
		TargetAccount string
		Beneficiary   string
		Amount        decimal.Decimal
		Currency      string
		Notice        string
		TransferDate  time.Time
	}
)

// ID returns the content-addressable identity of the record.
func (r TransactionRecord) ID() string {
	return Identity(r.AccountNumber, r.EntryTime, r.Partner, r.Amount, r.BankTransactionID)
}

// Month is the settlement month: the value date truncated to the first day.
func (r TransactionRecord) Month() time.Time {
	return FirstOfMonth(r.ValueDate)
}

// WithControl returns a copy carrying the given control fields.
func (r TransactionRecord) WithControl(c Control) TransactionRecord {
	r.Control = c
	return r
}

// WithCategory returns a copy with the category set and the flags forced
// where the corresponding argument is known.
func (r TransactionRecord) WithCategory(category string, include, vat Tristate) TransactionRecord {
	r.Control.Category = sql.NullString{String: category, Valid: true}
	if include.Known() {
		r.Control.Include = include
	}
	if vat.Known() {
		r.Control.VAT = vat
	}
	return r
}

// HasControl reports whether at least one control field is supplied.
func (c Control) HasControl() bool {
	return c.Category.Valid || c.Month.Valid || c.Include.Known() || c.VAT.Known() ||
		c.Amount.Valid || c.InvoiceURL.Valid
}

func (r TransactionRecord) String() string {
	return fmt.Sprintf("TransactionRecord{id=%s account=%s entry=%s partner=%q amount=%s %s bank_id=%s}",
		shortID(r.ID()), r.AccountNumber, r.EntryTime.Format(time.RFC3339), r.Partner,
		r.Amount.String(), r.Currency, r.BankTransactionID)
}

// FirstOfMonth truncates t to midnight UTC on the first day of its month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// normalizeCurrency uppercases and trims a currency code.
func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CollapseSpaces trims s and collapses every whitespace run to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
