package core

import (
	"fmt"
	"strings"
	"time"
)

// Ledger sheet column headers.
const (
	ColAccountNumber        = "ACCOUNT_NUMBER"
	ColAccountName          = "ACCOUNT_NAME"
	ColEntryDate            = "ENTRY_DATE"
	ColValueDate            = "VALUE_DATE"
	ColCounterAccountNumber = "COUNTER_ACCOUNT_NUMBER"
	ColPartner              = "PARTNER"
	ColAmount               = "AMOUNT"
	ColCurrency             = "CURRENCY"
	ColNotice               = "NOTICE"
	ColBankTransactionID    = "TRANSACTION_BANK_ID"
	ColTypeCode             = "TRANSACTION_TYPE_CODE"
	ColTypeName             = "TRANSACTION_TYPE_NAME"
	ColCtrlCategory         = "CTRL_CATEGORY"
	ColCtrlMonth            = "CTRL_MONTH"
	ColCtrlInclude          = "CTRL_INCLUDE"
	ColCtrlVAT              = "CTRL_VAT"
	ColCtrlAmount           = "CTRL_AMOUNT"
	ColCtrlInvoiceURL       = "CTRL_INVOICE_URL"
)

// BankLineFields is the number of positional fields in a bank export line.
const BankLineFields = 12

var (
	// ledger columns that must be present and non-blank
	ledgerRequired = []string{
		ColAccountNumber, ColEntryDate, ColValueDate, ColAmount, ColCurrency, ColBankTransactionID,
	}
	// ledger columns that must be present but may be blank
	ledgerExpected = []string{
		ColAccountName, ColCounterAccountNumber, ColPartner, ColNotice, ColTypeCode, ColTypeName,
	}
)

// FromBankLine builds a record from one line of the bank CSV export.
func FromBankLine(line string, sep rune) (TransactionRecord, error) {
	f, err := SplitDelimited(line, sep)
	if err != nil {
		return TransactionRecord{}, err
	}
	if len(f) < BankLineFields {
		return TransactionRecord{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, BankLineFields, len(f))
	}

	entry, err := ParseZonedTime(f[2])
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("entry date: %w", err)
	}
	valueDate, err := ParseDate(f[3], DateLayout)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("value date: %w", err)
	}
	amount, err := ParseDecimal(f[6], BankDecimalMark)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("amount: %w", err)
	}

	return TransactionRecord{
		AccountNumber:        f[0],
		AccountName:          f[1],
		EntryTime:            entry,
		ValueDate:            valueDate,
		CounterAccountNumber: f[4],
		Partner:              f[5],
		Amount:               amount,
		Currency:             normalizeCurrency(f[7]),
		Notice:               CollapseSpaces(f[8]),
		BankTransactionID:    f[9],
		TypeCode:             f[10],
		TypeName:             f[11],
	}, nil
}

// FromLedgerRow builds a record from a ledger sheet row keyed by column
// header. Wall-clock entry times are interpreted in loc.
func FromLedgerRow(row map[string]string, loc *time.Location) (TransactionRecord, error) {
	for _, col := range ledgerRequired {
		if strings.TrimSpace(row[col]) == "" {
			return TransactionRecord{}, &MissingFieldError{Column: col}
		}
	}
	for _, col := range ledgerExpected {
		if _, ok := row[col]; !ok {
			return TransactionRecord{}, &MissingFieldError{Column: col}
		}
	}

	entry, err := ParseDateTime(row[ColEntryDate], LedgerDateTimeLayout, loc)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("%s: %w", ColEntryDate, err)
	}
	valueDate, err := ParseDate(row[ColValueDate], DateLayout)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("%s: %w", ColValueDate, err)
	}
	amount, err := ParseDecimal(row[ColAmount], LedgerDecimalMark)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("%s: %w", ColAmount, err)
	}
	ctrlMonth, err := ParseNullMonth(row[ColCtrlMonth], MonthLayout)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("%s: %w", ColCtrlMonth, err)
	}

	return TransactionRecord{
		AccountNumber:        row[ColAccountNumber],
		AccountName:          row[ColAccountName],
		EntryTime:            entry,
		ValueDate:            valueDate,
		CounterAccountNumber: row[ColCounterAccountNumber],
		Partner:              row[ColPartner],
		Amount:               amount,
		Currency:             normalizeCurrency(row[ColCurrency]),
		Notice:               CollapseSpaces(row[ColNotice]),
		BankTransactionID:    row[ColBankTransactionID],
		TypeCode:             row[ColTypeCode],
		TypeName:             row[ColTypeName],
		Control: Control{
			Category:   nullString(row[ColCtrlCategory]),
			Month:      ctrlMonth,
			Include:    ParseTristate(row[ColCtrlInclude]),
			VAT:        ParseTristate(row[ColCtrlVAT]),
			Amount:     ParseNullDecimal(row[ColCtrlAmount], LedgerDecimalMark),
			InvoiceURL: nullString(row[ColCtrlInvoiceURL]),
		},
	}, nil
}
