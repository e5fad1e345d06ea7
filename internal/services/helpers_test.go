package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bankrecon/internal/core"
	"bankrecon/internal/log"
	"bankrecon/internal/storage"
)

var cet = time.FixedZone("CET", 3600)

const bankHeader = `"Számlaszám";"Számla neve";"Könyvelés dátuma";"Értéknap";"Partner számla";"Partner";"Összeg";"Deviza";"Közlemény";"Azonosító";"Típus kód";"Típus"`

func bankLine(bankID, partner, amount, typeName string) string {
	return strings.Join([]string{
		`"11773016-11111111"`, `"Acme Kft"`, `"2025-01-03T10:15:30+01:00[Europe/Budapest]"`, `"2025-01-03"`,
		`"10700024-22222222"`, `"` + partner + `"`, `"` + amount + `"`, `"HUF"`, `"számla"`,
		`"` + bankID + `"`, `"T01"`, `"` + typeName + `"`,
	}, ";")
}

func writeFile(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "recon.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

var ledgerHeader = []string{
	core.ColAccountNumber, core.ColAccountName, core.ColEntryDate, core.ColValueDate,
	core.ColCounterAccountNumber, core.ColPartner, core.ColAmount, core.ColCurrency, core.ColNotice,
	core.ColBankTransactionID, core.ColTypeCode, core.ColTypeName,
	core.ColCtrlCategory, core.ColCtrlMonth, core.ColCtrlInclude, core.ColCtrlVAT,
	core.ColCtrlAmount, core.ColCtrlInvoiceURL,
}

// ledgerRow mirrors bankLine as the ledger renders it.
func ledgerRow(bankID, partner, amount, category, include string) []string {
	return []string{
		"11773016-11111111", "Acme Kft", "2025-01-03 10:15:30", "2025-01-03",
		"10700024-22222222", partner, amount, "HUF", "számla",
		bankID, "T01", "Átutalás",
		category, "", include, "", "", "",
	}
}
