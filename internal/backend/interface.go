package backend

import (
	"context"
	"time"

	"bankrecon/internal/sheets"
)

// BackendType names a ledger source.
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (t BackendType) String() string { return string(t) }

// IsValid reports whether t is a known ledger backend.
func (t BackendType) IsValid() bool {
	switch t {
	case SheetsBackend, MemoryBackend:
		return true
	}
	return false
}

// BackendResult contains the ledger reader
type BackendResult struct {
	Ledger sheets.RowFetcher
}

// Factory creates ledger readers based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for ledger backend creation
type Config struct {
	Type BackendType

	// Google Sheets configuration
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	MetadataTTL              time.Duration

	// Memory backend reads <DataDirectory>/<spreadsheet>/<sheet>.csv
	DataDirectory string
}
