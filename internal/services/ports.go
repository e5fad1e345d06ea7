package services

import (
	"context"

	"bankrecon/internal/core"
	"bankrecon/internal/storage"
)

// TransactionInserter is the ingest side of the reconciliation store.
type TransactionInserter interface {
	Insert(ctx context.Context, rec core.TransactionRecord) (storage.InsertResult, error)
}

// TransactionUpdater applies ledger control fields to stored rows.
type TransactionUpdater interface {
	Update(ctx context.Context, rec core.TransactionRecord) (int, error)
}

var (
	_ TransactionInserter = (*storage.SQLiteRepository)(nil)
	_ TransactionUpdater  = (*storage.SQLiteRepository)(nil)
)
