package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankrecon/internal/core"
	"bankrecon/internal/log"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recon.db")
	repo, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func sampleRecord(bankID string) core.TransactionRecord {
	return core.TransactionRecord{
		AccountNumber:        "11773016-11111111",
		AccountName:          "Acme Kft",
		EntryTime:            time.Date(2025, 1, 3, 9, 15, 30, 0, time.UTC),
		ValueDate:            time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		CounterAccountNumber: "10700024-22222222",
		Partner:              "Partner Bt",
		Amount:               decimal.RequireFromString("-1234.50"),
		Currency:             "HUF",
		Notice:               "Invoice 2025/01",
		BankTransactionID:    bankID,
		TypeCode:             "T01",
		TypeName:             "Átutalás",
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec := sampleRecord("TX-1")

	res, err := repo.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)

	res, err = repo.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, Skipped, res)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, Counters{Inserted: 1, Skipped: 1}, repo.Counters())
}

func TestInsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec := sampleRecord("TX-1").WithControl(core.Control{
		Category:   sql.NullString{String: "bankköltség", Valid: true},
		Month:      sql.NullTime{Time: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		Include:    core.True,
		Amount:     decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
		InvoiceURL: sql.NullString{String: "https://example.com/1", Valid: true},
	})

	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	found, err := repo.Find(ctx, rec.ID())
	require.NoError(t, err)
	require.Len(t, found, 1)
	got := found[0]

	assert.Equal(t, rec.ID(), got.ID())
	assert.True(t, got.Amount.Equal(rec.Amount))
	assert.True(t, got.EntryTime.Equal(rec.EntryTime))
	assert.Equal(t, rec.ValueDate, got.ValueDate)
	assert.Equal(t, "bankköltség", got.Control.Category.String)
	assert.Equal(t, core.True, got.Control.Include)
	assert.Equal(t, core.Unknown, got.Control.VAT)
	assert.True(t, got.Control.Amount.Decimal.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), got.Control.Month.Time)
}

func TestTristateSentinelsPersisted(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec := sampleRecord("TX-1")
	rec.Control.Include = core.False

	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	var include, vat int
	err = repo.DB().QueryRowContext(ctx,
		`SELECT ctrl_include, ctrl_vat FROM bank_transactions WHERE id = ?`, rec.ID()).Scan(&include, &vat)
	require.NoError(t, err)
	assert.Equal(t, 0, include)
	assert.Equal(t, -1, vat)
}

func TestSelectiveUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	stored := sampleRecord("TX-1")
	stored.Control.Include = core.True
	stored.Control.VAT = core.False
	stored.Control.InvoiceURL = sql.NullString{String: "https://example.com/1", Valid: true}
	_, err := repo.Insert(ctx, stored)
	require.NoError(t, err)

	patch := sampleRecord("TX-1")
	patch.Control.Category = sql.NullString{String: "cleverant", Valid: true}

	changed, err := repo.Update(ctx, patch)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, 1, repo.Counters().Updated)

	found, err := repo.Find(ctx, stored.ID())
	require.NoError(t, err)
	require.Len(t, found, 1)
	c := found[0].Control
	assert.Equal(t, "cleverant", c.Category.String)
	assert.Equal(t, core.True, c.Include)
	assert.Equal(t, core.False, c.VAT)
	assert.Equal(t, "https://example.com/1", c.InvoiceURL.String)
	assert.False(t, c.Amount.Valid)
	assert.False(t, c.Month.Valid)
}

func TestUpdateAllColumns(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	_, err := repo.Insert(ctx, sampleRecord("TX-1"))
	require.NoError(t, err)

	patch := sampleRecord("TX-1").WithControl(core.Control{
		Category:   sql.NullString{String: "alvállalkozó", Valid: true},
		Month:      sql.NullTime{Time: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		Include:    core.True,
		VAT:        core.True,
		Amount:     decimal.NewNullDecimal(decimal.RequireFromString("100")),
		InvoiceURL: sql.NullString{String: "https://example.com/2", Valid: true},
	})
	changed, err := repo.Update(ctx, patch)
	require.NoError(t, err)
	assert.Equal(t, 6, changed)
	assert.Equal(t, 1, repo.Counters().Updated)
}

func TestUpdateNoOp(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	_, err := repo.Insert(ctx, sampleRecord("TX-1"))
	require.NoError(t, err)

	// no control fields supplied
	changed, err := repo.Update(ctx, sampleRecord("TX-1"))
	require.NoError(t, err)
	assert.Zero(t, changed)

	// unknown id
	patch := sampleRecord("TX-404")
	patch.Control.Category = sql.NullString{String: "x", Valid: true}
	changed, err = repo.Update(ctx, patch)
	require.NoError(t, err)
	assert.Zero(t, changed)

	assert.Zero(t, repo.Counters().Updated)
}

func TestUpdateDuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec := sampleRecord("TX-1")
	_, err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	// simulate corruption: a second row with the same id
	_, err = repo.DB().ExecContext(ctx,
		`INSERT INTO bank_transactions SELECT * FROM bank_transactions WHERE id = ?`, rec.ID())
	require.NoError(t, err)

	patch := rec
	patch.Control.VAT = core.True
	patch.Control.InvoiceURL = sql.NullString{String: "https://example.com/x", Valid: true}

	changed, err := repo.Update(ctx, patch)
	require.ErrorIs(t, err, core.ErrInvariantViolation)
	assert.Zero(t, changed)
	assert.Zero(t, repo.Counters().Updated)

	found, err := repo.Find(ctx, rec.ID())
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, r := range found {
		assert.Equal(t, core.Unknown, r.Control.VAT)
		assert.False(t, r.Control.InvoiceURL.Valid)
	}
}

func TestKnownIDsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recon.db")
	rec := sampleRecord("TX-1")

	repo, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	_, err = repo.Insert(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	defer reopened.Close()

	res, err := reopened.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, Skipped, res)
	assert.Equal(t, Counters{Skipped: 1}, reopened.Counters())
}

func TestConcurrentInsertSameID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	rec := sampleRecord("TX-1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Insert(ctx, rec)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, Counters{Inserted: 1, Skipped: 7}, repo.Counters())
}

func TestMigrationsAreRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recon.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.EqualValues(t, 1, v1)
}
