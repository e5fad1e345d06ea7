package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bankrecon/internal/core"
	"bankrecon/internal/log"

	_ "modernc.org/sqlite"
)

// InsertResult is the outcome of Insert.
type InsertResult int

const (
	Inserted InsertResult = iota + 1
	Skipped
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Counters are the process-lifetime totals of a repository.
type Counters struct {
	Inserted int
	Skipped  int
	Updated  int
}

// SQLiteRepository is the reconciliation store.
//
// It keeps the set of persisted ids in memory, loaded on first use. The set is
// owned by the repository; the membership check and the row write happen under
// one lock so concurrent callers cannot both insert the same id.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger

	idsOnce sync.Once
	idsErr  error

	mu       sync.Mutex
	ids      map[string]struct{}
	counters Counters
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, core.ExternalIO("create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, core.ExternalIO("open sqlite database", err)
	}
	// Single writer; also keeps the transaction and its statements on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, core.ExternalIO("ping database", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, core.ExternalIO("run migrations", err)
	}
	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("Database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for maintenance and tests.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) loadIDs(ctx context.Context) error {
	r.idsOnce.Do(func() {
		ids, err := r.queries.ListIDs(ctx)
		if err != nil {
			r.idsErr = core.ExternalIO("load transaction ids", err)
			return
		}
		r.ids = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			r.ids[id] = struct{}{}
		}
		r.logger.DebugContext(ctx, "Loaded known transaction ids", "count", len(r.ids))
	})
	return r.idsErr
}

// Insert persists rec unless its id is already known.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.TransactionRecord) (InsertResult, error) {
	if err := r.loadIDs(ctx); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row := toRow(rec)
	if _, ok := r.ids[row.ID]; ok {
		r.counters.Skipped++
		return Skipped, nil
	}

	r.logger.DebugContext(ctx, "Inserting transaction", log.NewFields().
		WithOperation(log.OpInsert).
		WithTransaction(row.ID, rec.AccountNumber, rec.Partner, row.Amount, rec.Currency).ToSlice()...)

	if err := r.queries.InsertTransaction(ctx, row); err != nil {
		return 0, core.ExternalIO("insert transaction "+row.ID, err)
	}
	r.ids[row.ID] = struct{}{}
	r.counters.Inserted++
	return Inserted, nil
}

type columnUpdate struct {
	column string
	stmt   string
	value  any
}

func controlUpdates(c core.Control) []columnUpdate {
	var u []columnUpdate
	if c.Category.Valid {
		u = append(u, columnUpdate{"ctrl_category", updateCtrlCategory, c.Category.String})
	}
	if c.Month.Valid {
		u = append(u, columnUpdate{"ctrl_month", updateCtrlMonth, core.FirstOfMonth(c.Month.Time).Format(core.DateLayout)})
	}
	if c.Include.Known() {
		u = append(u, columnUpdate{"ctrl_include", updateCtrlInclude, c.Include.Sentinel()})
	}
	if c.VAT.Known() {
		u = append(u, columnUpdate{"ctrl_vat", updateCtrlVAT, c.VAT.Sentinel()})
	}
	if c.Amount.Valid {
		u = append(u, columnUpdate{"ctrl_amount", updateCtrlAmount, c.Amount.Decimal.String()})
	}
	if c.InvoiceURL.Valid {
		u = append(u, columnUpdate{"ctrl_invoice_url", updateCtrlInvoiceURL, c.InvoiceURL.String})
	}
	return u
}

// Update writes the supplied control fields of rec onto the stored row with
// the same id and returns how many columns changed.
//
// All column writes share one transaction. A column write that touches more
// than one row means duplicate ids; the transaction is rolled back and
// core.ErrInvariantViolation is returned.
func (r *SQLiteRepository) Update(ctx context.Context, rec core.TransactionRecord) (int, error) {
	id := rec.ID()
	updates := controlUpdates(rec.Control)

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.ExternalIO("begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	changed := 0
	for _, u := range updates {
		affected, err := q.UpdateColumn(ctx, u.stmt, u.value, id)
		if err != nil {
			return 0, core.ExternalIO("update "+u.column, err)
		}
		if affected > 1 {
			err := fmt.Errorf("%w: %d rows share id %s (column %s)", core.ErrInvariantViolation, affected, id, u.column)
			r.logger.ErrorContext(ctx, "Duplicate transaction id in store", log.NewFields().
				WithOperation(log.OpUpdate).
				WithError(err).ToSlice()...)
			return 0, err
		}
		if affected == 1 {
			changed++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, core.ExternalIO("commit update", err)
	}
	if changed > 0 {
		r.counters.Updated++
		r.logger.DebugContext(ctx, "Updated transaction",
			log.FieldOperation, log.OpUpdate, log.FieldTransactionID, id, log.FieldColumns, changed)
	}
	return changed, nil
}

// Counters returns a snapshot of the run counters.
func (r *SQLiteRepository) Counters() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters
}

// Find returns every stored row with the given id, in insertion order.
func (r *SQLiteRepository) Find(ctx context.Context, id string) ([]core.TransactionRecord, error) {
	rows, err := r.queries.GetTransactions(ctx, id)
	if err != nil {
		return nil, core.ExternalIO("get transaction "+id, err)
	}
	out := make([]core.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode transaction %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of stored rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, core.ExternalIO("count transactions", err)
	}
	return n, nil
}

func toRow(rec core.TransactionRecord) TransactionRow {
	c := rec.Control
	row := TransactionRow{
		ID:                   rec.ID(),
		AccountNumber:        rec.AccountNumber,
		AccountName:          rec.AccountName,
		EntryTime:            rec.EntryTime.UTC().Format(time.RFC3339Nano),
		ValueDate:            rec.ValueDate.Format(core.DateLayout),
		Month:                rec.Month().Format(core.DateLayout),
		CounterAccountNumber: rec.CounterAccountNumber,
		Partner:              rec.Partner,
		Amount:               rec.Amount.String(),
		Currency:             rec.Currency,
		Notice:               rec.Notice,
		BankTransactionID:    rec.BankTransactionID,
		TypeCode:             rec.TypeCode,
		TypeName:             rec.TypeName,
		CtrlCategory:         c.Category,
		CtrlInclude:          int64(c.Include.Sentinel()),
		CtrlVAT:              int64(c.VAT.Sentinel()),
		CtrlInvoiceURL:       c.InvoiceURL,
	}
	if c.Month.Valid {
		row.CtrlMonth = sql.NullString{String: core.FirstOfMonth(c.Month.Time).Format(core.DateLayout), Valid: true}
	}
	if c.Amount.Valid {
		row.CtrlAmount = sql.NullString{String: c.Amount.Decimal.String(), Valid: true}
	}
	return row
}

func fromRow(row TransactionRow) (core.TransactionRecord, error) {
	entry, err := time.Parse(time.RFC3339Nano, row.EntryTime)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("entry_time: %w", err)
	}
	valueDate, err := core.ParseDate(row.ValueDate, core.DateLayout)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("value_date: %w", err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("amount: %w", err)
	}

	c := core.Control{
		Category:   row.CtrlCategory,
		Include:    core.TristateFromSentinel(row.CtrlInclude),
		VAT:        core.TristateFromSentinel(row.CtrlVAT),
		InvoiceURL: row.CtrlInvoiceURL,
	}
	if row.CtrlMonth.Valid {
		m, err := core.ParseDate(row.CtrlMonth.String, core.DateLayout)
		if err != nil {
			return core.TransactionRecord{}, fmt.Errorf("ctrl_month: %w", err)
		}
		c.Month = sql.NullTime{Time: m, Valid: true}
	}
	if row.CtrlAmount.Valid {
		d, err := decimal.NewFromString(row.CtrlAmount.String)
		if err != nil {
			return core.TransactionRecord{}, fmt.Errorf("ctrl_amount: %w", err)
		}
		c.Amount = decimal.NewNullDecimal(d)
	}

	return core.TransactionRecord{
		AccountNumber:        row.AccountNumber,
		AccountName:          row.AccountName,
		EntryTime:            entry,
		ValueDate:            valueDate,
		CounterAccountNumber: row.CounterAccountNumber,
		Partner:              row.Partner,
		Amount:               amount,
		Currency:             row.Currency,
		Notice:               row.Notice,
		BankTransactionID:    row.BankTransactionID,
		TypeCode:             row.TypeCode,
		TypeName:             row.TypeName,
		Control:              c,
	}, nil
}
