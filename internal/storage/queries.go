package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the hand-maintained statements of the store.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const transactionColumns = `id, account_number, account_name, entry_time, value_date, month,
    counter_account_number, partner, amount, currency, notice, bank_transaction_id,
    type_code, type_name, ctrl_category, ctrl_month, ctrl_include, ctrl_vat,
    ctrl_amount, ctrl_invoice_url`

const listIDs = `SELECT id FROM bank_transactions`

func (q *Queries) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const insertTransaction = `INSERT INTO bank_transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// TransactionRow is the persisted form of a transaction.
type TransactionRow struct {
	ID                   string
	AccountNumber        string
	AccountName          string
	EntryTime            string
	ValueDate            string
	Month                string
	CounterAccountNumber string
	Partner              string
	Amount               string
	Currency             string
	Notice               string
	BankTransactionID    string
	TypeCode             string
	TypeName             string
	CtrlCategory         sql.NullString
	CtrlMonth            sql.NullString
	CtrlInclude          int64
	CtrlVAT              int64
	CtrlAmount           sql.NullString
	CtrlInvoiceURL       sql.NullString
}

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.AccountNumber, r.AccountName, r.EntryTime, r.ValueDate, r.Month,
		r.CounterAccountNumber, r.Partner, r.Amount, r.Currency, r.Notice, r.BankTransactionID,
		r.TypeCode, r.TypeName, r.CtrlCategory, r.CtrlMonth, r.CtrlInclude, r.CtrlVAT,
		r.CtrlAmount, r.CtrlInvoiceURL,
	)
	return err
}

const getTransactions = `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE id = ? ORDER BY rowid`

func (q *Queries) GetTransactions(ctx context.Context, id string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, getTransactions, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(
			&r.ID, &r.AccountNumber, &r.AccountName, &r.EntryTime, &r.ValueDate, &r.Month,
			&r.CounterAccountNumber, &r.Partner, &r.Amount, &r.Currency, &r.Notice, &r.BankTransactionID,
			&r.TypeCode, &r.TypeName, &r.CtrlCategory, &r.CtrlMonth, &r.CtrlInclude, &r.CtrlVAT,
			&r.CtrlAmount, &r.CtrlInvoiceURL,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const countTransactions = `SELECT COUNT(*) FROM bank_transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

// One statement per mutable control column. Each touches a single column so
// the affected-row count can be checked per column.
const (
	updateCtrlCategory   = `UPDATE bank_transactions SET ctrl_category = ? WHERE id = ?`
	updateCtrlMonth      = `UPDATE bank_transactions SET ctrl_month = ? WHERE id = ?`
	updateCtrlInclude    = `UPDATE bank_transactions SET ctrl_include = ? WHERE id = ?`
	updateCtrlVAT        = `UPDATE bank_transactions SET ctrl_vat = ? WHERE id = ?`
	updateCtrlAmount     = `UPDATE bank_transactions SET ctrl_amount = ? WHERE id = ?`
	updateCtrlInvoiceURL = `UPDATE bank_transactions SET ctrl_invoice_url = ? WHERE id = ?`
)

// UpdateColumn runs one of the control column statements and returns the
// number of affected rows.
func (q *Queries) UpdateColumn(ctx context.Context, stmt string, value any, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, stmt, value, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
