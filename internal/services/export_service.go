package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankrecon/internal/config"
	"bankrecon/internal/core"
	"bankrecon/internal/log"
	"bankrecon/internal/settlement"
	"bankrecon/internal/sheets"
)

// ExportConfig selects the ledger rows that become transfers.
type ExportConfig struct {
	SpreadsheetID string
	SheetName     string
	Currency      string
	ReadyStatus   string
	DateLayout    string
	NoticeLimit   int
	Columns       config.ExportColumns
}

// ExportReport summarizes one transfer export run.
type ExportReport struct {
	Rows      int
	Transfers int
	Files     []string
}

// ExportService turns ready ledger rows into settlement files.
type ExportService struct {
	ledger sheets.RowFetcher
	writer *settlement.Writer
	cfg    ExportConfig
	logger *log.Logger
}

func NewExportService(ledger sheets.RowFetcher, writer *settlement.Writer, cfg ExportConfig, logger *log.Logger) (*ExportService, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("export spreadsheet id is required")
	}
	if cfg.SheetName == "" {
		return nil, errors.New("export sheet name is required")
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = "2006-01-02"
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportService{
		ledger: ledger,
		writer: writer,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentExporter),
	}, nil
}

// Run recreates the target directory, then fetches the export sheet and
// writes one file per transfer date. Exports are not additive: a failed run
// leaves the directory empty, never holding files from an earlier run.
func (s *ExportService) Run(ctx context.Context) (ExportReport, error) {
	start := time.Now()
	var report ExportReport

	if err := s.writer.Reset(); err != nil {
		return report, err
	}

	rows, err := s.ledger.FetchRows(ctx, s.cfg.SpreadsheetID, s.cfg.SheetName)
	if err != nil {
		return report, fmt.Errorf("export sheet %s: %w", s.cfg.SheetName, err)
	}
	report.Rows = len(rows)

	var transfers []core.Transfer
	for i, row := range rows {
		t, ok, err := s.transfer(row)
		if err != nil {
			return report, fmt.Errorf("sheet %s row %d: %w", s.cfg.SheetName, i+2, err)
		}
		if ok {
			transfers = append(transfers, t)
		}
	}

	batches, err := settlement.AggregateByDate(transfers, s.cfg.NoticeLimit)
	if err != nil {
		return report, err
	}

	for _, b := range batches {
		path, err := s.writer.Write(b.Date, s.cfg.Currency, b.Transfers)
		if err != nil {
			return report, err
		}
		report.Transfers += len(b.Transfers)
		report.Files = append(report.Files, path)
		s.logger.InfoContext(ctx, "Wrote settlement file",
			log.FieldFile, path,
			log.FieldTransferDate, b.Date.Format("2006-01-02"),
			"transfers", len(b.Transfers))
	}

	s.logger.InfoContext(ctx, "Export finished",
		log.FieldOperation, log.OpExport,
		"rows", report.Rows,
		"files", len(report.Files),
		log.FieldDuration, time.Since(start).Milliseconds())
	return report, nil
}

// transfer projects a ledger row. Rows not in the ready state or in another
// currency are skipped.
func (s *ExportService) transfer(row map[string]string) (core.Transfer, bool, error) {
	c := s.cfg.Columns
	status, err := column(row, c.Status)
	if err != nil {
		return core.Transfer{}, false, err
	}
	if strings.TrimSpace(status) != s.cfg.ReadyStatus {
		return core.Transfer{}, false, nil
	}
	currency, err := column(row, c.Currency)
	if err != nil {
		return core.Transfer{}, false, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != s.cfg.Currency {
		return core.Transfer{}, false, nil
	}

	account, err := requiredColumn(row, c.Account)
	if err != nil {
		return core.Transfer{}, false, err
	}
	beneficiary, err := column(row, c.Beneficiary)
	if err != nil {
		return core.Transfer{}, false, err
	}
	notice, err := column(row, c.Notice)
	if err != nil {
		return core.Transfer{}, false, err
	}
	rawAmount, err := requiredColumn(row, c.Amount)
	if err != nil {
		return core.Transfer{}, false, err
	}
	amount, err := core.ParseDecimal(rawAmount, core.LedgerDecimalMark)
	if err != nil {
		return core.Transfer{}, false, fmt.Errorf("%s: %w", c.Amount, err)
	}
	rawDate, err := requiredColumn(row, c.TransferDate)
	if err != nil {
		return core.Transfer{}, false, err
	}
	date, err := core.ParseDate(rawDate, s.cfg.DateLayout)
	if err != nil {
		return core.Transfer{}, false, fmt.Errorf("%s: %w", c.TransferDate, err)
	}

	return core.Transfer{
		TargetAccount: strings.TrimSpace(account),
		Beneficiary:   strings.TrimSpace(beneficiary),
		Amount:        amount,
		Currency:      currency,
		Notice:        core.CollapseSpaces(notice),
		TransferDate:  date,
	}, true, nil
}

func column(row map[string]string, name string) (string, error) {
	v, ok := row[name]
	if !ok {
		return "", &core.MissingFieldError{Column: name}
	}
	return v, nil
}

func requiredColumn(row map[string]string, name string) (string, error) {
	v, err := column(row, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", &core.MissingFieldError{Column: name}
	}
	return v, nil
}
