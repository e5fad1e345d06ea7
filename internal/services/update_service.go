package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bankrecon/internal/config"
	"bankrecon/internal/core"
	"bankrecon/internal/log"
	"bankrecon/internal/sheets"
)

// UpdateReport summarizes one ledger update run.
type UpdateReport struct {
	Sheets  int
	Rows    int
	Updated int
	Columns int
}

// UpdateService copies control fields from ledger sheets into the store.
type UpdateService struct {
	ledger      sheets.RowFetcher
	store       TransactionUpdater
	sheets      []config.UpdaterSheet
	loc         *time.Location
	concurrency int
	logger      *log.Logger
}

func NewUpdateService(ledger sheets.RowFetcher, store TransactionUpdater, sheetList []config.UpdaterSheet,
	loc *time.Location, concurrency int, logger *log.Logger) *UpdateService {
	if logger == nil {
		logger = log.Discard()
	}
	if loc == nil {
		loc = time.UTC
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &UpdateService{
		ledger:      ledger,
		store:       store,
		sheets:      sheetList,
		loc:         loc,
		concurrency: concurrency,
		logger:      logger.WithComponent(log.ComponentUpdater),
	}
}

// Run fetches the active sheets concurrently and applies their rows in
// configuration order. The first failure aborts the run.
func (s *UpdateService) Run(ctx context.Context) (UpdateReport, error) {
	start := time.Now()
	var report UpdateReport

	var active []config.UpdaterSheet
	for _, sh := range s.sheets {
		if !sh.Active {
			s.logger.InfoContext(ctx, "Skipping inactive ledger sheet",
				"remark", sh.Remark, log.FieldSpreadsheet, sh.ID, log.FieldSheet, sh.SheetName)
			continue
		}
		active = append(active, sh)
	}

	contents := make([][]map[string]string, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sh := range active {
		g.Go(func() error {
			rows, err := s.ledger.FetchRows(gctx, sh.ID, sh.SheetName)
			if err != nil {
				return fmt.Errorf("ledger sheet %s/%s: %w", sh.ID, sh.SheetName, err)
			}
			contents[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	for i, sh := range active {
		s.logger.InfoContext(ctx, "Processing ledger sheet",
			"remark", sh.Remark, log.FieldSheet, sh.SheetName, "rows", len(contents[i]))
		for j, row := range contents[i] {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			// Row 1 is the header.
			rowNum := j + 2
			rec, err := core.FromLedgerRow(row, s.loc)
			if err != nil {
				return report, fmt.Errorf("sheet %s row %d: %w", sh.SheetName, rowNum, err)
			}
			n, err := s.store.Update(ctx, rec)
			if err != nil {
				return report, fmt.Errorf("sheet %s row %d: %w", sh.SheetName, rowNum, err)
			}
			report.Rows++
			if n > 0 {
				report.Updated++
				report.Columns += n
				s.logger.DebugContext(ctx, "Updated transaction",
					log.FieldTransactionID, rec.ID(), log.FieldSheet, sh.SheetName,
					log.FieldRow, rowNum, log.FieldColumns, n)
			}
		}
		report.Sheets++
	}

	s.logger.InfoContext(ctx, "Update finished",
		"sheets", report.Sheets,
		log.FieldUpdated, report.Updated,
		log.FieldDuration, time.Since(start).Milliseconds())
	return report, nil
}
