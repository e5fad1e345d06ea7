package services

import (
	"context"
	"fmt"
	"time"

	"bankrecon/internal/category"
	"bankrecon/internal/importer"
	"bankrecon/internal/log"
	"bankrecon/internal/storage"
)

// ImportReport summarizes one import run.
type ImportReport struct {
	Files    int
	Records  int
	Inserted int
	Skipped  int
}

// ImportService loads bank export files into the reconciliation store.
type ImportService struct {
	reader *importer.Reader
	store  TransactionInserter
	rules  *category.Engine
	logger *log.Logger
}

// NewImportService wires the import pipeline. A nil rules engine leaves
// records uncategorized.
func NewImportService(reader *importer.Reader, store TransactionInserter, rules *category.Engine, logger *log.Logger) *ImportService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ImportService{
		reader: reader,
		store:  store,
		rules:  rules,
		logger: logger.WithComponent(log.ComponentImporter),
	}
}

// Run parses every matching file, then inserts the records one by one in
// file order. Parsing fans out; store writes do not.
func (s *ImportService) Run(ctx context.Context) (ImportReport, error) {
	start := time.Now()
	var report ImportReport

	paths, err := s.reader.Files()
	if err != nil {
		return report, err
	}
	files, err := s.reader.ReadAll(ctx, paths)
	if err != nil {
		return report, err
	}
	report.Files = len(files)

	for _, f := range files {
		for _, rec := range f.Records {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if s.rules != nil {
				rec, _ = s.rules.Apply(rec)
			}
			res, err := s.store.Insert(ctx, rec)
			if err != nil {
				return report, fmt.Errorf("%s: %w", f.Path, err)
			}
			report.Records++
			switch res {
			case storage.Inserted:
				report.Inserted++
				s.logger.DebugContext(ctx, "Imported transaction",
					log.FieldTransactionID, rec.ID(), log.FieldFile, f.Path,
					log.FieldPartner, rec.Partner, log.FieldCategory, rec.Control.Category.String)
			case storage.Skipped:
				report.Skipped++
			}
		}
	}

	s.logger.InfoContext(ctx, "Import finished",
		"files", report.Files,
		log.FieldInserted, report.Inserted,
		log.FieldSkipped, report.Skipped,
		log.FieldDuration, time.Since(start).Milliseconds())
	return report, nil
}
