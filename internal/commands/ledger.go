package commands

import (
	"github.com/spf13/cobra"

	"bankrecon/internal/backend"
	"bankrecon/internal/config"
	"bankrecon/internal/log"
	"bankrecon/internal/sheets"
)

// openLedger builds the configured ledger reader.
func openLedger(cmd *cobra.Command, cfg *config.Config, logger *log.Logger) (sheets.RowFetcher, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), bc)
	if err != nil {
		return nil, err
	}
	return res.Ledger, nil
}
