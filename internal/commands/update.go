package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"bankrecon/internal/cli"
	"bankrecon/internal/log"
	"bankrecon/internal/services"
)

func newUpdateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Copy control fields from the ledger sheets into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			loc, err := cfg.Ledger.Location()
			if err != nil {
				return err
			}

			ledger, err := openLedger(cmd, cfg, logger)
			if err != nil {
				return err
			}

			repo, err := cli.InitSQLite(logger, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := services.NewUpdateService(ledger, repo, cfg.Updater.Sheets, loc, cfg.Updater.Concurrency, logger)
			report, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			c := repo.Counters()
			logger.Info("Store counters", log.NewFields().WithCounters(c.Inserted, c.Skipped, c.Updated).ToSlice()...)
			fmt.Fprintf(cmd.OutOrStdout(), "sheets=%d inserted=%d skipped=%d updated=%d\n",
				report.Sheets, c.Inserted, c.Skipped, c.Updated)
			return nil
		},
	}
}
