package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"bankrecon/internal/category"
	"bankrecon/internal/cli"
	"bankrecon/internal/config"
	"bankrecon/internal/importer"
	"bankrecon/internal/log"
	"bankrecon/internal/services"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var dir string
	var noCategorize bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load bank CSV exports into the reconciliation store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Import.Dir = dir
			}
			if noCategorize {
				cfg.Import.Categorize = false
			}

			repo, err := cli.InitSQLite(logger, cfg.Database.Path)
			if err != nil {
				return err
			}
			defer repo.Close()

			reader, err := importer.NewReader(importer.Config{
				Dir:         cfg.Import.Dir,
				Pattern:     cfg.Import.Pattern,
				Charset:     cfg.Import.Charset,
				Separator:   config.Separator(cfg.Import.Separator),
				Concurrency: cfg.Import.Concurrency,
			}, logger)
			if err != nil {
				return err
			}

			var rules *category.Engine
			if cfg.Import.Categorize {
				rules = category.Default()
			}

			report, err := services.NewImportService(reader, repo, rules, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			c := repo.Counters()
			logger.Info("Store counters", log.NewFields().WithCounters(c.Inserted, c.Skipped, c.Updated).ToSlice()...)
			fmt.Fprintf(cmd.OutOrStdout(), "files=%d inserted=%d skipped=%d updated=%d\n",
				report.Files, c.Inserted, c.Skipped, c.Updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "override import.dir")
	cmd.Flags().BoolVar(&noCategorize, "no-categorize", false, "store records without applying category rules")

	return cmd
}
