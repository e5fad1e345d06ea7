package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"bankrecon/internal/config"
	"bankrecon/internal/services"
	"bankrecon/internal/settlement"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var targetDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write settlement files for the ready transfers of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if targetDir != "" {
				cfg.Export.TargetDir = targetDir
			}

			ledger, err := openLedger(cmd, cfg, logger)
			if err != nil {
				return err
			}

			writer, err := settlement.NewWriter(settlement.WriterConfig{
				Dir:           cfg.Export.TargetDir,
				Separator:     config.Separator(cfg.Export.Separator),
				Charset:       cfg.Export.Charset,
				SourceAccount: cfg.Export.SourceAccount,
				Prefix:        cfg.Export.Prefix,
			})
			if err != nil {
				return err
			}

			svc, err := services.NewExportService(ledger, writer, services.ExportConfig{
				SpreadsheetID: cfg.Export.SpreadsheetID,
				SheetName:     cfg.Export.SheetName,
				Currency:      cfg.Export.Currency,
				ReadyStatus:   cfg.Export.ReadyStatus,
				DateLayout:    cfg.Export.DateLayout,
				NoticeLimit:   cfg.Export.NoticeMaxLength,
				Columns:       cfg.Export.Columns,
			}, logger)
			if err != nil {
				return err
			}

			report, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range report.Files {
				fmt.Fprintln(out, f)
			}
			fmt.Fprintf(out, "rows=%d transfers=%d files=%d\n", report.Rows, report.Transfers, len(report.Files))
			return nil
		},
	}

	cmd.Flags().StringVar(&targetDir, "target-dir", "", "override export.target_dir")

	return cmd
}
