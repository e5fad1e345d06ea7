package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"bankrecon/internal/buildinfo"
	"bankrecon/internal/cli"
	"bankrecon/internal/config"
	"bankrecon/internal/log"
)

type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "bankrecon",
		Short:   "Reconcile bank transactions with the ledger and export settlement files",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newImportCommand(opts),
		newUpdateCommand(opts),
		newExportCommand(opts),
		newAuthCommand(opts),
	)

	return rootCmd
}

// load reads .env, the config file and the environment, applies flag
// overrides and sets up logging.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	if o.envFile != "" {
		cli.LoadEnvFile(o.envFile)
	}
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Configuration loaded", log.FieldOperation, log.OpStartup, "command", cmd.Name())
	return cfg, logger, nil
}
