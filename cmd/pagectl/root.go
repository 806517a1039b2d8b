package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"medianav/infrastructure/config"
	"medianav/logging"
)

var (
	sourceKind string
	pageSize   int

	appConfig *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "pagectl",
	Short: "Inspect and browse the MediaNav catalog from the terminal",
	Long: `pagectl drives the MediaNav paging engine outside the web server.

Configuration is read from the environment and an optional .env file, the
same variables the server uses. Flags override the source selection.

Examples:
  pagectl seed --count 5000          # fill the sqlite catalog
  pagectl page 3 --source sqlite     # print one page through an orchestrator
  pagectl browse --source http       # scroll the remote catalog`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine
		_ = godotenv.Load()

		cfg, err := config.LoadAppConfigFromEnv()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if sourceKind != "" {
			cfg.Source.Kind = sourceKind
		}
		if pageSize > 0 {
			cfg.Paging.PageSize = pageSize
		}
		if err := cfg.Source.Validate(); err != nil {
			return err
		}
		if err := cfg.Paging.Validate(); err != nil {
			return err
		}

		appConfig = cfg
		// stdout carries command output, so logs move to stderr
		logger := logging.NewLogger(cfg.Logging)
		if cfg.Logging.Output == "stdout" {
			logger = logging.NewLoggerWithWriter(cfg.Logging, os.Stderr)
		}
		logging.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&sourceKind, "source", "", "catalog source: list, sqlite, http or sharepoint (default: SOURCE_KIND)",
	)
	rootCmd.PersistentFlags().IntVar(
		&pageSize, "page-size", 0, "items per page (default: PAGE_SIZE)",
	)

	rootCmd.AddCommand(seedCmd, pageCmd, browseCmd)
}
