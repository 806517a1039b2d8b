package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"medianav/application"
	"medianav/domain/media"
	"medianav/interfaces/tui"
	"medianav/logging"
)

var browseLogFile string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Scroll the catalog in a terminal list",
	Long: `Browse opens the catalog in a full-screen list driven by a window
controller. Arrow keys scroll and load further pages, g followed by a page
number and enter jumps, q quits.

Logs are written to --log-file, or discarded when it is empty.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// The list owns the terminal
		logger, closeLog, err := browseLogger()
		if err != nil {
			return err
		}
		defer closeLog()
		logging.SetDefault(logger)

		cat, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer cat.Close()

		orchestrator, err := application.NewPageOrchestrator(cat.source, nil, *appConfig.Paging)
		if err != nil {
			return err
		}
		defer orchestrator.Close()

		ctrl := application.NewWindowController[media.Item](orchestrator)
		defer ctrl.Close()

		browser := tui.NewBrowser(ctrl, orchestrator)
		defer browser.Close()
		ctrl.Start()

		program := tea.NewProgram(browser, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("run browser: %w", err)
		}
		return nil
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseLogFile, "log-file", "", "append logs to this file while browsing")
}

func browseLogger() (*logging.Logger, func(), error) {
	cfg := *appConfig.Logging
	if browseLogFile == "" {
		cfg.Output = "discard"
		return logging.NewLogger(&cfg), func() {}, nil
	}

	f, err := os.OpenFile(browseLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewLoggerWithWriter(&cfg, f), func() { f.Close() }, nil
}
