package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"medianav/application"
	"medianav/domain/events"
	"medianav/domain/media"
	"medianav/domain/paging"
)

var pageJSON bool

// failureWait bounds how long an empty page waits for its failure event.
const failureWait = 2 * time.Second

var pageCmd = &cobra.Command{
	Use:   "page N",
	Short: "Print one page of the catalog",
	Long: `Page loads page N (1-based) through a page orchestrator, the same path a
browse session takes, and prints the emitted window.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number < 1 {
			return fmt.Errorf("page must be a positive integer, got %q", args[0])
		}
		ctx := cmd.Context()

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

		var window paging.Window[media.Item]
		orchestrator.OnPageWindow(func(e events.PageWindowEvent[media.Item]) { window = e.Window })
		failures := make(chan error, 1)
		orchestrator.OnFetchFailed(func(e events.PageFetchFailedEvent) {
			select {
			case failures <- e.Err:
			default:
			}
		})

		if err := orchestrator.FetchPage(ctx, number-1); err != nil {
			return err
		}

		if len(window.Items) == 0 {
			select {
			case err := <-failures:
				return err
			case <-time.After(failureWait):
			}
			if total := orchestrator.TotalPages().Get(); number > total {
				return fmt.Errorf("%w: page %d of %d", paging.ErrInvalidPage, number, total)
			}
		}

		out := cmd.OutOrStdout()
		if pageJSON {
			return writePageJSON(out, number, orchestrator.TotalPages().Get(), window)
		}
		writePageTable(out, number, orchestrator.TotalPages().Get(), orchestrator.TotalCount().Get(), window)
		return nil
	},
}

func init() {
	pageCmd.Flags().BoolVar(&pageJSON, "json", false, "print the page as JSON")
}

type pageOutput struct {
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	StartIndex int          `json:"startIndex"`
	Items      []media.Item `json:"items"`
}

func writePageJSON(out io.Writer, number, totalPages int, window paging.Window[media.Item]) error {
	items := make([]media.Item, len(window.Items))
	for i, item := range window.Items {
		items[i] = item.Value
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pageOutput{Page: number, TotalPages: totalPages, StartIndex: window.StartIndex, Items: items}); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	return nil
}

func writePageTable(out io.Writer, number, totalPages, totalCount int, window paging.Window[media.Item]) {
	rows := make([][]string, len(window.Items))
	for i, item := range window.Items {
		rows[i] = []string{
			strconv.Itoa(item.Index + 1),
			item.Value.Title,
			string(item.Value.Kind),
			strconv.Itoa(item.Value.Year),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "TITLE", "KIND", "YEAR").
		Rows(rows...)

	fmt.Fprintf(out, "page %d/%d (%d entries)\n", number, totalPages, totalCount)
	fmt.Fprintln(out, t.Render())
}
