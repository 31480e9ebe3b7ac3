package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jcaisse/curated-content-portal-sub001/internal/bootstrap"
	"github.com/jcaisse/curated-content-portal-sub001/internal/crawl"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

func newCrawlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <crawler-id>",
		Short: "Run one crawl synchronously and print the finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := commandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			app, err := bootstrap.NewApp(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer app.Close()

			run, err := app.Services.Controller.Run(cmd.Context(), args[0])
			if run != nil {
				renderRun(cmd.OutOrStdout(), run)
			}
			if err != nil && !errors.Is(err, crawl.ErrRunFailed) {
				return fmt.Errorf("crawl %s: %w", args[0], err)
			}
			return err
		},
	}
}

func renderRun(w io.Writer, run *domain.CrawlRun) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Status", "Processed", "Queued", "Duration", "Error"})

	duration := "-"
	if d, ok := run.Duration(); ok {
		duration = d.Round(time.Millisecond).String()
	}
	errMsg := ""
	if run.ErrorMessage != nil {
		errMsg = *run.ErrorMessage
	}

	t.AppendRow(table.Row{run.ID, run.Status, run.ItemsProcessed, run.ItemsQueued, duration, errMsg})
	t.Render()
}
