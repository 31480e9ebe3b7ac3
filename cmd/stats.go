package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jcaisse/curated-content-portal-sub001/internal/bootstrap"
	"github.com/jcaisse/curated-content-portal-sub001/internal/database"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/stats"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <crawler-id>",
		Short: "Print run statistics for the last hour, day and week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, err := commandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			db, err := bootstrap.SetupDatabase(ctx, deps.Config, deps.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()
			store := database.New(db)

			crawler, err := store.GetCrawler(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get crawler %s: %w", args[0], err)
			}

			now := time.Now().UTC()
			runs, err := store.ListRunsSince(ctx, crawler.ID, now.Add(-stats.Week))
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			renderStats(cmd.OutOrStdout(), crawler, stats.ForCrawler(runs, now))
			return nil
		},
	}
}

func renderStats(w io.Writer, crawler *domain.Crawler, st stats.CrawlerStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(crawler.Name)
	t.AppendHeader(table.Row{"Window", "Runs", "Pages", "Avg ms"})
	t.AppendRows([]table.Row{
		{"last hour", st.LastHour.Count, st.LastHour.Pages, fmt.Sprintf("%.0f", st.LastHour.AvgMs)},
		{"last day", st.LastDay.Count, st.LastDay.Pages, fmt.Sprintf("%.0f", st.LastDay.AvgMs)},
		{"last week", st.LastWeek.Count, st.LastWeek.Pages, fmt.Sprintf("%.0f", st.LastWeek.AvgMs)},
	})
	t.Render()
}
