package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/jast/internal/achievement"
	"github.com/nhle/jast/internal/datekey"
)

func newStatsCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion counts per day",
		Long:  "Show completion counts per day, over the last year unless --from/--to are given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := datekey.YearWindow(a.today())
			if err != nil {
				return err
			}
			if from != "" {
				if start, err = a.parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if end, err = a.parseDate(to); err != nil {
					return err
				}
			}
			if start > end {
				return fmt.Errorf("--from %s is after --to %s", datekey.Format(start), datekey.Format(end))
			}

			stats, err := a.store.GetYearlyStats(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			a.renderStats(stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "last day (inclusive)")
	return cmd
}

func newGraphCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show the yearly achievement graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := a.today()
			from, to, err := datekey.YearWindow(today)
			if err != nil {
				return err
			}
			stats, err := a.store.GetYearlyStats(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			grid, err := achievement.BuildGrid(stats, today)
			if err != nil {
				return err
			}

			total, completed := 0, 0
			for _, s := range stats {
				total += s.TotalCount
				completed += s.CompletedCount
			}

			fmt.Fprintln(a.out, a.styles.Header.Render(
				fmt.Sprintf("%d of %d todos done in the last year", completed, total)))
			a.renderGraph(grid)
			return nil
		},
	}
}

func newRebuildStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-stats",
		Short: "Recompute the per-day completion counts from the todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.RebuildDailyStats(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Daily stats rebuilt.")
			return nil
		},
	}
}
