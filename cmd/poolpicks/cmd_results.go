package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/report"
)

var (
	manualResults []string
	render        bool
	renderWidth   int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Record final scores and grade the week",
	Long: `Fetch completed games from ESPN, or take them from --set, and grade the
latest submission for the week.

  poolpicks results --week 3
  poolpicks results --week 3 --set KC@NYG=KC --set MIA@BUF=BUF`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}

			var score *models.WeekScore
			if len(manualResults) > 0 {
				score, err = a.svc.RecordManualResults(ctx, w, manualResults)
			} else {
				score, err = a.svc.RecordResults(ctx, w)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.WeekScore(*score))
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the week's markdown report grouped by confidence tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}
			text, path, err := a.svc.WeekReport(ctx, w)
			if err != nil {
				return err
			}
			if render {
				if text, err = report.Render(text, renderWidth); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", path)
			return nil
		})
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Season standings, fewest points lost first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			text, err := a.svc.GetStandings(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		})
	},
}

func init() {
	resultsCmd.Flags().StringArrayVar(&manualResults, "set", nil, "Record a result by hand as GAME=WINNER (empty winner for a tie)")
	reportCmd.Flags().BoolVar(&render, "render", false, "Render the markdown for the terminal")
	reportCmd.Flags().IntVar(&renderWidth, "width", 100, "Word wrap width for --render")
}
