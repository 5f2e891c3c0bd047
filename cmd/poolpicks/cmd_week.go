package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omarshaarawi/poolpicks/internal/report"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the week's games with lines and kickoffs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}
			games, err := a.svc.GetGames(ctx, w)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Games(w, games))
			return nil
		})
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Build the research prompt for the week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}
			text, path, err := a.svc.Prompt(ctx, w)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", path)
			return nil
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ask Gemini for the week's picks and validate them",
	Long: `Send the week's research prompt to Gemini (GEMINI_API_KEY), save the raw
answer next to the prompt and validate the picks it returns. With --commit
valid picks are written into the grid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}
			picks, result, err := a.svc.Analyze(ctx, w)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.Summary(w, picks))
			fmt.Fprint(out, report.Validation(w, result))
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", a.cfg.Files.AnalysisPath(w))

			if !result.Valid() {
				return errInvalidPicks
			}
			if commitAfter {
				return commitPicks(ctx, cmd, a, w, picks, "gemini")
			}
			return nil
		})
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&commitAfter, "commit", false, "Write valid picks into the grid")
}
