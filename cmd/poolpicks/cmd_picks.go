package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omarshaarawi/poolpicks/internal/pool"
	"github.com/omarshaarawi/poolpicks/internal/report"
	"github.com/omarshaarawi/poolpicks/internal/service"
)

var (
	picksFile   string
	commitAfter bool
	outputFile  string
)

var errInvalidPicks = errors.New("picks are invalid")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a pick list without writing anything",
	Long: `Parse a pick list (JSON array, or an object with a "picks" array) and
report every problem with it at once.

  poolpicks validate -f week03.json
  cat analysis.json | poolpicks validate --week 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, picks, err := loadPicks(ctx, cmd, a)
			if err != nil {
				return err
			}
			result := a.svc.Check(w, picks)
			fmt.Fprint(cmd.OutOrStdout(), report.Validation(w, result))
			if !result.Valid() {
				return errInvalidPicks
			}
			return nil
		})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Validate a pick list and write it into the grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, picks, err := loadPicks(ctx, cmd, a)
			if err != nil {
				return err
			}
			return commitPicks(ctx, cmd, a, w, picks, "file")
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the picks recorded in the grid for a week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}
			picks, err := a.svc.WeekPicks(ctx, w)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Summary(w, picks))
			return nil
		})
	},
}

var consensusCmd = &cobra.Command{
	Use:   "consensus FILE...",
	Short: "Merge several analyses into one pick list",
	Long: `Each file is an analysis in the usual picks format. The winner of each
game is the side most sources picked; games are ranked by their average
confidence and renumbered from the top of the scale.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			w, err := a.resolveWeek(ctx)
			if err != nil {
				return err
			}
			docs := make(map[string][]byte, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading analysis: %w", err)
				}
				docs[filepath.Base(path)] = data
			}

			picks, result, err := a.svc.MergeAnalyses(w, docs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.Summary(w, picks))
			fmt.Fprint(out, report.Validation(w, result))

			if outputFile != "" {
				if err := writePicks(outputFile, w, picks); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved to %s\n", outputFile)
			}
			if commitAfter {
				return commitPicks(ctx, cmd, a, w, picks, "consensus")
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{validateCmd, commitCmd} {
		c.Flags().StringVarP(&picksFile, "file", "f", "-", "Pick list to read (- for stdin)")
	}
	consensusCmd.Flags().BoolVar(&commitAfter, "commit", false, "Write the merged picks into the grid")
	consensusCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Save the merged picks as JSON")
}

func loadPicks(ctx context.Context, cmd *cobra.Command, a *app) (int, []pool.Pick, error) {
	data, err := readInput(cmd, picksFile)
	if err != nil {
		return 0, nil, err
	}
	picks, err := a.svc.ImportPicks(data)
	if err != nil {
		return 0, nil, err
	}
	w, err := a.resolveWeek(ctx)
	if err != nil {
		return 0, nil, err
	}
	return w, picks, nil
}

func commitPicks(ctx context.Context, cmd *cobra.Command, a *app, w int, picks []pool.Pick, source string) error {
	out := cmd.OutOrStdout()
	result, err := a.svc.Commit(ctx, w, picks, source)
	var failed *service.ValidationFailedError
	if errors.As(err, &failed) {
		fmt.Fprint(out, report.Validation(w, failed.Result))
		return errInvalidPicks
	}
	if err != nil {
		return err
	}

	fmt.Fprint(out, report.Diff(w, result.Diff))
	if result.Backup != "" {
		fmt.Fprintf(out, "Backup: %s\n", result.Backup)
	}
	return nil
}

func writePicks(path string, w int, picks []pool.Pick) error {
	data, err := json.MarshalIndent(struct {
		Week  int         `json:"week"`
		Picks []pool.Pick `json:"picks"`
	}{w, picks}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing picks: %w", err)
	}
	return nil
}
