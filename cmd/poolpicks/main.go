package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/omarshaarawi/poolpicks/internal/api/espn"
	"github.com/omarshaarawi/poolpicks/internal/api/gemini"
	"github.com/omarshaarawi/poolpicks/internal/config"
	"github.com/omarshaarawi/poolpicks/internal/metrics"
	"github.com/omarshaarawi/poolpicks/internal/repository/memory"
	"github.com/omarshaarawi/poolpicks/internal/repository/sqlite"
	"github.com/omarshaarawi/poolpicks/internal/service"
	"github.com/omarshaarawi/poolpicks/internal/spreadsheet"
)

var version = "dev"

var (
	week    int
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "poolpicks",
	Short:         "Manage weekly NFL confidence pool picks",
	Long:          `poolpicks validates weekly confidence picks, writes them into the pool spreadsheet and keeps a graded history of every week.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Error loading .env file", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&week, "week", "w", 0, "NFL week (0 = current week from ESPN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(validateCmd, commitCmd, showCmd, consensusCmd)
	rootCmd.AddCommand(gamesCmd, promptCmd, analyzeCmd)
	rootCmd.AddCommand(resultsCmd, reportCmd, standingsCmd)
	rootCmd.AddCommand(serveCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Error running command", "error", err)
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     *config.Config
	svc     *service.PoolService
	history *sqlite.Store
	metrics *metrics.Metrics
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.Level()})))

	history, err := sqlite.Open(cfg.Files.DBPath)
	if err != nil {
		return nil, err
	}

	espnAPI := espn.NewAPI(espn.NewClient(cfg.ESPNAPI))
	grid := spreadsheet.NewStore(cfg.Files.GridPath, cfg.Files.GridSheet, cfg.Pool.Layout())
	m := metrics.New()

	svc, err := service.NewPoolService(cfg, espnAPI, memory.NewRepository(24*time.Hour), grid, history, m)
	if err != nil {
		history.Close()
		return nil, err
	}
	espnAPI.WithVocabulary(svc.Vocabulary())

	analyst, err := gemini.NewAnalyst(ctx, cfg.GenAI)
	switch {
	case errors.Is(err, gemini.ErrNoAPIKey):
		slog.Debug("Automated analysis disabled", "reason", err)
	case err != nil:
		history.Close()
		return nil, err
	default:
		svc.WithAnalyst(analyst)
	}

	return &app{cfg: cfg, svc: svc, history: history, metrics: m}, nil
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		slog.Error("Error closing history", "error", err)
	}
}

// withApp runs fn with a wired app and a context bounded by --timeout.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := newApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func (a *app) resolveWeek(ctx context.Context) (int, error) {
	if week != 0 {
		if week < a.cfg.Pool.WeekMin || week > a.cfg.Pool.WeekMax {
			return 0, fmt.Errorf("week %d outside %d..%d", week, a.cfg.Pool.WeekMin, a.cfg.Pool.WeekMax)
		}
		return week, nil
	}
	return a.svc.GetCurrentWeek(ctx)
}

// readInput reads a file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading picks: %w", err)
	}
	return data, nil
}
