package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omarshaarawi/poolpicks/internal/config"
	"github.com/omarshaarawi/poolpicks/internal/metrics"
	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
	"github.com/omarshaarawi/poolpicks/internal/prompt"
	"github.com/omarshaarawi/poolpicks/internal/report"
	"github.com/omarshaarawi/poolpicks/internal/repository/memory"
	"github.com/omarshaarawi/poolpicks/internal/repository/sqlite"
)

var ErrNoAnalyst = errors.New("no analysis provider configured")

const injuryFetchLimit = 4

type ScheduleAPI interface {
	GetCurrentWeek(ctx context.Context) (*models.WeekInfo, error)
	GetWeekGames(ctx context.Context, week int) ([]models.Game, error)
	GetWeekResults(ctx context.Context, week int) ([]models.Result, error)
	GetTeamInjuries(ctx context.Context, teamID string) ([]models.Injury, error)
}

type Analyst interface {
	Name() string
	Analyze(ctx context.Context, prompt string) (string, error)
}

type GridStore interface {
	LoadOrCreate(participant string) (*pool.Grid, error)
	Save(grid *pool.Grid) error
	Backup(path string) (string, error)
}

type History interface {
	SaveSubmission(ctx context.Context, sub *models.Submission) error
	LatestSubmission(ctx context.Context, week int, participant string) (*models.Submission, error)
	SaveResults(ctx context.Context, results []models.Result) error
	WeekScore(ctx context.Context, week int, participant string) (*models.WeekScore, error)
	Standings(ctx context.Context) ([]models.Standing, error)
}

// ValidationFailedError is returned by Commit when the picks are rejected;
// nothing has been written in that case.
type ValidationFailedError struct {
	Week   int
	Result pool.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("week %d picks failed validation with %d problem(s)", e.Week, len(e.Result.Errors))
}

func (e *ValidationFailedError) Unwrap() error {
	return e.Result.Err()
}

type CommitResult struct {
	Week         int
	Diff         pool.Diff
	Backup       string
	SubmissionID string
	Picks        []pool.Pick
}

type PoolService struct {
	cfg     *config.Config
	api     ScheduleAPI
	repo    *memory.Repository
	grid    GridStore
	history History
	analyst Analyst
	metrics *metrics.Metrics
	vocab   *pool.Vocabulary
	now     func() time.Time
}

func NewPoolService(cfg *config.Config, api ScheduleAPI, repo *memory.Repository, grid GridStore, history History, m *metrics.Metrics) (*PoolService, error) {
	vocab, err := LoadVocabulary(cfg.Files.VocabularyPath)
	if err != nil {
		return nil, err
	}
	return &PoolService{
		cfg:     cfg,
		api:     api,
		repo:    repo,
		grid:    grid,
		history: history,
		metrics: m,
		vocab:   vocab,
		now:     time.Now,
	}, nil
}

// WithAnalyst enables automated analysis.
func (s *PoolService) WithAnalyst(a Analyst) *PoolService {
	s.analyst = a
	return s
}

// LoadVocabulary returns the built-in team vocabulary merged with the
// aliases of an optional YAML file.
func LoadVocabulary(path string) (*pool.Vocabulary, error) {
	vocab := pool.DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	aliases, err := pool.ParseVocabulary(data)
	if err != nil {
		return nil, err
	}
	vocab.Merge(aliases)
	slog.Info("Loaded team aliases", "path", path, "count", len(aliases))
	return vocab, nil
}

func (s *PoolService) Vocabulary() *pool.Vocabulary {
	return s.vocab
}

func (s *PoolService) Layout() pool.Layout {
	return s.cfg.Pool.Layout()
}

func (s *PoolService) ScaleFor(week int) int {
	return s.cfg.Pool.ScaleFor(week)
}

func (s *PoolService) GetCurrentWeek(ctx context.Context) (int, error) {
	info := s.repo.GetWeek()
	if info == nil {
		start := time.Now()
		fresh, err := s.api.GetCurrentWeek(ctx)
		s.metrics.ObserveUpstream("espn", time.Since(start).Seconds())
		if err != nil {
			return 0, fmt.Errorf("error fetching current week: %w", err)
		}
		s.repo.SaveWeek(fresh)
		info = fresh
	}

	slog.Info("Current week", "week", info.Week)
	return info.Week, nil
}

func (s *PoolService) GetGames(ctx context.Context, week int) ([]models.Game, error) {
	if games, ok := s.repo.GetGames(week); ok {
		return games, nil
	}
	start := time.Now()
	games, err := s.api.GetWeekGames(ctx, week)
	s.metrics.ObserveUpstream("espn", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("error fetching games: %w", err)
	}
	s.repo.SaveGames(week, games)
	return games, nil
}

// ImportPicks parses analysis output and normalizes team names to codes.
func (s *PoolService) ImportPicks(data []byte) ([]pool.Pick, error) {
	picks, err := pool.ParsePicks(data)
	if err != nil {
		return nil, err
	}
	return pool.NormalizePicks(picks, s.vocab), nil
}

func (s *PoolService) Check(week int, picks []pool.Pick) pool.ValidationResult {
	result := pool.Validate(picks, s.ScaleFor(week), pool.WithVocabulary(s.vocab))
	s.metrics.Validation(result.Valid())
	if !result.Valid() {
		slog.Info("Picks rejected", "week", week, "problems", len(result.Errors))
	}
	return result
}

// Commit validates picks and writes them into the week's grid column. The
// workbook is backed up first and the submission is recorded in history.
// Invalid picks return a *ValidationFailedError and touch nothing.
func (s *PoolService) Commit(ctx context.Context, week int, picks []pool.Pick, source string) (*CommitResult, error) {
	result := s.Check(week, picks)
	set, err := result.PickSet()
	if err != nil {
		s.metrics.Commit(false, 0)
		return nil, &ValidationFailedError{Week: week, Result: result}
	}

	commit, err := s.commit(ctx, week, set, source)
	if err != nil {
		s.metrics.Commit(false, 0)
		return nil, err
	}
	s.metrics.Commit(true, len(commit.Diff))
	return commit, nil
}

func (s *PoolService) commit(ctx context.Context, week int, set pool.PickSet, source string) (*CommitResult, error) {
	grid, err := s.grid.LoadOrCreate(s.cfg.Pool.Participant)
	if err != nil {
		return nil, fmt.Errorf("loading grid: %w", err)
	}

	diff, err := grid.Apply(week, set)
	if err != nil {
		return nil, fmt.Errorf("applying week %d: %w", week, err)
	}

	out := &CommitResult{Week: week, Diff: diff, Picks: set.Picks()}
	if len(diff) > 0 {
		backup, err := s.grid.Backup(s.cfg.Files.BackupPath(s.now()))
		if err != nil {
			return nil, err
		}
		out.Backup = backup
		if err := s.grid.Save(grid); err != nil {
			return nil, fmt.Errorf("saving grid: %w", err)
		}
	}

	sub := &models.Submission{
		Week:          week,
		Participant:   s.cfg.Pool.Participant,
		ConfidenceMax: set.ConfidenceMax(),
		Source:        source,
		Picks:         out.Picks,
	}
	if err := s.history.SaveSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("grid saved but history not updated: %w", err)
	}
	out.SubmissionID = sub.ID

	slog.Info("Picks committed", "week", week, "cells", len(diff), "submission", sub.ID, "source", source)
	return out, nil
}

// WeekPicks reads a week back from the grid. Game and reasoning come from the
// latest recorded submission wherever its team and confidence still match.
func (s *PoolService) WeekPicks(ctx context.Context, week int) ([]pool.Pick, error) {
	grid, err := s.grid.LoadOrCreate(s.cfg.Pool.Participant)
	if err != nil {
		return nil, fmt.Errorf("loading grid: %w", err)
	}
	picks, err := grid.Extract(week, s.ScaleFor(week))
	if err != nil {
		return nil, err
	}

	sub, err := s.history.LatestSubmission(ctx, week, s.cfg.Pool.Participant)
	if errors.Is(err, sqlite.ErrNoSubmission) {
		return picks, nil
	}
	if err != nil {
		return nil, err
	}

	recorded := make(map[int]pool.Pick, len(sub.Picks))
	for _, p := range sub.Picks {
		recorded[p.Confidence] = p
	}
	for i, p := range picks {
		if r, ok := recorded[p.Confidence]; ok && strings.EqualFold(r.Team, p.Team) {
			picks[i].Game = r.Game
			picks[i].Reasoning = r.Reasoning
		}
	}
	return picks, nil
}

// Prompt builds the week's research prompt and saves it under the output
// directory.
func (s *PoolService) Prompt(ctx context.Context, week int) (string, string, error) {
	games, err := s.GetGames(ctx, week)
	if err != nil {
		return "", "", err
	}
	text, err := prompt.Build(s.cfg.ESPNAPI.Year, week, s.ScaleFor(week), games, s.injuries(ctx, games))
	if err != nil {
		return "", "", err
	}
	path := s.cfg.Files.PromptPath(week)
	if err := writeFile(path, text); err != nil {
		return "", "", err
	}
	return text, path, nil
}

// injuries fetches the injury report of every team on the slate. A team
// whose report cannot be fetched is left out of the prompt.
func (s *PoolService) injuries(ctx context.Context, games []models.Game) map[string][]models.Injury {
	var (
		mu     sync.Mutex
		byTeam = make(map[string][]models.Injury)
		teams  = make(map[string]string)
	)
	for _, g := range games {
		if g.AwayTeamID != "" {
			teams[g.Away] = g.AwayTeamID
		}
		if g.HomeTeamID != "" {
			teams[g.Home] = g.HomeTeamID
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(injuryFetchLimit)
	for team, id := range teams {
		eg.Go(func() error {
			start := time.Now()
			injuries, err := s.api.GetTeamInjuries(egCtx, id)
			s.metrics.ObserveUpstream("espn", time.Since(start).Seconds())
			if err != nil {
				slog.Warn("Skipping injury report", "team", team, "error", err)
				return nil
			}
			mu.Lock()
			byTeam[team] = injuries
			mu.Unlock()
			return nil
		})
	}
	eg.Wait()
	return byTeam
}

// Analyze runs the automated analyst on the week's prompt and returns the
// normalized picks with their validation result.
func (s *PoolService) Analyze(ctx context.Context, week int) ([]pool.Pick, pool.ValidationResult, error) {
	if s.analyst == nil {
		return nil, pool.ValidationResult{}, ErrNoAnalyst
	}

	text, _, err := s.Prompt(ctx, week)
	if err != nil {
		return nil, pool.ValidationResult{}, err
	}

	start := time.Now()
	raw, err := s.analyst.Analyze(ctx, text)
	s.metrics.ObserveUpstream("gemini", time.Since(start).Seconds())
	if err != nil {
		return nil, pool.ValidationResult{}, err
	}
	if err := writeFile(s.cfg.Files.AnalysisPath(week), raw); err != nil {
		return nil, pool.ValidationResult{}, err
	}

	picks, err := s.ImportPicks([]byte(raw))
	if err != nil {
		return nil, pool.ValidationResult{}, fmt.Errorf("analysis from %s: %w", s.analyst.Name(), err)
	}
	return picks, s.Check(week, picks), nil
}

// MergeAnalyses parses several analysis documents and merges them into one
// consensus pick set for the week.
func (s *PoolService) MergeAnalyses(week int, docs map[string][]byte) ([]pool.Pick, pool.ValidationResult, error) {
	analyses := make(map[string][]pool.Pick, len(docs))
	var errs []error
	for name, data := range docs {
		picks, err := s.ImportPicks(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		analyses[name] = picks
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, pool.ValidationResult{}, errors.Join(errs...)
	}

	picks := pool.Consensus(analyses, s.ScaleFor(week))
	return picks, s.Check(week, picks), nil
}

// RecordResults stores the week's final scores from ESPN and grades the
// latest submission.
func (s *PoolService) RecordResults(ctx context.Context, week int) (*models.WeekScore, error) {
	start := time.Now()
	results, err := s.api.GetWeekResults(ctx, week)
	s.metrics.ObserveUpstream("espn", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("error fetching results: %w", err)
	}
	return s.recordResults(ctx, week, results)
}

// RecordManualResults stores "GAME=WINNER" pairs, e.g. "KC@NYG=KC".
func (s *PoolService) RecordManualResults(ctx context.Context, week int, pairs []string) (*models.WeekScore, error) {
	results := make([]models.Result, 0, len(pairs))
	for _, pair := range pairs {
		game, winner, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(game) == "" {
			return nil, fmt.Errorf("result %q: expected GAME=WINNER", pair)
		}
		code := ""
		if strings.TrimSpace(winner) != "" {
			var err error
			if code, err = pool.NormalizeTeam(winner, s.vocab); err != nil {
				return nil, fmt.Errorf("result %q: %w", pair, err)
			}
		}
		normalized := pool.NormalizePicks([]pool.Pick{{Game: game}}, s.vocab)[0].Game
		results = append(results, models.Result{Week: week, Game: normalized, Winner: code})
	}
	return s.recordResults(ctx, week, results)
}

func (s *PoolService) recordResults(ctx context.Context, week int, results []models.Result) (*models.WeekScore, error) {
	if err := s.history.SaveResults(ctx, results); err != nil {
		return nil, err
	}
	slog.Info("Results recorded", "week", week, "games", len(results))

	score, err := s.history.WeekScore(ctx, week, s.cfg.Pool.Participant)
	if err != nil {
		return nil, err
	}
	return score, nil
}

// WeekReport renders and saves the tiered markdown report for a week.
func (s *PoolService) WeekReport(ctx context.Context, week int) (string, string, error) {
	picks, err := s.WeekPicks(ctx, week)
	if err != nil {
		return "", "", err
	}

	games, err := s.GetGames(ctx, week)
	if err != nil {
		slog.Error("Report without game lines", "week", week, "error", err)
		games = nil
	}

	text := report.WeekReport(week, s.ScaleFor(week), picks, games)
	path := s.cfg.Files.ReportPath(week)
	if err := writeFile(path, text); err != nil {
		return "", "", err
	}
	return text, path, nil
}

func (s *PoolService) GetStandings(ctx context.Context) (string, error) {
	standings, err := s.history.Standings(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching standings: %w", err)
	}
	return report.Standings(standings), nil
}

func (s *PoolService) GetGamesMessage(ctx context.Context) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	games, err := s.GetGames(ctx, week)
	if err != nil {
		return "", err
	}
	return report.Games(week, games), nil
}

func (s *PoolService) GetPicksMessage(ctx context.Context) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	picks, err := s.WeekPicks(ctx, week)
	if err != nil {
		return "", err
	}
	return report.Summary(week, picks), nil
}

// GetPromptMessage is the Tuesday push: the research prompt for the week.
func (s *PoolService) GetPromptMessage(ctx context.Context) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	text, _, err := s.Prompt(ctx, week)
	if err != nil {
		return "", err
	}
	return text, nil
}

// GetReminderMessage returns an empty message when the current week already
// has a submission.
func (s *PoolService) GetReminderMessage(ctx context.Context) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	_, err = s.history.LatestSubmission(ctx, week, s.cfg.Pool.Participant)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, sqlite.ErrNoSubmission) {
		return "", err
	}
	return fmt.Sprintf("⏰ *Week %d picks are not in yet.*\nSend /prompt for the research prompt, then paste the JSON with /check.", week), nil
}

// GetResultsMessage grades the previous week, which is complete by the time
// the results job runs.
func (s *PoolService) GetResultsMessage(ctx context.Context) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	if week > s.cfg.Pool.WeekMin {
		week--
	}
	score, err := s.RecordResults(ctx, week)
	if errors.Is(err, sqlite.ErrNoSubmission) {
		return fmt.Sprintf("No picks were recorded for week %d.", week), nil
	}
	if err != nil {
		return "", err
	}
	return report.WeekScore(*score), nil
}

// CheckMessage validates pasted JSON and renders the outcome for chat.
func (s *PoolService) CheckMessage(ctx context.Context, data []byte) (string, error) {
	week, err := s.GetCurrentWeek(ctx)
	if err != nil {
		return "", err
	}
	picks, err := s.ImportPicks(data)
	if err != nil {
		return "", err
	}
	result := s.Check(week, picks)
	if !result.Valid() {
		return report.Validation(week, result), nil
	}
	return report.Validation(week, result) + "\n" + report.Summary(week, picks), nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
