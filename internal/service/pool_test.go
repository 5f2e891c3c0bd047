package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/poolpicks/internal/config"
	"github.com/omarshaarawi/poolpicks/internal/metrics"
	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
	"github.com/omarshaarawi/poolpicks/internal/repository/memory"
	"github.com/omarshaarawi/poolpicks/internal/repository/sqlite"
	"github.com/omarshaarawi/poolpicks/internal/spreadsheet"
)

var clubs = []string{
	"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE",
	"DAL", "DEN", "DET", "GB", "HOU", "IND", "JAX", "KC",
	"LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
	"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WAS",
}

type fakeSchedule struct {
	week    int
	games   []models.Game
	results []models.Result
	calls   int
	err     error

	mu       sync.Mutex
	injuries map[string][]models.Injury
	injured  []string
}

func (f *fakeSchedule) GetCurrentWeek(ctx context.Context) (*models.WeekInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.WeekInfo{Week: f.week, LastUpdated: time.Now()}, nil
}

func (f *fakeSchedule) GetWeekGames(ctx context.Context, week int) ([]models.Game, error) {
	f.calls++
	return f.games, f.err
}

func (f *fakeSchedule) GetWeekResults(ctx context.Context, week int) ([]models.Result, error) {
	f.calls++
	return f.results, f.err
}

func (f *fakeSchedule) GetTeamInjuries(ctx context.Context, teamID string) ([]models.Injury, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.injured = append(f.injured, teamID)
	injuries, ok := f.injuries[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: not found", teamID)
	}
	return injuries, nil
}

type fakeAnalyst struct {
	response string
	prompts  []string
}

func (f *fakeAnalyst) Name() string { return "fake" }

func (f *fakeAnalyst) Analyze(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, nil
}

// slate returns n games and a valid pick set taking every home team.
func slate(week, n int) ([]models.Game, []pool.Pick) {
	games := make([]models.Game, n)
	picks := make([]pool.Pick, n)
	for i := 0; i < n; i++ {
		away, home := clubs[i], clubs[i+1]
		games[i] = models.Game{Week: week, Away: away, Home: home}
		picks[i] = pool.Pick{Game: away + "@" + home, Team: home, Confidence: n - i}
	}
	return games, picks
}

type harness struct {
	svc     *PoolService
	cfg     *config.Config
	api     *fakeSchedule
	grid    *spreadsheet.Store
	history *sqlite.Store
	analyst *fakeAnalyst
	ctx     context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Pool: config.Pool{
			ConfidenceMax: 20,
			WeekMin:       1,
			WeekMax:       18,
			WeekScales:    map[int]int{14: 14, 18: 17},
			Participant:   "Alex",
		},
		Files: config.Files{
			GridPath:  filepath.Join(dir, "picks.xlsx"),
			GridSheet: "Picks",
			OutputDir: filepath.Join(dir, "output"),
		},
		ESPNAPI: config.ESPNAPI{Year: 2025},
	}

	history, err := sqlite.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	games, _ := slate(3, 16)
	api := &fakeSchedule{week: 3, games: games}
	grid := spreadsheet.NewStore(cfg.Files.GridPath, cfg.Files.GridSheet, cfg.Pool.Layout())

	svc, err := NewPoolService(cfg, api, memory.NewRepository(time.Hour), grid, history, metrics.New())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 9, 17, 8, 30, 0, 0, time.UTC) }

	analyst := &fakeAnalyst{}
	svc.WithAnalyst(analyst)

	return &harness{svc: svc, cfg: cfg, api: api, grid: grid, history: history, analyst: analyst, ctx: context.Background()}
}

func picksJSON(t *testing.T, picks []pool.Pick) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"picks": picks})
	require.NoError(t, err)
	return data
}

func TestCommitWritesGridAndHistory(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)

	result, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)
	assert.Len(t, result.Diff, 20)
	assert.Empty(t, result.Backup, "no workbook existed to back up")
	assert.NotEmpty(t, result.SubmissionID)

	grid, err := h.grid.Load()
	require.NoError(t, err)
	assert.Equal(t, clubs[1], grid.Cell(pool.Cell{Row: 3, Col: 4}))

	sub, err := h.history.LatestSubmission(h.ctx, 3, "Alex")
	require.NoError(t, err)
	assert.Equal(t, "manual", sub.Source)
	assert.Len(t, sub.Picks, 20)
}

func TestCommitBacksUpExistingWorkbook(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	picks[0].Team = "ARI"
	result, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)
	require.Len(t, result.Diff, 1)
	assert.Equal(t, "ATL", result.Diff[0].Before)
	assert.Equal(t, "ARI", result.Diff[0].After)

	require.NotEmpty(t, result.Backup)
	assert.FileExists(t, result.Backup)
	assert.Contains(t, result.Backup, "grid_backup_20250917_083000.xlsx")
}

func TestCommitUnchangedSkipsWrite(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	result, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)
	assert.Empty(t, result.Diff)
	assert.Empty(t, result.Backup)
}

func TestCommitRejectsInvalidPicks(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	picks[1].Confidence = picks[0].Confidence

	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")

	var failed *ValidationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 3, failed.Week)
	assert.Len(t, failed.Result.Errors, 2)

	var dup *pool.DuplicateConfidenceError
	assert.ErrorAs(t, err, &dup)

	assert.NoFileExists(t, h.cfg.Files.GridPath)
	_, err = h.history.LatestSubmission(h.ctx, 3, "Alex")
	assert.ErrorIs(t, err, sqlite.ErrNoSubmission)
}

func TestCommitUsesWeekScale(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(14, 14)

	result, err := h.svc.Commit(h.ctx, 14, picks, "manual")
	require.NoError(t, err)
	assert.Len(t, result.Diff, 14)

	_, twenty := slate(14, 20)
	_, err = h.svc.Commit(h.ctx, 14, twenty, "manual")
	var failed *ValidationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 14, failed.Result.ConfidenceMax)
}

func TestWeekPicksJoinsHistory(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	picks[0].Reasoning = "home favorite"
	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	got, err := h.svc.WeekPicks(h.ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 20)
	assert.Equal(t, 20, got[0].Confidence)
	assert.Equal(t, picks[0].Game, got[0].Game)
	assert.Equal(t, "home favorite", got[0].Reasoning)

	blank, err := h.svc.WeekPicks(h.ctx, 4)
	require.NoError(t, err)
	require.Len(t, blank, 20)
	for _, p := range blank {
		assert.Empty(t, p.Team)
	}
}

func TestImportNormalizesTeams(t *testing.T) {
	h := newHarness(t)
	data := []byte("```json\n" + `{"picks":[{"game":"Chiefs at Giants","team":"chiefs","confidence":"2"},{"game":"Miami @ Buffalo","team":"Bills","confidence":1}]}` + "\n```")

	picks, err := h.svc.ImportPicks(data)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.Equal(t, "KC", picks[0].Team)
	assert.Equal(t, "MIA@BUF", picks[1].Game)
	assert.Equal(t, "BUF", picks[1].Team)
}

func TestCustomVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Big Red: KC\n"), 0o644))

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)
	code, ok := vocab.Lookup("big red")
	assert.True(t, ok)
	assert.Equal(t, "KC", code)

	_, err = LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCurrentWeekIsCached(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		week, err := h.svc.GetCurrentWeek(h.ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, week)
	}
	_, err := h.svc.GetGames(h.ctx, 3)
	require.NoError(t, err)
	_, err = h.svc.GetGames(h.ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, h.api.calls)
}

func TestPromptIsSaved(t *testing.T) {
	h := newHarness(t)

	text, path, err := h.svc.Prompt(h.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, h.cfg.Files.PromptPath(3), path)
	assert.Contains(t, text, "ARI@ATL")

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(saved))
}

func TestPromptIncludesInjuries(t *testing.T) {
	h := newHarness(t)
	h.api.games[0].AwayTeamID = "22"
	h.api.games[0].HomeTeamID = "1"
	h.api.games[1].HomeTeamID = "33"
	h.api.injuries = map[string][]models.Injury{
		"22": {{Player: "Kyler Murray", Position: "QB", Status: "Questionable", Detail: "Foot"}},
		"1":  nil,
	}

	text, _, err := h.svc.Prompt(h.ctx, 3)
	require.NoError(t, err)
	assert.Contains(t, text, "## Injury report\n- ARI: Kyler Murray (QB) Questionable, Foot\n")
	assert.NotContains(t, text, "BAL:")
	assert.ElementsMatch(t, []string{"22", "1", "33"}, h.api.injured)
}

func TestAnalyze(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	h.analyst.response = string(picksJSON(t, picks))

	got, result, err := h.svc.Analyze(h.ctx, 3)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors)
	assert.Len(t, got, 20)
	require.Len(t, h.analyst.prompts, 1)
	assert.FileExists(t, h.cfg.Files.AnalysisPath(3))

	h.svc.analyst = nil
	_, _, err = h.svc.Analyze(h.ctx, 3)
	assert.ErrorIs(t, err, ErrNoAnalyst)
}

func TestMergeAnalyses(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	flipped := append([]pool.Pick(nil), picks...)
	flipped[19].Team = clubs[19]

	merged, result, err := h.svc.MergeAnalyses(3, map[string][]byte{
		"a": picksJSON(t, picks),
		"b": picksJSON(t, picks),
		"c": picksJSON(t, flipped),
	})
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors)
	assert.Len(t, merged, 20)

	_, _, err = h.svc.MergeAnalyses(3, map[string][]byte{"broken": []byte("no json here")})
	assert.ErrorContains(t, err, "broken")
}

func TestRecordResultsGradesSubmission(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	h.api.results = []models.Result{
		{Week: 3, Game: picks[0].Game, Winner: picks[0].Team},
		{Week: 3, Game: picks[1].Game, Winner: clubs[1]},
	}
	score, err := h.svc.RecordResults(h.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 1, score.Wrong)
	assert.Equal(t, 19, score.PointsLost)
	assert.Equal(t, 18, score.Pending)

	standings, err := h.svc.GetStandings(h.ctx)
	require.NoError(t, err)
	assert.Contains(t, standings, "*Alex*")
	assert.Contains(t, standings, "Points lost: 19")
}

func TestRecordManualResults(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	score, err := h.svc.RecordManualResults(h.ctx, 3, []string{
		"Arizona@Atlanta=Falcons",
		"ATL@BAL=",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 1, score.Wrong, "a tie is graded as a miss")
	assert.Equal(t, 19, score.PointsLost)

	_, err = h.svc.RecordManualResults(h.ctx, 3, []string{"ARI@ATL"})
	assert.ErrorContains(t, err, "GAME=WINNER")

	_, err = h.svc.RecordManualResults(h.ctx, 3, []string{"ARI@ATL=Zzyzx"})
	var unknown *pool.UnknownTeamError
	assert.ErrorAs(t, err, &unknown)
}

func TestWeekReport(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)
	_, err := h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	text, path, err := h.svc.WeekReport(h.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, h.cfg.Files.ReportPath(3), path)
	assert.Contains(t, text, "## High Confidence (20-16)")
	assert.FileExists(t, path)
}

func TestReminderMessage(t *testing.T) {
	h := newHarness(t)

	msg, err := h.svc.GetReminderMessage(h.ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "Week 3 picks are not in yet")

	_, picks := slate(3, 20)
	_, err = h.svc.Commit(h.ctx, 3, picks, "manual")
	require.NoError(t, err)

	msg, err = h.svc.GetReminderMessage(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestResultsMessageGradesPreviousWeek(t *testing.T) {
	h := newHarness(t)

	msg, err := h.svc.GetResultsMessage(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, "No picks were recorded for week 2.", msg)

	_, picks := slate(2, 20)
	_, err = h.svc.Commit(h.ctx, 2, picks, "manual")
	require.NoError(t, err)
	h.api.results = []models.Result{{Week: 2, Game: picks[0].Game, Winner: picks[0].Team}}

	msg, err = h.svc.GetResultsMessage(h.ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "Week 2 Results for Alex")
}

func TestCheckMessage(t *testing.T) {
	h := newHarness(t)
	_, picks := slate(3, 20)

	msg, err := h.svc.CheckMessage(h.ctx, picksJSON(t, picks))
	require.NoError(t, err)
	assert.Contains(t, msg, "✅ Week 3 picks are valid")

	msg, err = h.svc.CheckMessage(h.ctx, picksJSON(t, picks[:5]))
	require.NoError(t, err)
	assert.Contains(t, msg, "rejected")

	_, err = h.svc.CheckMessage(h.ctx, []byte("nothing"))
	assert.Error(t, err)
}

func TestUpstreamErrors(t *testing.T) {
	h := newHarness(t)
	h.api.err = errors.New("boom")

	_, err := h.svc.GetCurrentWeek(h.ctx)
	assert.ErrorContains(t, err, "boom")
	_, err = h.svc.RecordResults(h.ctx, 3)
	assert.ErrorContains(t, err, fmt.Sprintf("error fetching results: %s", "boom"))
}
