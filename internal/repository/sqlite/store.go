// Package sqlite keeps the season's submission and result history.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
)

var ErrNoSubmission = errors.New("no submission recorded")

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			week INTEGER NOT NULL,
			participant TEXT NOT NULL,
			confidence_max INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_week ON submissions(week, participant, created_at);`,
		`CREATE TABLE IF NOT EXISTS picks (
			submission_id TEXT NOT NULL,
			game TEXT NOT NULL,
			team TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			PRIMARY KEY(submission_id, confidence)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			week INTEGER NOT NULL,
			matchup TEXT NOT NULL,
			game TEXT NOT NULL,
			winner TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY(week, matchup)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing history schema: %w", err)
		}
	}
	return nil
}

// SaveSubmission records a committed pick set. ID and CreatedAt are filled
// in when empty.
func (s *Store) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving submission: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions(id, week, participant, confidence_max, source, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Week, sub.Participant, sub.ConfidenceMax, sub.Source, sub.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("saving submission: %w", err)
	}

	for _, p := range sub.Picks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO picks(submission_id, game, team, confidence, reasoning) VALUES(?, ?, ?, ?, ?)`,
			sub.ID, p.Game, p.Team, p.Confidence, p.Reasoning)
		if err != nil {
			return fmt.Errorf("saving pick %d: %w", p.Confidence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving submission: %w", err)
	}
	return nil
}

// LatestSubmission returns the most recent submission for a week; later
// commits supersede earlier ones.
func (s *Store) LatestSubmission(ctx context.Context, week int, participant string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, week, participant, confidence_max, source, created_at FROM submissions
		 WHERE week = ? AND participant = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		week, participant)

	var (
		sub     models.Submission
		created string
	)
	if err := row.Scan(&sub.ID, &sub.Week, &sub.Participant, &sub.ConfidenceMax, &sub.Source, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("week %d for %s: %w", week, participant, ErrNoSubmission)
		}
		return nil, fmt.Errorf("loading submission: %w", err)
	}
	createdAt, err := time.Parse(timestampLayout, created)
	if err != nil {
		return nil, fmt.Errorf("submission %s has bad created_at %q: %w", sub.ID, created, err)
	}
	sub.CreatedAt = createdAt

	picks, err := s.picks(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.Picks = picks
	return &sub, nil
}

func (s *Store) picks(ctx context.Context, submissionID string) ([]pool.Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game, team, confidence, reasoning FROM picks WHERE submission_id = ? ORDER BY confidence DESC`,
		submissionID)
	if err != nil {
		return nil, fmt.Errorf("loading picks: %w", err)
	}
	defer rows.Close()

	var picks []pool.Pick
	for rows.Next() {
		var p pool.Pick
		if err := rows.Scan(&p.Game, &p.Team, &p.Confidence, &p.Reasoning); err != nil {
			return nil, fmt.Errorf("loading picks: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// SaveResults upserts game winners. Re-recording a matchup overwrites it,
// whichever side was listed first.
func (s *Store) SaveResults(ctx context.Context, results []models.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC().Format(timestampLayout)
	for _, r := range results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO results(week, matchup, game, winner, recorded_at) VALUES(?, ?, ?, ?, ?)
			 ON CONFLICT(week, matchup) DO UPDATE SET game = excluded.game, winner = excluded.winner, recorded_at = excluded.recorded_at`,
			r.Week, matchKey(r.Game), gameLabel(r.Game), r.Winner, now)
		if err != nil {
			return fmt.Errorf("saving result for %s: %w", r.Game, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Results(ctx context.Context, week int) ([]models.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game, winner FROM results WHERE week = ? ORDER BY game`, week)
	if err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		r := models.Result{Week: week}
		if err := rows.Scan(&r.Game, &r.Winner); err != nil {
			return nil, fmt.Errorf("loading results: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) WeekScore(ctx context.Context, week int, participant string) (*models.WeekScore, error) {
	sub, err := s.LatestSubmission(ctx, week, participant)
	if err != nil {
		return nil, err
	}
	results, err := s.Results(ctx, week)
	if err != nil {
		return nil, err
	}
	score := GradeWeek(week, participant, sub.Picks, results)
	return &score, nil
}

// Standings totals every participant's graded weeks, lowest points lost
// first.
func (s *Store) Standings(ctx context.Context) ([]models.Standing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT week, participant FROM submissions`)
	if err != nil {
		return nil, fmt.Errorf("loading standings: %w", err)
	}
	type key struct {
		week        int
		participant string
	}
	var keys []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.week, &k.participant); err != nil {
			rows.Close()
			return nil, fmt.Errorf("loading standings: %w", err)
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading standings: %w", err)
	}

	totals := make(map[string]*models.Standing)
	for _, k := range keys {
		score, err := s.WeekScore(ctx, k.week, k.participant)
		if err != nil {
			return nil, err
		}
		if score.Correct+score.Wrong == 0 {
			continue
		}
		st, ok := totals[k.participant]
		if !ok {
			st = &models.Standing{Participant: k.participant}
			totals[k.participant] = st
		}
		st.Weeks++
		st.Correct += score.Correct
		st.Wrong += score.Wrong
		st.PointsWon += score.PointsWon
		st.PointsLost += score.PointsLost
	}

	standings := make([]models.Standing, 0, len(totals))
	for _, st := range totals {
		standings = append(standings, *st)
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].PointsLost != standings[j].PointsLost {
			return standings[i].PointsLost < standings[j].PointsLost
		}
		if standings[i].Correct != standings[j].Correct {
			return standings[i].Correct > standings[j].Correct
		}
		return standings[i].Participant < standings[j].Participant
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings, nil
}
