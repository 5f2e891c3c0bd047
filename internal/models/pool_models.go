package models

import (
	"time"

	"github.com/omarshaarawi/poolpicks/internal/pool"
)

type WeekInfo struct {
	Season      int
	SeasonType  int
	Week        int
	LastUpdated time.Time
}

// Game is one NFL matchup of a week, keyed by its AWAY@HOME matchup.
type Game struct {
	ID         string
	Week       int
	Kickoff    time.Time
	Away       string
	Home       string
	AwayName   string
	HomeName   string
	AwayTeamID string
	HomeTeamID string
	AwayRecord string
	HomeRecord string
	AwayScore  int
	HomeScore  int
	Venue      string
	Line       string
	Status     string
	Completed  bool
	Winner     string
}

func (g Game) Matchup() string {
	return g.Away + "@" + g.Home
}

// Injury is one player on a team's injury report.
type Injury struct {
	Player   string
	Position string
	Status   string
	Detail   string
}

// Result is the decided winner of one game. A tie has an empty Winner.
type Result struct {
	Week   int
	Game   string
	Winner string
}

type Submission struct {
	ID            string
	Week          int
	Participant   string
	ConfidenceMax int
	Source        string
	CreatedAt     time.Time
	Picks         []pool.Pick
}

type PickOutcome string

const (
	OutcomePending PickOutcome = "pending"
	OutcomeCorrect PickOutcome = "correct"
	OutcomeWrong   PickOutcome = "wrong"
)

type GradedPick struct {
	pool.Pick
	Winner  string
	Outcome PickOutcome
}

// WeekScore uses reverse scoring: PointsLost sums the confidence of every
// wrong pick, so lower is better.
type WeekScore struct {
	Week        int
	Participant string
	Picks       []GradedPick
	Correct     int
	Wrong       int
	Pending     int
	PointsWon   int
	PointsLost  int
}

type Standing struct {
	Rank        int
	Participant string
	Weeks       int
	Correct     int
	Wrong       int
	PointsWon   int
	PointsLost  int
}
