package espn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
)

const regularSeason = 2

var ErrWeekNotFound = errors.New("no games found for week")

type API struct {
	client     *Client
	vocabulary *pool.Vocabulary
}

func NewAPI(client *Client) *API {
	return &API{client: client, vocabulary: pool.DefaultVocabulary()}
}

// WithVocabulary maps ESPN abbreviations through v, typically the pool's
// merged vocabulary, so custom aliases apply to fetched games too.
func (a *API) WithVocabulary(v *pool.Vocabulary) *API {
	if v != nil {
		a.vocabulary = v
	}
	return a
}

func (a *API) GetCurrentWeek(ctx context.Context) (*models.WeekInfo, error) {
	var scoreboard models.ScoreboardResponse
	if err := a.client.Get(ctx, "/scoreboard", nil, nil, &scoreboard); err != nil {
		return nil, fmt.Errorf("fetching current week: %w", err)
	}

	if scoreboard.Week.Number == 0 {
		return nil, fmt.Errorf("fetching current week: scoreboard has no week number")
	}

	return &models.WeekInfo{
		Season:      scoreboard.Season.Year,
		SeasonType:  scoreboard.Season.Type,
		Week:        scoreboard.Week.Number,
		LastUpdated: time.Now(),
	}, nil
}

func (a *API) GetWeekGames(ctx context.Context, week int) ([]models.Game, error) {
	var scoreboard models.ScoreboardResponse
	params := map[string]string{
		"dates":      strconv.Itoa(a.client.Config.Year),
		"seasontype": strconv.Itoa(regularSeason),
		"week":       strconv.Itoa(week),
	}

	if err := a.client.Get(ctx, "/scoreboard", params, nil, &scoreboard); err != nil {
		return nil, fmt.Errorf("fetching week %d schedule: %w", week, err)
	}

	if len(scoreboard.Events) == 0 {
		return nil, fmt.Errorf("week %d: %w", week, ErrWeekNotFound)
	}

	games := make([]models.Game, 0, len(scoreboard.Events))
	for _, event := range scoreboard.Events {
		game, ok := a.toGame(event, week)
		if !ok {
			continue
		}
		games = append(games, game)
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Kickoff.Before(games[j].Kickoff)
	})

	return games, nil
}

// GetWeekResults returns winners of the week's completed games only.
func (a *API) GetWeekResults(ctx context.Context, week int) ([]models.Result, error) {
	games, err := a.GetWeekGames(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("fetching results: %w", err)
	}

	var results []models.Result
	for _, game := range games {
		if !game.Completed {
			continue
		}
		results = append(results, models.Result{
			Week:   week,
			Game:   game.Matchup(),
			Winner: game.Winner,
		})
	}
	return results, nil
}

func (a *API) toGame(event models.Event, week int) (models.Game, bool) {
	if len(event.Competitions) == 0 {
		return models.Game{}, false
	}
	comp := event.Competitions[0]

	game := models.Game{
		ID:        event.ID,
		Week:      week,
		Kickoff:   parseKickoff(event.Date),
		Venue:     comp.Venue.FullName,
		Status:    event.Status.Type.Description,
		Completed: event.Status.Type.Completed,
	}
	if event.Week.Number != 0 {
		game.Week = event.Week.Number
	}
	if len(comp.Odds) > 0 {
		game.Line = comp.Odds[0].Details
	}

	for _, c := range comp.Competitors {
		code := a.teamCode(c.Team.Abbreviation)
		score, _ := strconv.Atoi(c.Score)
		record := overallRecord(c.Records)

		switch c.HomeAway {
		case "home":
			game.Home, game.HomeName, game.HomeScore, game.HomeRecord = code, c.Team.DisplayName, score, record
			game.HomeTeamID = c.Team.ID
		case "away":
			game.Away, game.AwayName, game.AwayScore, game.AwayRecord = code, c.Team.DisplayName, score, record
			game.AwayTeamID = c.Team.ID
		}
		if c.Winner {
			game.Winner = code
		}
	}

	if game.Home == "" || game.Away == "" {
		return models.Game{}, false
	}
	return game, true
}

func (a *API) teamCode(abbreviation string) string {
	if code, ok := a.vocabulary.Lookup(abbreviation); ok {
		return code
	}
	return strings.ToUpper(abbreviation)
}

func overallRecord(records []models.Record) string {
	for _, r := range records {
		if r.Type == "total" || r.Type == "overall" {
			return r.Summary
		}
	}
	if len(records) > 0 {
		return records[0].Summary
	}
	return ""
}

// ESPN sends kickoff times without seconds.
func parseKickoff(date string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return t
		}
	}
	return time.Time{}
}
