package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/poolpicks/internal/config"
	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
)

const weekThree = `{
  "season": {"year": 2025, "type": 2},
  "week": {"number": 3},
  "events": [
    {
      "id": "401",
      "date": "2025-09-21T20:25Z",
      "shortName": "KC @ NYG",
      "week": {"number": 3},
      "status": {"type": {"name": "STATUS_FINAL", "state": "post", "completed": true, "description": "Final"}},
      "competitions": [{
        "venue": {"fullName": "MetLife Stadium"},
        "odds": [{"details": "KC -6.5", "overUnder": 44.5}],
        "competitors": [
          {"homeAway": "home", "winner": false, "score": "9", "team": {"id": "19", "abbreviation": "NYG", "displayName": "New York Giants"}, "records": [{"type": "total", "summary": "0-3"}]},
          {"homeAway": "away", "winner": true, "score": "22", "team": {"id": "12", "abbreviation": "KC", "displayName": "Kansas City Chiefs"}, "records": [{"type": "total", "summary": "1-2"}]}
        ]
      }]
    },
    {
      "id": "402",
      "date": "2025-09-18T00:15Z",
      "shortName": "MIA @ BUF",
      "status": {"type": {"name": "STATUS_FINAL", "completed": true, "description": "Final"}},
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "winner": true, "score": "31", "team": {"abbreviation": "BUF"}},
          {"homeAway": "away", "winner": false, "score": "21", "team": {"abbreviation": "MIA"}}
        ]
      }]
    },
    {
      "id": "403",
      "date": "2025-09-22T00:20Z",
      "shortName": "WSH @ DAL",
      "status": {"type": {"name": "STATUS_SCHEDULED", "completed": false, "description": "Scheduled"}},
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "score": "0", "team": {"abbreviation": "DAL"}},
          {"homeAway": "away", "score": "0", "team": {"abbreviation": "WSH"}}
        ]
      }]
    },
    {"id": "404", "date": "2025-09-22T00:20Z", "competitions": []}
  ]
}`

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAPI(NewClient(config.ESPNAPI{Year: 2025, BaseURL: server.URL}))
}

func TestGetWeekGames(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scoreboard", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("week"))
		assert.Equal(t, "2025", r.URL.Query().Get("dates"))
		assert.Equal(t, "2", r.URL.Query().Get("seasontype"))
		w.Write([]byte(weekThree))
	})

	games, err := api.GetWeekGames(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "MIA@BUF", games[0].Matchup())
	assert.Equal(t, "KC@NYG", games[1].Matchup())
	assert.Equal(t, "WAS@DAL", games[2].Matchup())

	kc := games[1]
	assert.Equal(t, "401", kc.ID)
	assert.Equal(t, 3, kc.Week)
	assert.Equal(t, time.Date(2025, 9, 21, 20, 25, 0, 0, time.UTC), kc.Kickoff.UTC())
	assert.Equal(t, 22, kc.AwayScore)
	assert.Equal(t, 9, kc.HomeScore)
	assert.Equal(t, "KC", kc.Winner)
	assert.Equal(t, "KC -6.5", kc.Line)
	assert.Equal(t, "1-2", kc.AwayRecord)
	assert.Equal(t, "MetLife Stadium", kc.Venue)
	assert.Equal(t, "12", kc.AwayTeamID)
	assert.Equal(t, "19", kc.HomeTeamID)
	assert.True(t, kc.Completed)

	assert.False(t, games[2].Completed)
	assert.Empty(t, games[2].Winner)
}

func TestGetWeekGamesCustomVocabulary(t *testing.T) {
	vocab := pool.DefaultVocabulary()
	vocab.Add("WSH", "WFT")

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(weekThree))
	}).WithVocabulary(vocab)

	games, err := api.GetWeekGames(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "WFT@DAL", games[2].Matchup())
	assert.Equal(t, "KC@NYG", games[1].Matchup())
}

func TestGetWeekResults(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(weekThree))
	})

	results, err := api.GetWeekResults(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []models.Result{
		{Week: 3, Game: "MIA@BUF", Winner: "BUF"},
		{Week: 3, Game: "KC@NYG", Winner: "KC"},
	}, results)
}

func TestGetCurrentWeek(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("week"))
		w.Write([]byte(weekThree))
	})

	info, err := api.GetCurrentWeek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, info.Week)
	assert.Equal(t, 2025, info.Season)
}

func TestGetWeekGamesErrors(t *testing.T) {
	t.Run("empty week", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"week":{"number":19},"events":[]}`))
		})
		_, err := api.GetWeekGames(context.Background(), 19)
		assert.ErrorIs(t, err, ErrWeekNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream unavailable"))
		})
		_, err := api.GetWeekGames(context.Background(), 3)
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		assert.Equal(t, "/scoreboard", se.URL)
		assert.Equal(t, "upstream unavailable", se.Body)
	})

	t.Run("bad body", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		})
		_, err := api.GetCurrentWeek(context.Background())
		assert.ErrorContains(t, err, "error decoding response")
	})
}
