// Package prompt builds the weekly research prompt sent to an analyst.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
)

// researchTemplate is the text/template for a week's analysis request.
const researchTemplate = `You are helping with a weekly NFL confidence pool for week {{.Week}} of the {{.Season}} season.

Rank every game below by how confident you are in the winner. Assign each
game a unique confidence value from {{.ConfidenceMax}} (most confident) down to 1.
There are {{.ConfidenceMax}} values and {{len .Games}} games; pick exactly {{.ConfidenceMax}} games.

## Games
{{range .Games}}- {{.Matchup}}{{if .AwayName}} ({{.AwayName}} at {{.HomeName}}){{end}}{{if .Line}}, line {{.Line}}{{end}}{{if not .Kickoff.IsZero}}, {{kickoff .Kickoff}}{{end}}
{{end}}{{if .Injuries}}
## Injury report
{{range .Injuries}}- {{.Team}}: {{join .Players "; "}}
{{end}}{{end}}
## Strategy
{{range .Tiers}}- {{.Name}} confidence ({{.High}}-{{.Low}}): {{tierAdvice .Name}}
{{end}}
Consider injuries, weather, rest and travel, and situational spots.

## Required JSON format
Respond with JSON only, using the team codes exactly as listed above:
` + "```json" + `
{
  "week": {{.Week}},
  "picks": [
    {"game": "{{.Example.Matchup}}", "team": "{{.Example.Away}}", "confidence": {{.ConfidenceMax}}, "reasoning": "why this pick is safe"}
  ]
}
` + "```" + `
`

var tmpl = template.Must(template.New("research").Funcs(template.FuncMap{
	"join":       strings.Join,
	"kickoff":    formatKickoff,
	"tierAdvice": tierAdvice,
}).Parse(researchTemplate))

type data struct {
	Week          int
	Season        int
	ConfidenceMax int
	Games         []models.Game
	Tiers         []pool.Tier
	Injuries      []teamInjuries
	Example       models.Game
}

type teamInjuries struct {
	Team    string
	Players []string
}

// Build renders the research prompt for a week. injuries is keyed by team
// code and may be nil.
func Build(season, week, confidenceMax int, games []models.Game, injuries map[string][]models.Injury) (string, error) {
	if len(games) == 0 {
		return "", fmt.Errorf("building prompt: no games for week %d", week)
	}
	if confidenceMax <= 0 {
		return "", fmt.Errorf("building prompt: %w", pool.ErrInvalidConfidenceMax)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data{
		Week:          week,
		Season:        season,
		ConfidenceMax: confidenceMax,
		Games:         games,
		Tiers:         pool.Tiers(confidenceMax),
		Injuries:      injuryReport(games, injuries),
		Example:       games[0],
	})
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}
	return buf.String(), nil
}

// injuryReport lists injured players per team in slate order.
func injuryReport(games []models.Game, injuries map[string][]models.Injury) []teamInjuries {
	var report []teamInjuries
	seen := make(map[string]bool)
	for _, g := range games {
		for _, team := range []string{g.Away, g.Home} {
			if seen[team] || len(injuries[team]) == 0 {
				continue
			}
			seen[team] = true

			players := make([]string, 0, len(injuries[team]))
			for _, in := range injuries[team] {
				line := in.Player
				if in.Position != "" {
					line += " (" + in.Position + ")"
				}
				line += " " + in.Status
				if in.Detail != "" {
					line += ", " + in.Detail
				}
				players = append(players, line)
			}
			report = append(report, teamInjuries{Team: team, Players: players})
		}
	}
	return report
}

func formatKickoff(t time.Time) string {
	return t.Format("Mon Jan 2 3:04 PM MST")
}

func tierAdvice(name string) string {
	switch name {
	case "High":
		return "the safest games, clear favorites with no major injury or weather risk"
	case "Medium":
		return "value plays where the public may be wrong"
	default:
		return "coin flips and upside plays"
	}
}
