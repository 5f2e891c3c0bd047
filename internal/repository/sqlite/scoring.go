package sqlite

import (
	"sort"
	"strings"

	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
)

// GradeWeek scores picks against recorded results. A game with no result
// stays pending; a recorded tie (empty winner) counts as a miss.
func GradeWeek(week int, participant string, picks []pool.Pick, results []models.Result) models.WeekScore {
	winners := make(map[string]string, len(results))
	for _, r := range results {
		winners[matchKey(r.Game)] = strings.ToUpper(strings.TrimSpace(r.Winner))
	}

	score := models.WeekScore{Week: week, Participant: participant}
	for _, p := range picks {
		graded := models.GradedPick{Pick: p, Outcome: models.OutcomePending}

		winner, decided := winners[matchKey(p.Game)]
		switch {
		case !decided:
			score.Pending++
		case winner != "" && winner == strings.ToUpper(strings.TrimSpace(p.Team)):
			graded.Winner = winner
			graded.Outcome = models.OutcomeCorrect
			score.Correct++
			score.PointsWon += p.Confidence
		default:
			graded.Winner = winner
			graded.Outcome = models.OutcomeWrong
			score.Wrong++
			score.PointsLost += p.Confidence
		}
		score.Picks = append(score.Picks, graded)
	}
	return score
}

// matchKey identifies a matchup regardless of which side is listed first,
// so "BUF@KC" grades against a result recorded as "KC@BUF" or "KC vs BUF".
func matchKey(game string) string {
	away, home, ok := pool.SplitGame(game)
	if !ok {
		return gameLabel(game)
	}
	sides := []string{gameLabel(away), gameLabel(home)}
	sort.Strings(sides)
	return sides[0] + "@" + sides[1]
}

func gameLabel(game string) string {
	return strings.ToUpper(strings.Join(strings.Fields(game), ""))
}
