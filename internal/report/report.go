// Package report renders pool data as markdown for chat messages, files and
// the terminal.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/poolpicks/internal/models"
	"github.com/omarshaarawi/poolpicks/internal/pool"
)

// Summary is the short "confidence: team" list sent before a commit.
func Summary(week int, picks []pool.Pick) string {
	sorted := append([]pool.Pick(nil), picks...)
	pool.SortByConfidence(sorted)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *Week %d Picks*\n\n", week))
	for _, p := range sorted {
		if p.Game != "" {
			sb.WriteString(fmt.Sprintf("%2d: %s (%s)\n", p.Confidence, escape(p.Team), escape(p.Game)))
		} else {
			sb.WriteString(fmt.Sprintf("%2d: %s\n", p.Confidence, escape(orDash(p.Team))))
		}
	}
	return sb.String()
}

// Validation lists every problem of a rejected pick set, one per line, so
// all of them can be fixed in a single pass.
func Validation(week int, result pool.ValidationResult) string {
	if result.Valid() {
		return fmt.Sprintf("✅ Week %d picks are valid (%d of %d)\n", week, result.ConfidenceMax, result.ConfidenceMax)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("❌ *Week %d picks rejected: %d problem(s)*\n\n", week, len(result.Errors)))
	for i, err := range result.Errors {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(describe(err))))
	}
	return sb.String()
}

func describe(err error) string {
	var unknown *pool.UnknownTeamError
	if errors.As(err, &unknown) && len(unknown.Suggestions) == 0 && strings.TrimSpace(unknown.Raw) != "" {
		return err.Error() + " (no similar team found)"
	}
	return err.Error()
}

func Diff(week int, diff pool.Diff) string {
	if len(diff) == 0 {
		return fmt.Sprintf("Week %d already up to date, nothing written.\n", week)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✏️ *Week %d: %d cell(s) updated*\n\n", week, len(diff)))
	for _, c := range diff {
		sb.WriteString(fmt.Sprintf("%s: %s → %s\n", c.Cell, escape(orDash(c.Before)), escape(orDash(c.After))))
	}
	return sb.String()
}

// WeekReport is the full markdown report of a week's picks grouped by tier.
func WeekReport(week, confidenceMax int, picks []pool.Pick, games []models.Game) string {
	byMatchup := make(map[string]models.Game, len(games))
	for _, g := range games {
		byMatchup[g.Matchup()] = g
	}

	sorted := append([]pool.Pick(nil), picks...)
	pool.SortByConfidence(sorted)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Week %d Confidence Picks\n\n", week))
	sb.WriteString(fmt.Sprintf("%d picks on a %d point scale.\n", len(sorted), confidenceMax))

	for _, tier := range pool.Tiers(confidenceMax) {
		sb.WriteString(fmt.Sprintf("\n## %s Confidence (%d-%d)\n\n", tier.Name, tier.High, tier.Low))
		sb.WriteString("| Pts | Pick | Game | Reasoning |\n")
		sb.WriteString("|---:|---|---|---|\n")
		for _, p := range sorted {
			if !tier.Contains(p.Confidence) {
				continue
			}
			game := p.Game
			if g, ok := byMatchup[p.Game]; ok && g.Line != "" {
				game = fmt.Sprintf("%s (%s)", p.Game, g.Line)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", p.Confidence, p.Team, game, cell(p.Reasoning)))
		}
	}
	return sb.String()
}

func Games(week int, games []models.Game) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏈 *Week %d Games*\n\n", week))
	for _, g := range games {
		sb.WriteString(g.Matchup())
		if g.Completed {
			sb.WriteString(fmt.Sprintf("  %d-%d (Final)", g.AwayScore, g.HomeScore))
		} else if !g.Kickoff.IsZero() {
			sb.WriteString(fmt.Sprintf("  %s", g.Kickoff.Local().Format("Mon 3:04 PM")))
		}
		if g.Line != "" && !g.Completed {
			sb.WriteString(fmt.Sprintf("  [%s]", g.Line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func WeekScore(score models.WeekScore) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *Week %d Results for %s*\n\n", score.Week, escape(score.Participant)))
	sb.WriteString(fmt.Sprintf("Correct: %d  Wrong: %d  Pending: %d\n", score.Correct, score.Wrong, score.Pending))
	sb.WriteString(fmt.Sprintf("Points lost: %d  Points won: %d\n\n", score.PointsLost, score.PointsWon))
	for _, p := range score.Picks {
		sb.WriteString(fmt.Sprintf("%s %2d: %s (%s)\n", outcomeMark(p.Outcome), p.Confidence, escape(p.Team), escape(p.Game)))
	}
	return sb.String()
}

func Standings(standings []models.Standing) string {
	if len(standings) == 0 {
		return "🏆 No graded weeks yet.\n"
	}
	var sb strings.Builder
	sb.WriteString("🏆 *Season Standings* (fewest points lost wins)\n\n")
	for _, st := range standings {
		sb.WriteString(fmt.Sprintf("%d. *%s*\n", st.Rank, escape(st.Participant)))
		sb.WriteString(fmt.Sprintf("   Weeks: %d  Record: %d-%d\n", st.Weeks, st.Correct, st.Wrong))
		sb.WriteString(fmt.Sprintf("   Points lost: %d\n\n", st.PointsLost))
	}
	return sb.String()
}

// escape keeps user-supplied text from opening chat markup.
func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

// Render formats markdown for a terminal.
func Render(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

func outcomeMark(o models.PickOutcome) string {
	switch o {
	case models.OutcomeCorrect:
		return "✅"
	case models.OutcomeWrong:
		return "❌"
	default:
		return "⏳"
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.Join(strings.Fields(s), " ")
}
