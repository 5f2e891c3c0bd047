package pool

import (
	"fmt"
	"sort"
	"strings"
)

type gameTally struct {
	game    string
	votes   map[string]int
	weights map[string]int
	total   int
	sources []string
}

// Consensus merges analyses from several sources into one pick set. Each
// game goes to the team most sources picked (ties go to the higher summed
// confidence, then the alphabetically first code). Games are ranked by mean
// confidence, then by how many sources covered them, and the top
// confidenceMax games receive confidenceMax down to 1.
func Consensus(analyses map[string][]Pick, confidenceMax int) []Pick {
	names := make([]string, 0, len(analyses))
	for name := range analyses {
		names = append(names, name)
	}
	sort.Strings(names)

	tallies := make(map[string]*gameTally)
	var order []string
	for _, name := range names {
		for _, p := range analyses[name] {
			key := gameKey(p.Game)
			if key == "" {
				continue
			}
			t, ok := tallies[key]
			if !ok {
				t = &gameTally{game: strings.TrimSpace(p.Game), votes: map[string]int{}, weights: map[string]int{}}
				tallies[key] = t
				order = append(order, key)
			}
			team := strings.TrimSpace(p.Team)
			t.votes[team]++
			t.weights[team] += p.Confidence
			t.total += p.Confidence
			t.sources = append(t.sources, name)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := tallies[order[i]], tallies[order[j]]
		meanA := float64(a.total) / float64(len(a.sources))
		meanB := float64(b.total) / float64(len(b.sources))
		if meanA != meanB {
			return meanA > meanB
		}
		if len(a.sources) != len(b.sources) {
			return len(a.sources) > len(b.sources)
		}
		return a.game < b.game
	})

	if len(order) > confidenceMax {
		order = order[:confidenceMax]
	}

	picks := make([]Pick, 0, len(order))
	for i, key := range order {
		t := tallies[key]
		team := t.winner()
		picks = append(picks, Pick{
			Game:       t.game,
			Team:       team,
			Confidence: confidenceMax - i,
			Reasoning:  fmt.Sprintf("%d of %d sources (%s) picked %s", t.votes[team], len(t.sources), strings.Join(t.sources, ", "), team),
		})
	}
	return picks
}

func (t *gameTally) winner() string {
	teams := make([]string, 0, len(t.votes))
	for team := range t.votes {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if t.votes[a] != t.votes[b] {
			return t.votes[a] > t.votes[b]
		}
		if t.weights[a] != t.weights[b] {
			return t.weights[a] > t.weights[b]
		}
		return a < b
	})
	return teams[0]
}
