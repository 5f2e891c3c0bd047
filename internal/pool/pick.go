// Package pool holds the pick validation and grid placement rules for a
// weekly confidence pool. Nothing in here performs I/O.
package pool

import (
	"sort"
	"strings"
)

const DefaultConfidenceMax = 20

// Pick is one line of a weekly submission.
type Pick struct {
	Game       string `json:"game"`
	Team       string `json:"team"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// PickSet is a submission that passed Validate. It can only be obtained from
// ValidationResult.PickSet, which is what makes validation a precondition of
// Grid.Apply.
type PickSet struct {
	confidenceMax int
	picks         []Pick
}

func (s PickSet) ConfidenceMax() int {
	return s.confidenceMax
}

// Picks returns a copy sorted by descending confidence.
func (s PickSet) Picks() []Pick {
	out := make([]Pick, len(s.picks))
	copy(out, s.picks)
	SortByConfidence(out)
	return out
}

func (s PickSet) Len() int {
	return len(s.picks)
}

// SortByConfidence orders picks from the highest confidence down.
func SortByConfidence(picks []Pick) {
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].Confidence > picks[j].Confidence
	})
}

// SplitGame breaks a matchup token into its away and home sides. It accepts
// "AWAY@HOME", "AWAY at HOME" and "AWAY vs HOME".
func SplitGame(game string) (away, home string, ok bool) {
	g := strings.TrimSpace(game)
	if g == "" {
		return "", "", false
	}

	if i := strings.Index(g, "@"); i >= 0 {
		away, home = strings.TrimSpace(g[:i]), strings.TrimSpace(g[i+1:])
		return away, home, away != "" && home != ""
	}

	lower := strings.ToLower(g)
	for _, sep := range []string{" at ", " vs. ", " vs ", " v "} {
		if i := strings.Index(lower, sep); i >= 0 {
			away, home = strings.TrimSpace(g[:i]), strings.TrimSpace(g[i+len(sep):])
			return away, home, away != "" && home != ""
		}
	}

	return "", "", false
}

func gameKey(game string) string {
	return strings.ToUpper(strings.Join(strings.Fields(game), ""))
}
