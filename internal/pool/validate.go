package pool

import (
	"errors"
	"sort"
	"strings"
)

type validator struct {
	vocabulary *Vocabulary
}

type ValidateOption func(*validator)

// WithVocabulary turns the team check from "non-empty" into "resolvable".
func WithVocabulary(v *Vocabulary) ValidateOption {
	return func(val *validator) {
		val.vocabulary = v
	}
}

// ValidationResult holds every finding for one candidate pick set.
type ValidationResult struct {
	ConfidenceMax int
	Errors        []error

	picks []Pick
}

func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return errors.Join(r.Errors...)
}

// PickSet hands out the validated set, or the joined findings when the input
// was not valid.
func (r ValidationResult) PickSet() (PickSet, error) {
	if !r.Valid() {
		return PickSet{}, r.Err()
	}
	picks := make([]Pick, len(r.picks))
	copy(picks, r.picks)
	return PickSet{confidenceMax: r.ConfidenceMax, picks: picks}, nil
}

// Validate checks a candidate submission against a week's confidence scale.
// It never stops at the first problem: cardinality, range, duplicate
// confidence, duplicate game and team findings are all collected, in that
// order.
func Validate(picks []Pick, confidenceMax int, opts ...ValidateOption) ValidationResult {
	val := &validator{}
	for _, opt := range opts {
		opt(val)
	}

	result := ValidationResult{
		ConfidenceMax: confidenceMax,
		picks:         make([]Pick, len(picks)),
	}
	copy(result.picks, picks)

	if confidenceMax <= 0 {
		result.Errors = []error{ErrInvalidConfidenceMax}
		return result
	}

	result.Errors = append(result.Errors, checkCardinality(picks, confidenceMax)...)
	result.Errors = append(result.Errors, checkRange(picks, confidenceMax)...)
	result.Errors = append(result.Errors, checkDuplicateConfidence(picks, confidenceMax)...)
	result.Errors = append(result.Errors, checkDuplicateGames(picks)...)
	result.Errors = append(result.Errors, val.checkTeams(picks)...)

	return result
}

func inRange(confidence, confidenceMax int) bool {
	return confidence >= 1 && confidence <= confidenceMax
}

// checkCardinality reports uncovered values whenever there are any, so a set
// of the right size with one value doubled reports both the duplicate and
// the gap it leaves.
func checkCardinality(picks []Pick, confidenceMax int) []error {
	var errs []error

	covered := make(map[int]bool, confidenceMax)
	for _, p := range picks {
		if inRange(p.Confidence, confidenceMax) {
			covered[p.Confidence] = true
		}
	}

	var missing []int
	for c := confidenceMax; c >= 1; c-- {
		if !covered[c] {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		errs = append(errs, &IncompletePickSetError{Got: len(picks), Want: confidenceMax, Missing: missing})
	}

	if len(picks) > confidenceMax {
		seen := make(map[int]bool, confidenceMax)
		var extra []Pick
		for _, p := range picks {
			if !inRange(p.Confidence, confidenceMax) || seen[p.Confidence] {
				extra = append(extra, p)
				continue
			}
			seen[p.Confidence] = true
		}
		errs = append(errs, &ExcessPicksError{Got: len(picks), Want: confidenceMax, Extra: extra})
	}

	return errs
}

func checkRange(picks []Pick, confidenceMax int) []error {
	var errs []error
	for _, p := range picks {
		if !inRange(p.Confidence, confidenceMax) {
			errs = append(errs, &InvalidConfidenceError{Game: p.Game, Value: p.Confidence, Max: confidenceMax})
		}
	}
	return errs
}

func checkDuplicateConfidence(picks []Pick, confidenceMax int) []error {
	games := make(map[int][]string)
	for _, p := range picks {
		if inRange(p.Confidence, confidenceMax) {
			games[p.Confidence] = append(games[p.Confidence], p.Game)
		}
	}

	var doubled []int
	for c, g := range games {
		if len(g) > 1 {
			doubled = append(doubled, c)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(doubled)))

	errs := make([]error, 0, len(doubled))
	for _, c := range doubled {
		errs = append(errs, &DuplicateConfidenceError{Confidence: c, Games: games[c]})
	}
	return errs
}

// checkDuplicateGames ignores blank games: picks read back from the grid
// carry no game and must not be reported as colliding with each other.
func checkDuplicateGames(picks []Pick) []error {
	var order []string
	confidences := make(map[string][]int)
	names := make(map[string]string)

	for _, p := range picks {
		key := gameKey(p.Game)
		if key == "" {
			continue
		}
		if _, ok := confidences[key]; !ok {
			order = append(order, key)
			names[key] = strings.TrimSpace(p.Game)
		}
		confidences[key] = append(confidences[key], p.Confidence)
	}

	var errs []error
	for _, key := range order {
		if len(confidences[key]) > 1 {
			errs = append(errs, &DuplicateGameError{Game: names[key], Confidences: confidences[key]})
		}
	}
	return errs
}

func (v *validator) checkTeams(picks []Pick) []error {
	var errs []error
	for _, p := range picks {
		team := strings.TrimSpace(p.Team)
		if team == "" {
			errs = append(errs, &UnknownTeamError{Raw: p.Team, Game: p.Game})
			continue
		}

		code := strings.ToUpper(team)
		if v.vocabulary != nil {
			resolved, ok := v.vocabulary.Lookup(team)
			if !ok {
				errs = append(errs, &UnknownTeamError{Raw: p.Team, Game: p.Game, Suggestions: v.vocabulary.Suggest(team)})
				continue
			}
			code = resolved
		}

		away, home, ok := SplitGame(p.Game)
		if !ok {
			continue
		}
		if code != v.sideCode(away) && code != v.sideCode(home) {
			errs = append(errs, &TeamNotInGameError{Team: p.Team, Game: p.Game})
		}
	}
	return errs
}

func (v *validator) sideCode(side string) string {
	if code, ok := v.vocabulary.Lookup(side); ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(side))
}
