package pool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidConfidenceMax = errors.New("confidence max must be a positive integer")
	ErrScaleMismatch        = errors.New("pick set scale does not match the week's scale")
)

// IncompletePickSetError reports confidence values in 1..Max that no pick
// claims.
type IncompletePickSetError struct {
	Got     int
	Want    int
	Missing []int
}

func (e *IncompletePickSetError) Error() string {
	return fmt.Sprintf("incomplete pick set: %d of %d picks, missing confidence %s", e.Got, e.Want, joinInts(e.Missing))
}

// ExcessPicksError reports picks beyond the week's scale: out-of-range
// confidences and every repeat of a confidence already claimed.
type ExcessPicksError struct {
	Got   int
	Want  int
	Extra []Pick
}

func (e *ExcessPicksError) Error() string {
	extra := make([]string, len(e.Extra))
	for i, p := range e.Extra {
		extra[i] = fmt.Sprintf("%s(%d)", p.Game, p.Confidence)
	}
	return fmt.Sprintf("too many picks: %d of %d, extra %s", e.Got, e.Want, strings.Join(extra, ", "))
}

type InvalidConfidenceError struct {
	Game  string
	Value int
	Max   int
	// Raw is set when the value was not an integer at all.
	Raw string
}

func (e *InvalidConfidenceError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("invalid confidence %q for %s: not an integer", e.Raw, gameLabel(e.Game))
	}
	return fmt.Sprintf("invalid confidence %d for %s: must be between 1 and %d", e.Value, gameLabel(e.Game), e.Max)
}

type DuplicateConfidenceError struct {
	Confidence int
	Games      []string
}

func (e *DuplicateConfidenceError) Error() string {
	return fmt.Sprintf("confidence %d used by %d picks: %s", e.Confidence, len(e.Games), strings.Join(e.Games, ", "))
}

type DuplicateGameError struct {
	Game        string
	Confidences []int
}

func (e *DuplicateGameError) Error() string {
	return fmt.Sprintf("game %s picked %d times at confidence %s", e.Game, len(e.Confidences), joinInts(e.Confidences))
}

type UnknownTeamError struct {
	Raw         string
	Game        string
	Suggestions []string
}

func (e *UnknownTeamError) Error() string {
	var sb strings.Builder
	if strings.TrimSpace(e.Raw) == "" {
		sb.WriteString(fmt.Sprintf("missing team for %s", gameLabel(e.Game)))
	} else {
		sb.WriteString(fmt.Sprintf("unknown team %q", e.Raw))
		if e.Game != "" {
			sb.WriteString(fmt.Sprintf(" in %s", e.Game))
		}
	}
	if len(e.Suggestions) > 0 {
		sb.WriteString(fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", ")))
	}
	return sb.String()
}

type TeamNotInGameError struct {
	Team string
	Game string
}

func (e *TeamNotInGameError) Error() string {
	return fmt.Sprintf("team %s is not playing in %s", e.Team, e.Game)
}

type ConfidenceOutOfRangeError struct {
	Confidence int
	Max        int
}

func (e *ConfidenceOutOfRangeError) Error() string {
	return fmt.Sprintf("confidence %d out of range 1..%d", e.Confidence, e.Max)
}

type WeekOutOfRangeError struct {
	Week int
	Min  int
	Max  int
}

func (e *WeekOutOfRangeError) Error() string {
	return fmt.Sprintf("week %d out of range %d..%d", e.Week, e.Min, e.Max)
}

// ParseError is a shape problem in untyped analysis input, kept apart from
// the semantic validation errors.
type ParseError struct {
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parse picks: %s", e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("parse picks: pick %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("parse picks: pick %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func gameLabel(game string) string {
	if strings.TrimSpace(game) == "" {
		return "unnamed game"
	}
	return game
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
