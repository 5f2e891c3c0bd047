package pool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/yaml.v3"
)

const (
	acceptThreshold  = 0.75
	suggestThreshold = 0.5
	maxSuggestions   = 3
)

// Vocabulary maps aliases (full names, cities, nicknames, legacy codes) to
// canonical team codes. Lookups are case-insensitive.
type Vocabulary struct {
	aliases map[string]string
	codes   map[string]struct{}
}

func NewVocabulary(aliases map[string]string) *Vocabulary {
	v := &Vocabulary{
		aliases: make(map[string]string),
		codes:   make(map[string]struct{}),
	}
	v.Merge(aliases)
	return v
}

// ParseVocabulary reads a YAML alias file of the form
//
//	aliases:
//	  Buffalo: BUF
//	  Bills: BUF
func ParseVocabulary(data []byte) (map[string]string, error) {
	var doc struct {
		Aliases map[string]string `yaml:"aliases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing vocabulary: %w", err)
	}
	return doc.Aliases, nil
}

func (v *Vocabulary) Add(alias, code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return
	}
	v.codes[code] = struct{}{}
	v.aliases[aliasKey(code)] = code
	if key := aliasKey(alias); key != "" {
		v.aliases[key] = code
	}
}

func (v *Vocabulary) Merge(aliases map[string]string) {
	for alias, code := range aliases {
		v.Add(alias, code)
	}
}

// Lookup resolves an exact alias or code.
func (v *Vocabulary) Lookup(raw string) (string, bool) {
	if v == nil {
		return "", false
	}
	code, ok := v.aliases[aliasKey(raw)]
	return code, ok
}

func (v *Vocabulary) IsCode(code string) bool {
	if v == nil {
		return false
	}
	_, ok := v.codes[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

func (v *Vocabulary) Codes() []string {
	codes := make([]string, 0, len(v.codes))
	for code := range v.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

type candidate struct {
	code       string
	similarity float64
}

// candidates scores every code by the best similarity of any of its aliases.
func (v *Vocabulary) candidates(raw string) []candidate {
	needle := aliasKey(raw)
	if v == nil || needle == "" {
		return nil
	}

	best := make(map[string]float64)
	for alias, code := range v.aliases {
		distance := fuzzy.LevenshteinDistance(needle, alias)
		maxLen := float64(max(len(needle), len(alias)))
		similarity := 1 - float64(distance)/maxLen

		// "bngls" against "cincinnati bengals" is a useful hint even though
		// the edit distance is large.
		if len(needle) >= 4 && fuzzy.MatchFold(needle, alias) {
			similarity = max(similarity, suggestThreshold)
		}

		if similarity > best[code] {
			best[code] = similarity
		}
	}

	out := make([]candidate, 0, len(best))
	for code, similarity := range best {
		out = append(out, candidate{code: code, similarity: similarity})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].similarity != out[j].similarity {
			return out[i].similarity > out[j].similarity
		}
		return out[i].code < out[j].code
	})
	return out
}

// Suggest lists up to three plausible codes for an unrecognized token.
func (v *Vocabulary) Suggest(raw string) []string {
	var suggestions []string
	for _, c := range v.candidates(raw) {
		if c.similarity < suggestThreshold || len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, c.code)
	}
	return suggestions
}

// NormalizeTeam resolves raw to a canonical code. Without a vocabulary any
// non-empty token is accepted as is. A misspelling is accepted only when a
// single code clearly wins the fuzzy match.
func NormalizeTeam(raw string, v *Vocabulary) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &UnknownTeamError{Raw: raw}
	}
	if v == nil {
		return trimmed, nil
	}
	if code, ok := v.Lookup(trimmed); ok {
		return code, nil
	}

	candidates := v.candidates(trimmed)
	if len(candidates) > 0 && candidates[0].similarity >= acceptThreshold {
		if len(candidates) == 1 || candidates[1].similarity < candidates[0].similarity {
			return candidates[0].code, nil
		}
	}

	return "", &UnknownTeamError{Raw: raw, Suggestions: v.Suggest(trimmed)}
}

// NormalizePicks returns a copy of picks with teams replaced by canonical
// codes and games rewritten as AWAY@HOME when both sides resolve. Tokens that
// do not resolve are left untouched so Validate can report them.
func NormalizePicks(picks []Pick, v *Vocabulary) []Pick {
	out := make([]Pick, len(picks))
	for i, p := range picks {
		out[i] = p
		if code, err := NormalizeTeam(p.Team, v); err == nil {
			out[i].Team = code
		}
		away, home, ok := SplitGame(p.Game)
		if !ok {
			continue
		}
		awayCode, awayErr := NormalizeTeam(away, v)
		homeCode, homeErr := NormalizeTeam(home, v)
		if awayErr == nil && homeErr == nil {
			out[i].Game = awayCode + "@" + homeCode
		}
	}
	return out
}

func aliasKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,;:!?\"'")
	return strings.Join(strings.Fields(s), " ")
}

type teamEntry struct {
	code     string
	city     string
	nickname string
	alt      []string
}

// A bare city or state shared by two teams (New York, Los Angeles, Tennessee)
// is never an alias, so it can only be reported as unknown with suggestions.
var nflTeams = []teamEntry{
	{"ARI", "Arizona", "Cardinals", []string{"ARZ"}},
	{"ATL", "Atlanta", "Falcons", nil},
	{"BAL", "Baltimore", "Ravens", []string{"BLT"}},
	{"BUF", "Buffalo", "Bills", nil},
	{"CAR", "Carolina", "Panthers", nil},
	{"CHI", "Chicago", "Bears", nil},
	{"CIN", "Cincinnati", "Bengals", nil},
	{"CLE", "Cleveland", "Browns", []string{"CLV"}},
	{"DAL", "Dallas", "Cowboys", nil},
	{"DEN", "Denver", "Broncos", nil},
	{"DET", "Detroit", "Lions", nil},
	{"GB", "Green Bay", "Packers", []string{"GNB"}},
	{"HOU", "Houston", "Texans", []string{"HST"}},
	{"IND", "Indianapolis", "Colts", nil},
	{"JAX", "Jacksonville", "Jaguars", []string{"JAC"}},
	{"KC", "Kansas City", "Chiefs", []string{"KAN"}},
	{"LV", "Las Vegas", "Raiders", []string{"LVR", "OAK"}},
	{"LAC", "", "Chargers", []string{"Los Angeles Chargers", "LA Chargers"}},
	{"LAR", "", "Rams", []string{"Los Angeles Rams", "LA Rams"}},
	{"MIA", "Miami", "Dolphins", nil},
	{"MIN", "Minnesota", "Vikings", nil},
	{"NE", "New England", "Patriots", []string{"NWE"}},
	{"NO", "New Orleans", "Saints", []string{"NOR"}},
	{"NYG", "", "Giants", []string{"New York Giants", "NY Giants"}},
	{"NYJ", "", "Jets", []string{"New York Jets", "NY Jets"}},
	{"PHI", "Philadelphia", "Eagles", nil},
	{"PIT", "Pittsburgh", "Steelers", []string{"PITT"}},
	{"SF", "San Francisco", "49ers", []string{"SFO", "Niners"}},
	{"SEA", "Seattle", "Seahawks", nil},
	{"TB", "Tampa Bay", "Buccaneers", []string{"TAM", "Bucs"}},
	{"TEN", "", "Titans", []string{"Tennessee Titans"}},
	{"WAS", "Washington", "Commanders", []string{"WSH", "WASH"}},
}

var collegeTeams = map[string]string{
	"Alabama":           "ALA",
	"Georgia":           "UGA",
	"Ohio State":        "OSU",
	"Michigan":          "MICH",
	"Clemson":           "CLEM",
	"Notre Dame":        "ND",
	"Oklahoma":          "OU",
	"Texas":             "TEX",
	"USC":               "USC",
	"LSU":               "LSU",
	"Florida":           "UF",
	"Auburn":            "AUB",
	"Tennessee Vols":    "TENN",
	"Kentucky":          "UK",
	"South Carolina":    "SC",
	"Missouri":          "MIZ",
	"Arkansas":          "ARK",
	"Mississippi State": "MSST",
	"Ole Miss":          "MISS",
	"Vanderbilt":        "VANDY",
	"Louisville":        "LOU",
	"Stanford":          "STAN",
	"Penn State":        "PSU",
	"UCLA":              "UCLA",
	"Florida State":     "FSU",
	"Nebraska":          "NEB",
	"Indiana":           "UIND",
	"California":        "CAL",
	"North Carolina":    "NC",
}

// DefaultVocabulary covers every NFL club plus the college programs the pool
// regularly includes.
func DefaultVocabulary() *Vocabulary {
	aliases := make(map[string]string)
	for _, t := range nflTeams {
		aliases[t.nickname] = t.code
		if t.city != "" {
			aliases[t.city] = t.code
			aliases[t.city+" "+t.nickname] = t.code
		}
		for _, alt := range t.alt {
			aliases[alt] = t.code
		}
	}
	for name, code := range collegeTeams {
		aliases[name] = code
	}
	return NewVocabulary(aliases)
}
