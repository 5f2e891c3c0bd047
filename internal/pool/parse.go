package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParsePicks turns analysis output into picks. It accepts a bare JSON array
// or an object carrying a "picks" or "optimal_picks" array, optionally
// wrapped in a markdown code fence. Every shape problem is reported, joined
// into one error; no picks are returned in that case.
func ParsePicks(data []byte) ([]Pick, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	items, err := pickItems(doc)
	if err != nil {
		return nil, err
	}

	picks := make([]Pick, 0, len(items))
	var errs []error
	for i, item := range items {
		p, itemErrs := parseItem(i, item)
		if len(itemErrs) > 0 {
			errs = append(errs, itemErrs...)
			continue
		}
		picks = append(picks, p)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return picks, nil
}

// decodeDocument finds the JSON document in analysis output. A fenced code
// block wins; otherwise every '[' or '{' is tried as a start until one
// decodes into something shaped like a pick list.
func decodeDocument(data []byte) (any, error) {
	text := strings.TrimSpace(string(data))
	if body, ok := fencedBlock(text); ok {
		return decodeJSON(body)
	}

	var (
		fallback any
		firstErr error
	)
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		doc, err := decodeJSON(text[i:])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if looksLikePicks(doc) {
			return doc, nil
		}
		if fallback == nil {
			fallback = doc
		}
	}

	switch {
	case fallback != nil:
		return fallback, nil
	case firstErr != nil:
		return nil, firstErr
	default:
		return nil, &ParseError{Index: -1, Reason: "no JSON found"}
	}
}

// fencedBlock returns the body of the first markdown code fence. An
// unterminated fence runs to the end of the text.
func fencedBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	body := rest[nl+1:]
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Index: -1, Reason: err.Error(), Err: err}
	}
	return doc, nil
}

func looksLikePicks(doc any) bool {
	switch v := doc.(type) {
	case map[string]any:
		return true
	case []any:
		if len(v) == 0 {
			return true
		}
		_, ok := v[0].(map[string]any)
		return ok
	}
	return false
}

func pickItems(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"picks", "optimal_picks"} {
			raw, ok := v[key]
			if !ok {
				continue
			}
			items, ok := raw.([]any)
			if !ok {
				return nil, &ParseError{Index: -1, Field: key, Reason: fmt.Sprintf("%q must be an array", key)}
			}
			return items, nil
		}
		return nil, &ParseError{Index: -1, Reason: `expected a "picks" or "optimal_picks" array`}
	default:
		return nil, &ParseError{Index: -1, Reason: "expected a JSON array or object"}
	}
}

func parseItem(index int, item any) (Pick, []error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return Pick{}, []error{&ParseError{Index: index, Reason: "not an object"}}
	}

	var (
		p    Pick
		errs []error
	)

	game, err := stringField(index, obj, true, "game")
	if err != nil {
		errs = append(errs, err)
	}
	p.Game = game

	team, err := stringField(index, obj, true, "team", "predicted_winner")
	if err != nil {
		errs = append(errs, err)
	}
	p.Team = team

	confidence, err := confidenceField(index, obj, p.Game)
	if err != nil {
		errs = append(errs, err)
	}
	p.Confidence = confidence

	reasoning, err := stringField(index, obj, false, "reasoning")
	if err != nil {
		errs = append(errs, err)
	}
	p.Reasoning = reasoning

	return p, errs
}

func lookupField(obj map[string]any, names ...string) (string, any, bool) {
	for _, name := range names {
		if v, ok := obj[name]; ok && v != nil {
			return name, v, true
		}
	}
	return names[0], nil, false
}

func stringField(index int, obj map[string]any, required bool, names ...string) (string, error) {
	name, v, ok := lookupField(obj, names...)
	if !ok {
		if required {
			return "", &ParseError{Index: index, Field: name, Reason: "missing"}
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Index: index, Field: name, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
	s = strings.TrimSpace(s)
	if required && s == "" {
		return "", &ParseError{Index: index, Field: name, Reason: "empty"}
	}
	return s, nil
}

func confidenceField(index int, obj map[string]any, game string) (int, error) {
	name, v, ok := lookupField(obj, "confidence", "confidence_points")
	if !ok {
		return 0, &ParseError{Index: index, Field: name, Reason: "missing"}
	}

	var raw string
	switch n := v.(type) {
	case json.Number:
		raw = n.String()
	case string:
		raw = strings.TrimSpace(n)
	default:
		return 0, &ParseError{Index: index, Field: name, Reason: fmt.Sprintf("expected integer, got %T", v)}
	}

	if i, err := strconv.Atoi(raw); err == nil {
		return i, nil
	}
	// 12.0 is an integer written as a float.
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	return 0, &ParseError{
		Index:  index,
		Field:  name,
		Reason: fmt.Sprintf("%q is not an integer", raw),
		Err:    &InvalidConfidenceError{Game: game, Raw: raw},
	}
}
