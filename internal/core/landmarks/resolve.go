package landmarks

import (
	"strings"
	"unicode"

	"worlddex/internal/core/normalize"
)

// MatchKind records which resolution step matched
type MatchKind string

// Resolution steps in priority order
const (
	MatchNone      MatchKind = ""
	MatchExact     MatchKind = "exact"
	MatchAlias     MatchKind = "alias"
	MatchSubstring MatchKind = "substring"
)

// minSubstring guards against tiny answers matching half the registry
const minSubstring = 4

var unknownAnswers = map[string]struct{}{
	"unknown":        {},
	"unidentifiable": {},
	"none":           {},
	"n/a":            {},
}

// CleanAnswer strips the wrapping a model tends to put around a one line answer
func CleanAnswer(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return strings.TrimFunc(line, func(r rune) bool {
		switch r {
		case '"', '\'', '`', '.', '!', '?', ',', ';', ':', '*', '“', '”', '‘', '’':
			return true
		}
		return unicode.IsSpace(r)
	})
}

// Resolve maps a provider answer onto one of candidates
// order is exact name, then alias, then substring containment, every step
// must produce exactly one candidate or the answer is treated as unresolved
func Resolve(text string, candidates []Candidate) (Candidate, MatchKind, bool) {
	answer := normalize.Fold(CleanAnswer(text))
	if answer == "" {
		return Candidate{}, MatchNone, false
	}
	if _, ok := unknownAnswers[answer]; ok {
		return Candidate{}, MatchNone, false
	}

	if c, n := pick(candidates, func(c Candidate) bool { return normalize.Fold(c.Name) == answer }); n == 1 {
		return c, MatchExact, true
	} else if n > 1 {
		return Candidate{}, MatchNone, false
	}

	if c, n := pick(candidates, func(c Candidate) bool {
		for _, a := range c.Aliases {
			if normalize.Fold(a) == answer {
				return true
			}
		}
		return false
	}); n == 1 {
		return c, MatchAlias, true
	} else if n > 1 {
		return Candidate{}, MatchNone, false
	}

	if c, n := pick(candidates, func(c Candidate) bool {
		name := normalize.Fold(c.Name)
		if strings.Contains(answer, name) {
			return true
		}
		return len(answer) >= minSubstring && strings.Contains(name, answer)
	}); n == 1 {
		return c, MatchSubstring, true
	}
	return Candidate{}, MatchNone, false
}

// Candidates unwraps a nearby list
func Candidates(in []Nearby) []Candidate {
	out := make([]Candidate, len(in))
	for i, n := range in {
		out[i] = n.Candidate
	}
	return out
}

// pick returns the first match and the number of distinct matches
func pick(candidates []Candidate, match func(Candidate) bool) (Candidate, int) {
	var first Candidate
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup || !match(c) {
			continue
		}
		if len(seen) == 0 {
			first = c
		}
		seen[c.ID] = struct{}{}
	}
	return first, len(seen)
}
