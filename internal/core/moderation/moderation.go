// Package moderation decides whether a coarse label is allowed to become a capture
// The banned set is immutable once built and safe to share between goroutines
package moderation

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"

	"worlddex/internal/core/normalize"
)

//go:embed banned.toml
var embedded []byte

// Rejection reasons reported on a Verdict
const (
	ReasonBlockedToken = "blocked_token"
	ReasonBlockedLabel = "blocked_label"
)

type rawSet struct {
	Version       int      `toml:"version"`
	Blocked       []string `toml:"blocked"`
	SafeCompounds []string `toml:"safe_compounds"`
}

// BannedLabelSet holds folded blocked terms and safe compound phrases
type BannedLabelSet struct {
	blocked map[string]struct{}
	safe    [][]string // token sequences
}

// Verdict is the outcome of Check
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Match   string `json:"match,omitempty"`
	Safe    string `json:"safe,omitempty"`
}

// Default builds the set from the embedded list
func Default() (*BannedLabelSet, error) {
	return Parse(embedded)
}

// MustDefault panics if the embedded list is broken
func MustDefault() *BannedLabelSet {
	s, err := Default()
	if err != nil {
		panic(err)
	}
	return s
}

// LoadFile builds the set from a TOML file on disk
func LoadFile(path string) (*BannedLabelSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("moderation: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load builds the set from TOML read from r
func Load(r io.Reader) (*BannedLabelSet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("moderation: read: %w", err)
	}
	return Parse(b)
}

// Parse builds the set from TOML bytes
func Parse(b []byte) (*BannedLabelSet, error) {
	var raw rawSet
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("moderation: parse banned list: %w", err)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("moderation: unsupported banned list version %d (want 1)", raw.Version)
	}
	return New(raw.Blocked, raw.SafeCompounds), nil
}

// New builds a set from plain term lists, empty entries are ignored
func New(blocked, safe []string) *BannedLabelSet {
	s := &BannedLabelSet{blocked: make(map[string]struct{}, len(blocked))}
	for _, b := range blocked {
		if f := normalize.Fold(b); f != "" {
			s.blocked[f] = struct{}{}
		}
	}
	for _, c := range safe {
		if toks := normalize.Tokens(c); len(toks) > 0 {
			s.safe = append(s.safe, toks)
		}
	}
	return s
}

// Len returns the number of blocked terms
func (s *BannedLabelSet) Len() int { return len(s.blocked) }

// SafeLen returns the number of safe compounds
func (s *BannedLabelSet) SafeLen() int { return len(s.safe) }

// Check tests label against the set
// an empty label is allowed, there is nothing to moderate
func (s *BannedLabelSet) Check(label string) Verdict {
	if s == nil {
		return Verdict{Allowed: true}
	}
	folded := trimPunct(normalize.Fold(label))
	if folded == "" {
		return Verdict{Allowed: true}
	}
	toks := strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := toks[:0]
	for _, t := range toks {
		if t = trimPunct(t); t != "" {
			kept = append(kept, t)
		}
	}
	toks = kept

	reason, match := "", ""
	if _, ok := s.blocked[folded]; ok {
		reason, match = ReasonBlockedLabel, folded
	} else if _, ok := s.blocked[strings.Join(toks, " ")]; ok {
		reason, match = ReasonBlockedLabel, strings.Join(toks, " ")
	} else {
		for _, t := range toks {
			if _, ok := s.blocked[t]; ok {
				reason, match = ReasonBlockedToken, t
				break
			}
		}
	}
	if reason == "" {
		return Verdict{Allowed: true}
	}

	if safe := s.safeCompound(toks); safe != "" {
		return Verdict{Allowed: true, Match: match, Safe: safe}
	}
	return Verdict{Allowed: false, Reason: reason, Match: match}
}

// trimPunct drops punctuation at either end, inner marks like apostrophes stay
func trimPunct(s string) string {
	return strings.TrimFunc(s, unicode.IsPunct)
}

// safeCompound returns the first safe phrase found as a contiguous token run
func (s *BannedLabelSet) safeCompound(toks []string) string {
	for _, phrase := range s.safe {
		if containsRun(toks, phrase) {
			return strings.Join(phrase, " ")
		}
	}
	return ""
}

func containsRun(toks, run []string) bool {
	if len(run) == 0 || len(run) > len(toks) {
		return false
	}
outer:
	for i := 0; i+len(run) <= len(toks); i++ {
		for j := range run {
			if toks[i+j] != run[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
