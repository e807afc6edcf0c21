// Package normalize folds free text labels into a comparable form
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKD decomposition so accents split off their base letter
// 3 Case folding
// 4 Remove combining marks, format chars and controls
// 5 Width fold fullwidth to ASCII
// 6 NFC recomposition
// 7 Collapse whitespace to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains, a chain carries state and is not goroutine safe
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)), // combining marks
			runes.Remove(runes.In(unicode.Cf)), // ZWJ ZWNJ FEFF etc
			runes.Map(func(r rune) rune {
				if unicode.IsControl(r) && !unicode.IsSpace(r) {
					return -1
				}
				return r
			}),
			width.Fold,
			norm.NFC,
		)
	},
}

// Fold returns the normalized form of s following the pipeline above
func Fold(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// a broken chain should never surface, fall back to a plain lower
		ns = strings.ToLower(s)
	}

	return collapseSpaces(ns)
}

// Equal reports whether a and b fold to the same text
func Equal(a, b string) bool { return Fold(a) == Fold(b) }

// Tokens folds s and splits it on whitespace, hyphens and underscores
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), isTokenSep)
}

func isTokenSep(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_'
}

// collapseSpaces converts any whitespace run to one ASCII space and trims the edges
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
