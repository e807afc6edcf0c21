// Package strings holds small defaulting helpers
package strings

import std "strings"

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Or returns def when s is blank
func Or(s, def string) string {
	if std.TrimSpace(s) == "" {
		return def
	}
	return s
}

// DerefOr returns def for a nil p, *p otherwise
func DerefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
