// Package strings holds the few string helpers platform code shares
package strings

import std "strings"

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in, def []T) []T {
	if len(in) > 0 {
		return in
	}
	return def
}

// Contains is strings.Contains, re-exported so callers need one import
func Contains(s, sub string) bool { return std.Contains(s, sub) }

// HasSuffix is strings.HasSuffix
func HasSuffix(s, suf string) bool { return std.HasSuffix(s, suf) }

// MustString panics with "<name> is required" when s is blank
func MustString(s, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix turns " admin/ " into "/admin"; the bare root panics
func MustPrefix(s string) string {
	p := "/" + std.Trim(s, " /")
	if p == "/" {
		panic("route prefix is required")
	}
	return p
}
