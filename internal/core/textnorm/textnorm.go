// Package textnorm cleans free-form signal text before scoring
// Clean pipeline
// 1 drop invalid UTF-8
// 2 NFKC
// 3 whitespace controls become spaces, other controls and format runes go
// 4 width fold fullwidth forms
// 5 collapse whitespace runs and trim
// Fold additionally case folds and strips combining marks for keyword matching
package textnorm

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var cleanPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Map(func(r rune) rune {
				if r == '\n' || r == '\r' || r == '\t' || r == '\v' || r == '\f' {
					return ' '
				}
				return r
			}),
			runes.Remove(runes.In(unicode.Cc)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		)
	},
}

func apply(pool *sync.Pool, s string) string {
	tr := pool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	pool.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// Clean returns display text: normalized, control free, single spaced
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	return collapse(apply(&cleanPool, s))
}

// Fold returns the matching form of s: Clean plus case folding without accents
func Fold(s string) string {
	c := Clean(s)
	if c == "" {
		return ""
	}
	return apply(&foldPool, c)
}

// Len counts runes, which is what length gates compare against
func Len(s string) int { return utf8.RuneCountInString(s) }

// Join cleans each part and joins the non-empty ones with sep
func Join(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := Clean(p); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, sep)
}

// Truncate cuts s to at most n bytes on a rune boundary
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
