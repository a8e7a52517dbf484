// Package heuristic is the local keyword classifier used when text analysis is unavailable
// Scoring is deterministic: the same text and hint always give the same verdict
package heuristic

import (
	"math"
	"strings"
	"sync"

	"signalgate/internal/core/textnorm"
)

const (
	baseScore      = 35
	painWeight     = 12
	intensityBoost = 4
	maxScore       = 85
	reviewBoost    = 5

	// Feasibility is fixed; keywords say nothing about how buildable a fix is
	Feasibility = 50

	// OtherCategory is used when no category keyword matched
	OtherCategory = "Other"

	titleRunes    = 80
	describeBytes = 500
)

// Verdict is the classifier output
type Verdict struct {
	IsValidOpportunity bool
	Title              string
	Description        string
	Category           string
	Severity           int
	OpportunityScore   float64
	FeasibilityScore   float64
	PainSignals        []string
}

// Classifier matches the lexicon over folded text
type Classifier struct {
	ac    *automaton
	terms []term
}

// New builds the automaton over the built-in lexicon
func New() *Classifier {
	c := &Classifier{ac: newAutomaton(), terms: lexicon()}
	for id, t := range c.terms {
		c.ac.add(t.phrase, id)
	}
	c.ac.build()
	return c
}

var defaultClassifier = sync.OnceValue(New)

// Classify runs the shared classifier
func Classify(text, sourceHint string) Verdict {
	return defaultClassifier().Classify(text, sourceHint)
}

// Classify scores text; sourceHint is the source kind the text came from
func (c *Classifier) Classify(text, sourceHint string) Verdict {
	clean := textnorm.Clean(text)
	folded := textnorm.Fold(clean)

	pain := map[int]struct{}{}
	intensity := map[int]struct{}{}
	catHits := map[string]int{}
	var painOrder []string

	c.ac.scan(folded, func(end, id int) {
		t := c.terms[id]
		start := end - len(t.phrase)
		if !bounded(folded, start, end, t) {
			return
		}
		switch t.kind {
		case kindPain:
			if _, seen := pain[id]; !seen {
				pain[id] = struct{}{}
				painOrder = append(painOrder, t.phrase)
			}
		case kindIntensity:
			intensity[id] = struct{}{}
		case kindCategory:
			catHits[t.category]++
		}
	})

	v := Verdict{
		Title:            title(clean),
		Description:      textnorm.Truncate(clean, describeBytes),
		Category:         pickCategory(catHits),
		FeasibilityScore: Feasibility,
		PainSignals:      painOrder,
	}
	if len(pain) == 0 {
		v.Severity = 1
		return v
	}

	score := baseScore + painWeight*len(pain) + intensityBoost*len(intensity)
	if reviewHint(sourceHint) {
		score += reviewBoost
	}
	score = min(score, maxScore)

	v.IsValidOpportunity = true
	v.OpportunityScore = float64(score)
	v.Severity = severity(score)
	return v
}

// bounded rejects matches glued to surrounding word characters
// a trailing plural s is allowed unless the term is a stem (stems allow anything)
func bounded(s string, start, end int, t term) bool {
	if start < 0 {
		return false
	}
	if wordByte(t.phrase[0]) && start > 0 && wordByte(s[start-1]) {
		return false
	}
	if t.stem || !wordByte(t.phrase[len(t.phrase)-1]) || end >= len(s) {
		return true
	}
	next := s[end]
	if !wordByte(next) {
		return true
	}
	return next == 's' && (end+1 >= len(s) || !wordByte(s[end+1]))
}

// wordByte treats every non-ASCII byte as part of a word
func wordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '\'' || b >= 0x80
}

func pickCategory(hits map[string]int) string {
	best, bestN := OtherCategory, 0
	for _, c := range categories {
		if n := hits[c.name]; n > bestN {
			best, bestN = c.name, n
		}
	}
	return best
}

func reviewHint(hint string) bool {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "review-site", "map-listing":
		return true
	}
	return false
}

// severity maps a 0..100 score onto 1..10
func severity(score int) int {
	s := int(math.Round(float64(score) / 10))
	return max(1, min(10, s))
}

// title is the first sentence, capped to titleRunes
func title(clean string) string {
	if i := strings.IndexAny(clean, ".!?"); i > 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)
	r := []rune(clean)
	if len(r) > titleRunes {
		return strings.TrimSpace(string(r[:titleRunes-3])) + "..."
	}
	return clean
}
