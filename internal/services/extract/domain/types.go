// Package domain holds extraction pipeline types and ports
package domain

import (
	"encoding/json"
	"time"

	"signalgate/internal/adapters/analysis"
	"signalgate/internal/core/sources"
)

// Signal is a claimed staged row
type Signal struct {
	ID         int64
	Source     sources.Kind
	ExternalID string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// Analysis sources recorded on opportunities
const (
	AnalysisCapability = "capability"
	AnalysisHeuristic  = "heuristic"
)

// Opportunity is a persisted judgment for one signal
type Opportunity struct {
	ID             string
	Source         sources.Kind
	ExternalID     string
	Judgment       analysis.Judgment
	AnalysisSource string
}

// Outcome is the terminal result for one claimed row
type Outcome string

// Row outcomes; everything except OutcomeError ends DONE
const (
	OutcomeSkippedShort   Outcome = "skipped_short"
	OutcomeExisting       Outcome = "existing"
	OutcomeCreated        Outcome = "created"
	OutcomeNotValid       Outcome = "not_valid"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeError          Outcome = "error"
)

// Report summarizes one RunBatch
type Report struct {
	Selected       int           `json:"selected" example:"50"`
	SkippedShort   int           `json:"skipped_short" example:"3"`
	Existing       int           `json:"existing" example:"1"`
	Created        int           `json:"created" example:"12"`
	NotValid       int           `json:"not_valid" example:"20"`
	BelowThreshold int           `json:"below_threshold" example:"13"`
	Errors         int           `json:"errors" example:"1"`
	Fallbacks      int           `json:"fallbacks" example:"4"`
	Elapsed        time.Duration `json:"-"`
	ElapsedMS      int64         `json:"elapsed_ms" example:"5120"`
}

// Add counts one row
func (r *Report) Add(o Outcome, fallback bool) {
	switch o {
	case OutcomeSkippedShort:
		r.SkippedShort++
	case OutcomeExisting:
		r.Existing++
	case OutcomeCreated:
		r.Created++
	case OutcomeNotValid:
		r.NotValid++
	case OutcomeBelowThreshold:
		r.BelowThreshold++
	case OutcomeError:
		r.Errors++
	}
	if fallback {
		r.Fallbacks++
	}
}

// Finished reports whether every selected row reached an outcome
func (r Report) Finished() bool {
	return r.SkippedShort+r.Existing+r.Created+r.NotValid+r.BelowThreshold+r.Errors == r.Selected
}
