package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Judgment is the structured verdict on one signal
type Judgment struct {
	IsValidOpportunity bool     `json:"is_valid_opportunity"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Subcategory        string   `json:"subcategory"`
	Severity           int      `json:"severity"`
	OpportunityScore   float64  `json:"opportunity_score"`
	FeasibilityScore   float64  `json:"feasibility_score"`
	MarketSizeEstimate string   `json:"market_size_estimate"`
	CompetitionLevel   string   `json:"competition_level"`
	TargetAudience     string   `json:"target_audience"`
	Risks              []string `json:"risks"`
	NextSteps          []string `json:"next_steps"`
}

// wire mirrors Judgment with lenient field types
type wire struct {
	IsValidOpportunity *flexBool  `json:"is_valid_opportunity"`
	Title              flexString `json:"title"`
	Description        flexString `json:"description"`
	Category           flexString `json:"category"`
	Subcategory        flexString `json:"subcategory"`
	Severity           flexNumber `json:"severity"`
	OpportunityScore   flexNumber `json:"opportunity_score"`
	FeasibilityScore   flexNumber `json:"feasibility_score"`
	MarketSizeEstimate flexString `json:"market_size_estimate"`
	CompetitionLevel   flexString `json:"competition_level"`
	TargetAudience     flexString `json:"target_audience"`
	Risks              flexList   `json:"risks"`
	NextSteps          flexList   `json:"next_steps"`
}

// ParseJudgment extracts the JSON object between the first '{' and the last '}'
// Commentary and code fences around the object are ignored
func ParseJudgment(raw string) (Judgment, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return Judgment{}, fmt.Errorf("%w: no JSON object in response", ErrMalformed)
	}

	var w wire
	if err := json.Unmarshal([]byte(raw[start:end+1]), &w); err != nil {
		return Judgment{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.IsValidOpportunity == nil {
		return Judgment{}, fmt.Errorf("%w: is_valid_opportunity missing", ErrMalformed)
	}

	return Judgment{
		IsValidOpportunity: bool(*w.IsValidOpportunity),
		Title:              string(w.Title),
		Description:        string(w.Description),
		Category:           string(w.Category),
		Subcategory:        string(w.Subcategory),
		Severity:           severity(float64(w.Severity)),
		OpportunityScore:   clamp(float64(w.OpportunityScore), 0, 100),
		FeasibilityScore:   clamp(float64(w.FeasibilityScore), 0, 100),
		MarketSizeEstimate: string(w.MarketSizeEstimate),
		CompetitionLevel:   string(w.CompetitionLevel),
		TargetAudience:     string(w.TargetAudience),
		Risks:              []string(w.Risks),
		NextSteps:          []string(w.NextSteps),
	}, nil
}

func clamp(v, lo, hi float64) float64 { return max(lo, min(hi, v)) }

// severity keeps 0 as unknown and otherwise lands on 1..10
func severity(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(clamp(math.Round(v), 1, 10))
}

// flexBool accepts true/false or their string forms
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*b = flexBool(x)
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return fmt.Errorf("not a bool: %q", x)
		}
		*b = flexBool(p)
	default:
		return fmt.Errorf("not a bool: %s", data)
	}
	return nil
}

// flexNumber accepts numbers, numeric strings and null; NaN and infinities are rejected
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := parseNumber(data, &f); err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a finite number: %s", data)
	}
	*n = flexNumber(f)
	return nil
}

func parseNumber(data []byte, out *float64) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*out = f
		return nil
	}
	return json.Unmarshal(data, out)
}

// flexString accepts any scalar and renders it as text
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
	case string:
		*s = flexString(strings.TrimSpace(x))
	case float64:
		*s = flexString(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*s = flexString(strconv.FormatBool(x))
	default:
		return fmt.Errorf("not a scalar: %s", data)
	}
	return nil
}

// flexList accepts a list of strings or a single string
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
	case string:
		if s := strings.TrimSpace(x); s != "" {
			*l = flexList{s}
		}
	case []any:
		out := make(flexList, 0, len(x))
		for _, it := range x {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		*l = out
	default:
		return fmt.Errorf("not a list: %s", data)
	}
	return nil
}
