// Package analysis talks to the external text analysis capability
// Every failure mode surfaces as an error so callers can fall back locally
package analysis

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"signalgate/internal/platform/config"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
)

// Provider names accepted by ANALYSIS_PROVIDER
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

var (
	// ErrDisabled is returned by the none provider
	ErrDisabled = errors.New("analysis: disabled")

	// ErrMalformed means the capability answered but not with a usable judgment
	ErrMalformed = errors.New("analysis: malformed judgment")
)

// Analyzer turns signal text into a structured judgment
type Analyzer interface {
	Analyze(ctx context.Context, text, sourceHint string) (Judgment, error)
	Provider() string
}

// Config selects and tunes a provider
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIURL    string
	MaxTokens int

	// Retries on 5xx, 429 and transport errors
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// HTTPClient is optional; per call deadlines come from ctx
	HTTPClient *http.Client
}

// FromEnv reads ANALYSIS_* keys from c
func FromEnv(c config.Conf) Config {
	a := c.Prefix("ANALYSIS_")
	return Config{
		Provider:  a.MayEnum("PROVIDER", ProviderNone, ProviderOpenAI, ProviderAnthropic, ProviderNone),
		Model:     a.MayString("MODEL", ""),
		APIKey:    a.MayString("API_KEY", ""),
		APIURL:    a.MayString("API_URL", ""),
		MaxTokens: a.MayInt("MAX_TOKENS", 1024),
		Retries:   a.MayInt("RETRIES", 2),
		BaseDelay: a.MayDuration("RETRY_BASE_DELAY", 250*time.Millisecond),
		MaxDelay:  a.MayDuration("RETRY_MAX_DELAY", 4*time.Second),
	}
}

// New builds the configured analyzer wrapped with metrics and logging
func New(cfg Config, m *metrics.Registry) (Analyzer, error) {
	var inner Analyzer
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		if cfg.Model == "" {
			return nil, errors.New("analysis: ANALYSIS_MODEL is required for openai")
		}
		inner = newOpenAI(cfg)
	case ProviderAnthropic:
		if cfg.Model == "" {
			return nil, errors.New("analysis: ANALYSIS_MODEL is required for anthropic")
		}
		inner = newAnthropic(cfg)
	case ProviderNone, "":
		inner = disabled{}
	default:
		return nil, errors.New("analysis: unknown provider " + cfg.Provider)
	}
	return &instrumented{inner: inner, metrics: m}, nil
}

type disabled struct{}

func (disabled) Analyze(context.Context, string, string) (Judgment, error) {
	return Judgment{}, ErrDisabled
}

func (disabled) Provider() string { return ProviderNone }

type instrumented struct {
	inner   Analyzer
	metrics *metrics.Registry
}

func (a *instrumented) Provider() string { return a.inner.Provider() }

func (a *instrumented) Analyze(ctx context.Context, text, sourceHint string) (Judgment, error) {
	start := time.Now()
	j, err := a.inner.Analyze(ctx, text, sourceHint)
	elapsed := time.Since(start)

	result := Outcome(err)
	a.metrics.AnalysisCall(a.inner.Provider(), result, elapsed)
	if err != nil && !errors.Is(err, ErrDisabled) {
		logger.Named("analysis").Warn().
			Err(err).
			Str("provider", a.inner.Provider()).
			Str("result", result).
			Dur("elapsed", elapsed).
			Msg("analysis call failed")
	}
	return j, err
}

// Outcome labels an Analyze error for metrics and reports
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
