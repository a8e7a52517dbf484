// Package service runs the extraction pipeline over staged signals
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"signalgate/internal/adapters/analysis"
	"signalgate/internal/core/heuristic"
	"signalgate/internal/core/sources"
	"signalgate/internal/core/textnorm"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
	"signalgate/internal/services/extract/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// maxErrorDetail bounds error_detail in bytes
	maxErrorDetail = 500
	titleRunes     = 80
)

// Pipeline implements domain.PipelinePort
type Pipeline struct {
	cfg      Config
	queue    domain.SignalQueue
	opps     domain.OpportunityStore
	analyzer analysis.Analyzer
	metrics  *metrics.Registry
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) Option { return func(p *Pipeline) { p.metrics = m } }

// New builds a pipeline; a nil analyzer means every row uses the heuristic
func New(cfg Config, queue domain.SignalQueue, opps domain.OpportunityStore, an analysis.Analyzer, opts ...Option) *Pipeline {
	if queue == nil {
		panic("extract.Pipeline requires a non nil SignalQueue")
	}
	if opps == nil {
		panic("extract.Pipeline requires a non nil OpportunityStore")
	}
	if an == nil {
		an, _ = analysis.New(analysis.Config{Provider: analysis.ProviderNone}, nil)
	}
	p := &Pipeline{cfg: cfg.normalized(), queue: queue, opps: opps, analyzer: an}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Config returns the effective configuration
func (p *Pipeline) Config() Config { return p.cfg }

// task is a row that survived the sequential prechecks
type task struct {
	sig  domain.Signal
	text string
}

// RunBatch claims up to limit rows and drives each one to DONE or ERROR
func (p *Pipeline) RunBatch(ctx context.Context, limit int) (domain.Report, error) {
	if limit <= 0 {
		limit = p.cfg.Batch
	}
	start := time.Now()
	log := logger.Named("extract")

	rows, err := p.queue.ClaimPending(ctx, p.cfg.Owner, limit, p.cfg.leaseFor(limit))
	if err != nil {
		return domain.Report{}, err
	}

	var (
		mu  sync.Mutex
		rep = domain.Report{Selected: len(rows)}
	)
	count := func(o domain.Outcome, fallback bool) {
		mu.Lock()
		rep.Add(o, fallback)
		mu.Unlock()
		p.metrics.ExtractRow(string(o))
	}

	// terminal writes must land even when the caller gives up mid batch
	wctx := context.WithoutCancel(ctx)

	// prechecks run on wctx: a canceled caller still settles every claimed row
	var tasks []task
	for _, sig := range rows {
		t, outcome, err := p.precheck(wctx, sig)
		switch {
		case err != nil:
			p.fail(wctx, sig, err)
			count(domain.OutcomeError, false)
		case outcome != "":
			count(p.finish(wctx, sig, outcome), false)
		default:
			tasks = append(tasks, t)
		}
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for _, t := range tasks {
		g.Go(func() error {
			o, fallback := p.process(ctx, wctx, t)
			count(o, fallback)
			return nil
		})
	}
	_ = g.Wait()

	rep.Elapsed = time.Since(start)
	rep.ElapsedMS = rep.Elapsed.Milliseconds()
	p.metrics.ExtractBatch(rep.Elapsed)

	if rep.Selected > 0 {
		log.Info().
			Int("selected", rep.Selected).
			Int("created", rep.Created).
			Int("skipped_short", rep.SkippedShort).
			Int("existing", rep.Existing).
			Int("not_valid", rep.NotValid).
			Int("below_threshold", rep.BelowThreshold).
			Int("errors", rep.Errors).
			Int("fallbacks", rep.Fallbacks).
			Dur("elapsed", rep.Elapsed).
			Msg("extract batch done")
	}
	return rep, nil
}

// precheck runs the cheap sequential gates; a non empty outcome means the row is settled.
// A panic comes back as an error so only its own row ends in ERROR
func (p *Pipeline) precheck(ctx context.Context, sig domain.Signal) (_ task, _ domain.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("panic: %v", r)
		}
	}()

	src, err := sources.Lookup(sig.Source)
	if err != nil {
		return task{}, "", err
	}
	dec := json.NewDecoder(bytes.NewReader(sig.Payload))
	dec.UseNumber()
	var payload sources.Payload
	if err := dec.Decode(&payload); err != nil {
		return task{}, "", perr.Wrap(err, perr.ErrorCodeJSON, "decode staged payload")
	}

	text := src.Text(payload)
	if textnorm.Len(text) < p.cfg.MinTextLen {
		return task{}, domain.OutcomeSkippedShort, nil
	}

	exists, err := p.opps.ExistsForSignal(ctx, sig.Source, sig.ExternalID)
	if err != nil {
		return task{}, "", err
	}
	if exists {
		return task{}, domain.OutcomeExisting, nil
	}
	return task{sig: sig, text: text}, "", nil
}

// process analyzes one row and applies the gates; panics end in ERROR for that row only
func (p *Pipeline) process(ctx, wctx context.Context, t task) (out domain.Outcome, fallback bool) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(wctx, t.sig, perr.PanicErrf("panic: %v", r))
			out, fallback = domain.OutcomeError, false
		}
	}()

	tctx, cancel := context.WithTimeout(ctx, p.cfg.TaskTimeout)
	defer cancel()

	hint := string(t.sig.Source)
	j, err := p.analyzer.Analyze(tctx, t.text, hint)
	if err == nil && !finite(j) {
		err = analysis.ErrMalformed
	}
	src := domain.AnalysisCapability
	if err != nil {
		j = fromVerdict(heuristic.Classify(t.text, hint))
		src, fallback = domain.AnalysisHeuristic, true
	}

	switch {
	case !j.IsValidOpportunity:
		return p.finish(wctx, t.sig, domain.OutcomeNotValid), fallback
	case j.OpportunityScore < p.cfg.MinScore:
		return p.finish(wctx, t.sig, domain.OutcomeBelowThreshold), fallback
	}

	fill(&j, t.text)
	created, err := p.opps.Insert(wctx, domain.Opportunity{
		ID:             uuid.NewString(),
		Source:         t.sig.Source,
		ExternalID:     t.sig.ExternalID,
		Judgment:       j,
		AnalysisSource: src,
	})
	if err != nil {
		p.fail(wctx, t.sig, err)
		return domain.OutcomeError, fallback
	}
	if !created {
		return p.finish(wctx, t.sig, domain.OutcomeExisting), fallback
	}
	return p.finish(wctx, t.sig, domain.OutcomeCreated), fallback
}

// finish marks sig DONE and returns o, or OutcomeError when the write failed
func (p *Pipeline) finish(ctx context.Context, sig domain.Signal, o domain.Outcome) domain.Outcome {
	moved, err := p.queue.MarkDone(ctx, sig.ID)
	if err != nil {
		p.fail(ctx, sig, err)
		return domain.OutcomeError
	}
	if !moved {
		logger.Named("extract").Debug().Int64("signal_id", sig.ID).Msg("row already settled by another runner")
	}
	return o
}

func (p *Pipeline) fail(ctx context.Context, sig domain.Signal, cause error) {
	log := logger.Named("extract")
	detail := textnorm.Truncate(fmt.Sprint(cause), maxErrorDetail)
	log.Warn().
		Err(cause).
		Int64("signal_id", sig.ID).
		Str("source", string(sig.Source)).
		Str("external_id", sig.ExternalID).
		Msg("signal failed")
	if _, err := p.queue.MarkError(ctx, sig.ID, detail); err != nil {
		log.Error().Err(err).Int64("signal_id", sig.ID).Msg("mark error failed; row stays leased")
	}
}

func fromVerdict(v heuristic.Verdict) analysis.Judgment {
	return analysis.Judgment{
		IsValidOpportunity: v.IsValidOpportunity,
		Title:              v.Title,
		Description:        v.Description,
		Category:           v.Category,
		Severity:           v.Severity,
		OpportunityScore:   v.OpportunityScore,
		FeasibilityScore:   v.FeasibilityScore,
		Risks:              []string{},
		NextSteps:          []string{},
	}
}

func finite(j analysis.Judgment) bool {
	for _, v := range []float64{j.OpportunityScore, j.FeasibilityScore} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// fill supplies the columns an opportunity cannot be stored without
func fill(j *analysis.Judgment, text string) {
	if j.Title == "" {
		j.Title = runePrefix(text, titleRunes)
	}
	if j.Category == "" {
		j.Category = heuristic.OtherCategory
	}
	j.Severity = max(0, min(10, j.Severity))
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
