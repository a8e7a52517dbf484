package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"signalgate/internal/adapters/analysis"
	"signalgate/internal/core/sources"
	"signalgate/internal/platform/testkit"
	"signalgate/internal/services/extract/domain"
)

const painText = "I wish someone would build a dog walking app, I would pay for it"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func forum(q *memQueue, id, body string) int64 {
	return q.add(sources.ForumPost, id, map[string]any{"id": id, "title": "Help", "body": body}, t0)
}

func TestRunBatch_ForumPostCreatesOpportunity(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	id := forum(q, "f-1", "Is there an app to split grocery runs with my neighbors? I would pay for it.")
	an := answer(analysis.Judgment{
		IsValidOpportunity: true,
		Title:              "Neighbor grocery run splitting",
		Category:           "Technology",
		Severity:           7,
		OpportunityScore:   82,
		FeasibilityScore:   70,
		Risks:              []string{"trust"},
	})

	rep, err := New(testConfig(), q, opps, an).RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Selected != 1 || rep.Created != 1 || rep.Fallbacks != 0 || !rep.Finished() {
		t.Fatalf("report = %+v", rep)
	}
	if got := q.get(id).state; got != "DONE" {
		t.Fatalf("state = %s", got)
	}
	o, ok := opps.get(sources.ForumPost, "f-1")
	if !ok {
		t.Fatalf("opportunity not stored")
	}
	if o.AnalysisSource != domain.AnalysisCapability || o.Judgment.OpportunityScore != 82 || o.ID == "" {
		t.Fatalf("opportunity = %+v", o)
	}
}

func TestRunBatch_FallsBackWhenCapabilityUnreachable(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	id := forum(q, "f-2", painText)

	rep, err := New(testConfig(), q, opps, failing(errors.New("dial tcp: connection refused"))).RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Created != 1 || rep.Fallbacks != 1 || rep.Errors != 0 {
		t.Fatalf("report = %+v", rep)
	}
	o, _ := opps.get(sources.ForumPost, "f-2")
	if o.AnalysisSource != domain.AnalysisHeuristic {
		t.Fatalf("analysis source = %q", o.AnalysisSource)
	}
	if o.Judgment.OpportunityScore < 50 || o.Judgment.Category == "" || o.Judgment.Title == "" {
		t.Fatalf("judgment = %+v", o.Judgment)
	}
	if q.get(id).state != "DONE" {
		t.Fatalf("fallback row must end DONE")
	}
}

func TestRunBatch_NilAnalyzerUsesHeuristic(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	forum(q, "f-3", painText)

	rep, err := New(testConfig(), q, opps, nil).RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Created != 1 || rep.Fallbacks != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunBatch_Gates(t *testing.T) {
	cases := []struct {
		name string
		j    analysis.Judgment
		want domain.Outcome
	}{
		{"not valid", analysis.Judgment{IsValidOpportunity: false, OpportunityScore: 90}, domain.OutcomeNotValid},
		{"below threshold", analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 49.9}, domain.OutcomeBelowThreshold},
		{"at threshold", analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 50}, domain.OutcomeCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, opps := newMemQueue(), newMemOpps()
			id := forum(q, "g-1", painText)
			rep, err := New(testConfig(), q, opps, answer(tc.j)).RunBatch(context.Background(), 10)
			if err != nil {
				t.Fatalf("RunBatch: %v", err)
			}
			got := map[domain.Outcome]int{
				domain.OutcomeNotValid:       rep.NotValid,
				domain.OutcomeBelowThreshold: rep.BelowThreshold,
				domain.OutcomeCreated:        rep.Created,
			}
			if got[tc.want] != 1 {
				t.Fatalf("report = %+v, want one %s", rep, tc.want)
			}
			if q.get(id).state != "DONE" {
				t.Fatalf("state = %s", q.get(id).state)
			}
			_, stored := opps.get(sources.ForumPost, "g-1")
			if stored != (tc.want == domain.OutcomeCreated) {
				t.Fatalf("stored = %v", stored)
			}
		})
	}
}

func TestRunBatch_ShortAndExistingSkipAnalysis(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	short := forum(q, "s-1", "")
	existing := forum(q, "e-1", painText)
	opps.byKey[oppKey(sources.ForumPost, "e-1")] = domain.Opportunity{ID: "x"}

	an := answer(analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 90})
	rep, err := New(testConfig(), q, opps, an).RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.SkippedShort != 1 || rep.Existing != 1 || rep.Selected != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if an.Calls() != 0 {
		t.Fatalf("analyzer called %d times", an.Calls())
	}
	if q.get(short).state != "DONE" || q.get(existing).state != "DONE" {
		t.Fatalf("rows must end DONE")
	}
}

func TestRunBatch_PanicIsIsolated(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	bad := forum(q, "p-1", "boom boom boom this text panics the analyzer")
	good := forum(q, "p-2", painText)
	an := &fakeAnalyzer{fn: func(_ context.Context, text string) (analysis.Judgment, error) {
		if strings.Contains(text, "boom") {
			panic("analyzer exploded")
		}
		return analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 75}, nil
	}}

	var rep domain.Report
	testkit.MustNotPanic(t, func() {
		var err error
		rep, err = New(testConfig(), q, opps, an).RunBatch(context.Background(), 10)
		if err != nil {
			t.Fatalf("RunBatch: %v", err)
		}
	})
	if rep.Errors != 1 || rep.Created != 1 || !rep.Finished() {
		t.Fatalf("report = %+v", rep)
	}
	r := q.get(bad)
	if r.state != "ERROR" {
		t.Fatalf("panicked row state = %s", r.state)
	}
	testkit.MustContain(t, r.detail, "analyzer exploded")
	if q.get(good).state != "DONE" {
		t.Fatalf("healthy row state = %s", q.get(good).state)
	}
}

func TestRunBatch_ErrorDetailTruncated(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	opps.insertErr = errors.New(strings.Repeat("é", 400))
	id := forum(q, "t-1", painText)

	rep, err := New(testConfig(), q, opps, answer(analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 80})).
		RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Errors != 1 {
		t.Fatalf("report = %+v", rep)
	}
	r := q.get(id)
	if r.state != "ERROR" {
		t.Fatalf("state = %s", r.state)
	}
	if len(r.detail) > 500 || !utf8.ValidString(r.detail) {
		t.Fatalf("detail len=%d valid=%v", len(r.detail), utf8.ValidString(r.detail))
	}
}

func TestRunBatch_TaskTimeoutFallsBack(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	forum(q, "to-1", painText)
	an := &fakeAnalyzer{fn: func(ctx context.Context, _ string) (analysis.Judgment, error) {
		<-ctx.Done()
		return analysis.Judgment{}, ctx.Err()
	}}
	cfg := testConfig()
	cfg.TaskTimeout = 20 * time.Millisecond

	rep, err := New(cfg, q, opps, an).RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Fallbacks != 1 || rep.Created != 1 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestRunBatch_BoundedConcurrency(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	for i := range 12 {
		forum(q, "c-"+string(rune('a'+i)), painText)
	}
	var inFlight, peak atomic.Int32
	an := &fakeAnalyzer{fn: func(context.Context, string) (analysis.Judgment, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 60}, nil
	}}

	rep, err := New(testConfig(), q, opps, an).RunBatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Created != 12 {
		t.Fatalf("report = %+v", rep)
	}
	if p := peak.Load(); p > 3 {
		t.Fatalf("peak concurrency %d exceeds 3", p)
	}
}

func TestRunBatch_NewestFirstAndLimit(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	old := q.add(sources.ForumPost, "old", map[string]any{"id": "old", "body": painText}, t0)
	fresh := q.add(sources.ForumPost, "new", map[string]any{"id": "new", "body": painText}, t0.Add(time.Minute))

	rep, err := New(testConfig(), q, opps, nil).RunBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Selected != 1 {
		t.Fatalf("selected = %d", rep.Selected)
	}
	if q.get(fresh).state != "DONE" || q.get(old).state != "PENDING" {
		t.Fatalf("newest row must be claimed first")
	}
}

func TestRunBatch_CanceledCallerStillSettlesRows(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	id := forum(q, "cx-1", painText)
	an := &fakeAnalyzer{fn: func(ctx context.Context, _ string) (analysis.Judgment, error) {
		return analysis.Judgment{}, ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := New(testConfig(), q, opps, an).RunBatch(ctx, 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !rep.Finished() || q.get(id).state == "PENDING" {
		t.Fatalf("row left pending: %+v", rep)
	}
}

func TestRunBatch_NonFiniteScoreFallsBack(t *testing.T) {
	for _, score := range []float64{math.NaN(), math.Inf(1)} {
		q, opps := newMemQueue(), newMemOpps()
		id := forum(q, "nf-1", painText)
		an := answer(analysis.Judgment{IsValidOpportunity: true, OpportunityScore: score})

		rep, err := New(testConfig(), q, opps, an).RunBatch(context.Background(), 10)
		if err != nil {
			t.Fatalf("RunBatch: %v", err)
		}
		if rep.Fallbacks != 1 || q.get(id).state != "DONE" {
			t.Fatalf("score %v: report = %+v", score, rep)
		}
		if o, ok := opps.get(sources.ForumPost, "nf-1"); ok && o.AnalysisSource != domain.AnalysisHeuristic {
			t.Fatalf("score %v: stored from %s", score, o.AnalysisSource)
		}
	}
}

func TestRunBatch_CanceledCallerDuringPrecheck(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	a := forum(q, "pc-1", painText)
	b := forum(q, "pc-2", painText)
	opps.exists = func(ctx context.Context, _ string) (bool, error) { return false, ctx.Err() }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := New(testConfig(), q, opps, nil).RunBatch(ctx, 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Errors != 0 || !rep.Finished() {
		t.Fatalf("report = %+v", rep)
	}
	for _, id := range []int64{a, b} {
		if r := q.get(id); r.state != "DONE" {
			t.Fatalf("row %d = %s %q", id, r.state, r.detail)
		}
	}
}

func TestRunBatch_PrecheckPanicIsIsolated(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	bad := forum(q, "pp-1", painText)
	good := forum(q, "pp-2", painText)
	opps.exists = func(_ context.Context, id string) (bool, error) {
		if id == "pp-1" {
			panic("lookup exploded")
		}
		return false, nil
	}

	var rep domain.Report
	testkit.MustNotPanic(t, func() {
		rep, _ = New(testConfig(), q, opps, nil).RunBatch(context.Background(), 10)
	})
	if rep.Errors != 1 || !rep.Finished() {
		t.Fatalf("report = %+v", rep)
	}
	r := q.get(bad)
	if r.state != "ERROR" {
		t.Fatalf("panicked row state = %s", r.state)
	}
	testkit.MustContain(t, r.detail, "lookup exploded")
	if q.get(good).state != "DONE" {
		t.Fatalf("healthy row state = %s", q.get(good).state)
	}
}

func TestRunBatch_LeaseCoversEveryWave(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	forum(q, "l-1", painText)
	cfg := testConfig() // 3 wide, 1s per task
	cfg.Lease = 2 * time.Second

	if _, err := New(cfg, q, opps, nil).RunBatch(context.Background(), 30); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if q.lease != 11*time.Second {
		t.Fatalf("lease = %v, want 11s for 10 waves", q.lease)
	}
}

func TestRunBatch_FillsTitleAndCategory(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	forum(q, "fill-1", painText)
	an := answer(analysis.Judgment{IsValidOpportunity: true, OpportunityScore: 70, Severity: 14})

	if _, err := New(testConfig(), q, opps, an).RunBatch(context.Background(), 10); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	o, _ := opps.get(sources.ForumPost, "fill-1")
	if o.Judgment.Title == "" || o.Judgment.Category != "Other" || o.Judgment.Severity != 10 {
		t.Fatalf("judgment = %+v", o.Judgment)
	}
}

func TestNew_PanicsOnNilPorts(t *testing.T) {
	testkit.MustPanic(t, func() { New(testConfig(), nil, newMemOpps(), nil) })
	testkit.MustPanic(t, func() { New(testConfig(), newMemQueue(), nil, nil) })
}

func TestRun_StopsOnCancel(t *testing.T) {
	q, opps := newMemQueue(), newMemOpps()
	forum(q, "w-1", painText)
	p := New(testConfig(), q, opps, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, 10*time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for q.get(1).state == "PENDING" {
		select {
		case <-deadline:
			t.Fatalf("worker never processed the row")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestConfigNormalized(t *testing.T) {
	c := Config{TaskTimeout: time.Minute, Lease: time.Second}.normalized()
	if c.Concurrency != 5 || c.Batch != 50 || c.Owner == "" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Lease <= c.TaskTimeout {
		t.Fatalf("lease %v must outlive task timeout %v", c.Lease, c.TaskTimeout)
	}
}

func TestLeaseFor(t *testing.T) {
	c := Config{Concurrency: 5, TaskTimeout: 30 * time.Second, Lease: 5 * time.Minute}.normalized()
	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 5 * time.Minute},
		{1, 5 * time.Minute},
		{50, 5*time.Minute + 30*time.Second},
		{51, 6 * time.Minute},
		{500, 101 * 30 * time.Second},
	}
	for _, tc := range cases {
		if got := c.leaseFor(tc.n); got != tc.want {
			t.Fatalf("leaseFor(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}
