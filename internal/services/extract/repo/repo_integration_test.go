//go:build integration_pg

package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"signalgate/internal/adapters/analysis"
	"signalgate/internal/core/sources"
	"signalgate/internal/modkit/repokit"
	"signalgate/internal/platform/store"
	"signalgate/internal/platform/store/pgtest"
	"signalgate/internal/services/extract/domain"
	"signalgate/internal/services/extract/service"
)

func stage(t *testing.T, db repokit.Queryer, kind sources.Kind, id, payload string, age time.Duration) {
	t.Helper()
	_, err := store.Exec(context.Background(), db, `
		INSERT INTO staged_signals (source_type, external_id, raw_payload, received_at)
		VALUES ($1::source_type, $2, $3::jsonb, now() - make_interval(secs => $4::float8))
	`, string(kind), id, payload, age.Seconds())
	if err != nil {
		t.Fatalf("stage %s: %v", id, err)
	}
}

func stateOf(t *testing.T, db repokit.Queryer, id string) (string, string) {
	t.Helper()
	var state string
	var detail *string
	err := db.QueryRow(context.Background(),
		`SELECT processing_state::text, error_detail FROM staged_signals WHERE external_id = $1`, id,
	).Scan(&state, &detail)
	if err != nil {
		t.Fatalf("state of %s: %v", id, err)
	}
	if detail == nil {
		return state, ""
	}
	return state, *detail
}

func TestClaimPendingDisjointAndNewestFirst(t *testing.T) {
	s := pgtest.Start(t)
	for i := range 20 {
		stage(t, s.PG, sources.Custom, fmt.Sprintf("c-%02d", i), `{"id":"x","content":"y"}`, time.Duration(i)*time.Second)
	}
	q := NewQueue(s.PG)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]string{}
	)
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner := fmt.Sprintf("w-%d", w)
			rows, err := q.ClaimPending(ctx, owner, 5, time.Minute)
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			for i := 1; i < len(rows); i++ {
				if rows[i].ReceivedAt.After(rows[i-1].ReceivedAt) {
					t.Errorf("rows not newest first")
				}
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range rows {
				if prev, dup := seen[r.ID]; dup {
					t.Errorf("row %d claimed by %s and %s", r.ID, prev, owner)
				}
				seen[r.ID] = owner
			}
		}()
	}
	wg.Wait()
	if len(seen) != 20 {
		t.Fatalf("claimed %d rows, want 20", len(seen))
	}

	more, err := q.ClaimPending(ctx, "late", 5, time.Minute)
	if err != nil || len(more) != 0 {
		t.Fatalf("leased rows claimed again: %d, %v", len(more), err)
	}
}

func TestClaimPendingLeaseExpiry(t *testing.T) {
	s := pgtest.Start(t)
	stage(t, s.PG, sources.Custom, "lease-1", `{"id":"lease-1","content":"y"}`, 0)
	q := NewQueue(s.PG)
	ctx := context.Background()

	rows, err := q.ClaimPending(ctx, "crashed", 10, 10*time.Millisecond)
	if err != nil || len(rows) != 1 {
		t.Fatalf("first claim = %d, %v", len(rows), err)
	}
	time.Sleep(100 * time.Millisecond)

	rows, err = q.ClaimPending(ctx, "rescuer", 10, time.Minute)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expired lease not reclaimed: %d, %v", len(rows), err)
	}

	ok, err := q.MarkDone(ctx, rows[0].ID)
	if err != nil || !ok {
		t.Fatalf("MarkDone = %v, %v", ok, err)
	}
	ok, err = q.MarkError(ctx, rows[0].ID, "late")
	if err != nil || ok {
		t.Fatalf("terminal row moved again: %v, %v", ok, err)
	}
	if st, _ := stateOf(t, s.PG, "lease-1"); st != "DONE" {
		t.Fatalf("state = %s", st)
	}
}

func TestOpportunityInsertOnce(t *testing.T) {
	s := pgtest.Start(t)
	o := repokit.MustBind(NewOpportunities(), s.PG)
	ctx := context.Background()

	opp := domain.Opportunity{
		ID:             "0b6a3f52-2d7e-4b8e-9b0e-6c1f6f1f0a01",
		Source:         sources.ForumPost,
		ExternalID:     "f-1",
		AnalysisSource: domain.AnalysisCapability,
		Judgment:       analysis.Judgment{IsValidOpportunity: true, Title: "t", Category: "Other", Severity: 5, OpportunityScore: 82},
	}
	ok, err := o.Insert(ctx, opp)
	if err != nil || !ok {
		t.Fatalf("insert = %v, %v", ok, err)
	}
	opp.ID = "0b6a3f52-2d7e-4b8e-9b0e-6c1f6f1f0a02"
	ok, err = o.Insert(ctx, opp)
	if err != nil || ok {
		t.Fatalf("second insert = %v, %v", ok, err)
	}
	exists, err := o.ExistsForSignal(ctx, sources.ForumPost, "f-1")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}
	exists, _ = o.ExistsForSignal(ctx, sources.Custom, "f-1")
	if exists {
		t.Fatalf("existence must be scoped by source")
	}
}

type scoreAnalyzer float64

func (s scoreAnalyzer) Analyze(context.Context, string, string) (analysis.Judgment, error) {
	return analysis.Judgment{
		IsValidOpportunity: true,
		Title:              "Shared grocery runs",
		Category:           "Technology",
		Severity:           8,
		OpportunityScore:   float64(s),
		FeasibilityScore:   65,
		Risks:              []string{"trust between neighbors"},
		NextSteps:          []string{"survey the forum"},
	}, nil
}

func (scoreAnalyzer) Provider() string { return "fixed" }

func TestPipelineForumPostScenario(t *testing.T) {
	s := pgtest.Start(t)
	stage(t, s.PG, sources.ForumPost, "f-100",
		`{"id":"f-100","title":"Groceries","body":"Is there an app to split grocery runs with neighbors? I would pay for it."}`, 0)
	stage(t, s.PG, sources.ForumPost, "f-101", `{"id":"f-101","body":"ok"}`, time.Second)

	p := service.New(service.Config{Owner: "it", MinScore: 50, MinTextLen: 20},
		NewQueue(s.PG), repokit.MustBind(NewOpportunities(), s.PG), scoreAnalyzer(82))
	rep, err := p.RunBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Selected != 2 || rep.Created != 1 || rep.SkippedShort != 1 {
		t.Fatalf("report = %+v", rep)
	}
	for _, id := range []string{"f-100", "f-101"} {
		if st, _ := stateOf(t, s.PG, id); st != "DONE" {
			t.Fatalf("%s state = %s", id, st)
		}
	}
	var score float64
	var src string
	err = s.PG.QueryRow(context.Background(),
		`SELECT opportunity_score, analysis_source FROM opportunities WHERE source_external_id = 'f-100'`,
	).Scan(&score, &src)
	if err != nil || score != 82 || src != domain.AnalysisCapability {
		t.Fatalf("opportunity = %v %q, %v", score, src, err)
	}
}
