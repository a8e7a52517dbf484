package service

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"signalgate/internal/adapters/analysis"
	"signalgate/internal/core/sources"
	"signalgate/internal/services/extract/domain"
)

type row struct {
	sig    domain.Signal
	state  string
	detail string
	owner  string
}

type memQueue struct {
	mu    sync.Mutex
	rows  map[int64]*row
	next  int64
	lease time.Duration // last lease asked for
}

func newMemQueue() *memQueue { return &memQueue{rows: map[int64]*row{}} }

func (q *memQueue) add(kind sources.Kind, id string, payload any, at time.Time) int64 {
	b, _ := json.Marshal(payload)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.rows[q.next] = &row{
		sig:   domain.Signal{ID: q.next, Source: kind, ExternalID: id, Payload: b, ReceivedAt: at},
		state: "PENDING",
	}
	return q.next
}

func (q *memQueue) get(id int64) row {
	q.mu.Lock()
	defer q.mu.Unlock()
	return *q.rows[id]
}

func (q *memQueue) ClaimPending(_ context.Context, owner string, limit int, lease time.Duration) ([]domain.Signal, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lease = lease
	var ready []*row
	for _, r := range q.rows {
		if r.state == "PENDING" && r.owner == "" {
			ready = append(ready, r)
		}
	}
	slices.SortFunc(ready, func(a, b *row) int { return b.sig.ReceivedAt.Compare(a.sig.ReceivedAt) })
	var out []domain.Signal
	for _, r := range ready[:min(limit, len(ready))] {
		r.owner = owner
		out = append(out, r.sig)
	}
	return out, nil
}

func (q *memQueue) settle(id int64, state, detail string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	r := q.rows[id]
	if r == nil || r.state != "PENDING" {
		return false
	}
	r.state, r.detail, r.owner = state, detail, ""
	return true
}

func (q *memQueue) MarkDone(_ context.Context, id int64) (bool, error) {
	return q.settle(id, "DONE", ""), nil
}

func (q *memQueue) MarkError(_ context.Context, id int64, detail string) (bool, error) {
	return q.settle(id, "ERROR", detail), nil
}

type memOpps struct {
	mu        sync.Mutex
	byKey     map[string]domain.Opportunity
	insertErr error
	// exists overrides the lookup when set
	exists func(ctx context.Context, id string) (bool, error)
}

func newMemOpps() *memOpps { return &memOpps{byKey: map[string]domain.Opportunity{}} }

func oppKey(k sources.Kind, id string) string { return string(k) + "/" + id }

func (m *memOpps) ExistsForSignal(ctx context.Context, k sources.Kind, id string) (bool, error) {
	if m.exists != nil {
		return m.exists(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byKey[oppKey(k, id)]
	return ok, nil
}

func (m *memOpps) Insert(_ context.Context, o domain.Opportunity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	k := oppKey(o.Source, o.ExternalID)
	if _, ok := m.byKey[k]; ok {
		return false, nil
	}
	m.byKey[k] = o
	return true, nil
}

func (m *memOpps) get(k sources.Kind, id string) (domain.Opportunity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byKey[oppKey(k, id)]
	return o, ok
}

// fakeAnalyzer answers with fn and counts calls
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, text string) (analysis.Judgment, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text, _ string) (analysis.Judgment, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, text)
}

func (f *fakeAnalyzer) Provider() string { return "fake" }

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func answer(j analysis.Judgment) *fakeAnalyzer {
	return &fakeAnalyzer{fn: func(context.Context, string) (analysis.Judgment, error) { return j, nil }}
}

func failing(err error) *fakeAnalyzer {
	return &fakeAnalyzer{fn: func(context.Context, string) (analysis.Judgment, error) { return analysis.Judgment{}, err }}
}

func testConfig() Config {
	return Config{Concurrency: 3, TaskTimeout: time.Second, MinScore: 50, MinTextLen: 20, Batch: 50, Owner: "test"}
}
