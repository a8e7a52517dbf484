package service

import (
	"context"
	"sync"
	"time"

	"signalgate/internal/core/sources"
	"signalgate/internal/services/ingest/domain"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.StagedSignal
	// staged behind the pre-check, as if a concurrent writer won the race
	hidden map[string]bool
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]domain.StagedSignal{}, hidden: map[string]bool{}}
}

func key(k sources.Kind, id string) string { return string(k) + "/" + id }

func (m *memStore) InsertOrDuplicate(_ context.Context, s domain.StagedSignal) (domain.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(s.Source, s.ExternalID)
	if _, ok := m.rows[k]; ok || m.hidden[k] {
		return domain.Duplicate, nil
	}
	m.rows[k] = s
	return domain.Inserted, nil
}

func (m *memStore) InsertManyOrDuplicate(ctx context.Context, xs []domain.StagedSignal) ([]domain.InsertResult, error) {
	out := make([]domain.InsertResult, len(xs))
	for i, s := range xs {
		out[i], _ = m.InsertOrDuplicate(ctx, s)
	}
	return out, nil
}

func (m *memStore) ExistingIDs(_ context.Context, k sources.Kind, ids []string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := m.rows[key(k, id)]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (m *memStore) CountByState(context.Context) ([]domain.StateCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	per := map[sources.Kind]int64{}
	for _, r := range m.rows {
		per[r.Source]++
	}
	var out []domain.StateCount
	for _, k := range sources.All() {
		if n := per[k]; n > 0 {
			out = append(out, domain.StateCount{Source: k, State: "PENDING", Count: n})
		}
	}
	return out, nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memCounter struct {
	mu       sync.Mutex
	counts   map[string]int
	reserves int
}

func newMemCounter() *memCounter { return &memCounter{counts: map[string]int{}} }

func (c *memCounter) Reserve(_ context.Context, k sources.Kind, ws time.Time, requested, maxRequests int) (domain.Grant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserves++
	key := string(k) + ws.Format(time.RFC3339)
	grant := max(0, min(requested, maxRequests-c.counts[key]))
	c.counts[key] += grant
	return domain.Grant{Granted: grant, Count: c.counts[key]}, nil
}

func (c *memCounter) Current(_ context.Context, k sources.Kind, ws time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[string(k)+ws.Format(time.RFC3339)], nil
}

type memAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *memAudit) Record(_ context.Context, events ...domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, events...)
}
