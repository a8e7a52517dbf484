//go:build integration_pg

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"signalgate/internal/core/sources"
	"signalgate/internal/modkit/repokit"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/store/pgtest"
	"signalgate/internal/services/ingest/domain"
	"signalgate/internal/services/ingest/service"
)

func TestReserveConcurrentNeverOvershoots(t *testing.T) {
	s := pgtest.Start(t)
	c := repokit.MustBind(NewCounters(), s.PG)
	ctx := context.Background()
	window := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	const limit = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range limit + 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := c.Reserve(ctx, sources.ForumPost, window, 1, limit)
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			mu.Lock()
			granted += g.Granted
			mu.Unlock()
		}()
	}
	wg.Wait()

	if granted != limit {
		t.Fatalf("granted %d, want %d", granted, limit)
	}
	cur, err := c.Current(ctx, sources.ForumPost, window)
	if err != nil || cur != limit {
		t.Fatalf("Current = %d, %v", cur, err)
	}
}

func TestSubmitConcurrentAgainstPostgres(t *testing.T) {
	s := pgtest.Start(t)
	const limit, extra, key = 20, 5, "it-secret"
	svc := service.New(
		service.Config{GlobalSecret: key, DefaultLimit: limit, MaxBatch: 500},
		repokit.MustBind(NewSignals(), s.PG),
		repokit.MustBind(NewCounters(), s.PG),
		service.WithClock(func() time.Time { return time.Date(2026, 3, 1, 15, 0, 10, 0, time.UTC) }),
	)

	var (
		wg                sync.WaitGroup
		mu                sync.Mutex
		accepted, limited int
	)
	for i := range limit + extra {
		wg.Go(func() {
			body := []byte(fmt.Sprintf(`{"id":"pg-%d","text":"hello"}`, i))
			_, err := svc.Submit(context.Background(), domain.SubmitInput{
				Source: "social-post", RawBody: body, Signature: service.Sign(key, body),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case perr.IsCode(err, perr.ErrorCodeTooManyRequests):
				limited++
			default:
				t.Errorf("Submit: %v", err)
			}
		})
	}
	wg.Wait()

	if accepted != limit || limited != extra {
		t.Fatalf("accepted=%d limited=%d, want %d and %d", accepted, limited, limit, extra)
	}
	var staged int
	if err := s.PG.QueryRow(context.Background(),
		`SELECT count(*) FROM staged_signals WHERE source_type = 'social-post'`).Scan(&staged); err != nil {
		t.Fatalf("count: %v", err)
	}
	if staged != limit {
		t.Fatalf("staged = %d, want %d", staged, limit)
	}
}

func TestReservePartialGrant(t *testing.T) {
	s := pgtest.Start(t)
	c := repokit.MustBind(NewCounters(), s.PG)
	ctx := context.Background()
	window := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	g, err := c.Reserve(ctx, sources.Custom, window, 150, 100)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if g.Granted != 100 || g.Count != 100 {
		t.Fatalf("grant = %+v", g)
	}
	g, err = c.Reserve(ctx, sources.Custom, window, 1, 100)
	if err != nil || g.Granted != 0 {
		t.Fatalf("full window grant = %+v, %v", g, err)
	}
	g, err = c.Reserve(ctx, sources.Custom, window.Add(time.Minute), 1, 100)
	if err != nil || g.Granted != 1 {
		t.Fatalf("next window grant = %+v, %v", g, err)
	}
}

func TestInsertManyAndDuplicates(t *testing.T) {
	s := pgtest.Start(t)
	st := repokit.MustBind(NewSignals(), s.PG)
	ctx := context.Background()

	mk := func(id string) domain.StagedSignal {
		b, _ := json.Marshal(map[string]any{"id": id, "content": "hello"})
		return domain.StagedSignal{Source: sources.Custom, ExternalID: id, Payload: b}
	}

	res, err := st.InsertOrDuplicate(ctx, mk("a"))
	if err != nil || res != domain.Inserted {
		t.Fatalf("first insert = %v, %v", res, err)
	}
	res, err = st.InsertOrDuplicate(ctx, mk("a"))
	if err != nil || res != domain.Duplicate {
		t.Fatalf("second insert = %v, %v", res, err)
	}

	batch := make([]domain.StagedSignal, 0, 150)
	for i := range 150 {
		batch = append(batch, mk(fmt.Sprintf("b-%03d", i)))
	}
	batch[10] = mk("a")
	out, err := st.InsertManyOrDuplicate(ctx, batch)
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	dups := 0
	for _, r := range out {
		if r == domain.Duplicate {
			dups++
		}
	}
	if len(out) != 150 || dups != 1 || out[10] != domain.Duplicate {
		t.Fatalf("results len=%d dups=%d out[10]=%v", len(out), dups, out[10])
	}

	got, err := st.ExistingIDs(ctx, sources.Custom, []string{"a", "b-000", "zzz"})
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if _, ok := got["zzz"]; ok || len(got) != 2 {
		t.Fatalf("existing = %v", got)
	}

	counts, err := st.CountByState(ctx)
	if err != nil {
		t.Fatalf("CountByState: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != 150 || counts[0].State != "PENDING" {
		t.Fatalf("counts = %+v", counts)
	}
}
