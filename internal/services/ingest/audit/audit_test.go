package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signalgate/internal/platform/store"
	"signalgate/internal/services/ingest/domain"
)

type fakeCH struct {
	store.Clickhouse

	mu     sync.Mutex
	tables []string
	rows   [][]any
	err    error
}

func (f *fakeCH) Insert(_ context.Context, table string, _ []string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, table)
	f.rows = append(f.rows, rows...)
	return f.err
}

func (f *fakeCH) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func event(id string) domain.AuditEvent {
	return domain.AuditEvent{At: time.Now(), Source: "forum-post", ExternalID: id, Status: domain.StatusAccepted}
}

func TestNewWithoutClickhouseIsNop(t *testing.T) {
	if _, ok := New(nil, Options{}).(Nop); !ok {
		t.Fatal("want Nop when clickhouse is disabled")
	}
	Nop{}.Record(context.Background(), event("a"))
}

func TestRunFlushesOnSizeAndDrainsOnStop(t *testing.T) {
	ch := &fakeCH{}
	s := NewSink(ch, Options{FlushSize: 2, FlushInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	s.Record(context.Background(), event("a"), event("b"))
	deadline := time.Now().Add(2 * time.Second)
	for ch.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ch.count() != 2 {
		t.Fatalf("size flush wrote %d rows", ch.count())
	}

	s.Record(context.Background(), event("c"))
	cancel()
	<-done
	if ch.count() != 3 {
		t.Fatalf("drain wrote %d rows, want 3", ch.count())
	}
	if ch.tables[0] != Table {
		t.Fatalf("table = %s", ch.tables[0])
	}
	if got := ch.rows[2][2]; got != "c" {
		t.Fatalf("external_id column = %v", got)
	}
}

func TestRecordDropsWhenFull(t *testing.T) {
	s := NewSink(&fakeCH{}, Options{Buffer: 1})
	s.Record(context.Background(), event("a"), event("b"), event("c"))
	if s.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", s.Dropped())
	}
}

func TestInsertErrorsAreSwallowed(t *testing.T) {
	ch := &fakeCH{err: errors.New("ch down")}
	s := NewSink(ch, Options{})
	s.write([]domain.AuditEvent{event("a")})
	if ch.count() != 1 {
		t.Fatalf("insert not attempted")
	}
}
