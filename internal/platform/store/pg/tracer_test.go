package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	in := "SELECT id\n\t FROM staged_signals\r\n  WHERE processing_state = 'PENDING'"
	want := "SELECT id FROM staged_signals WHERE processing_state = 'PENDING'"
	if got := compact(in); got != want {
		t.Fatalf("compact = %q", got)
	}
}

func TestSummarizeArgsTruncatesLargePayloads(t *testing.T) {
	big := []byte(strings.Repeat("x", 500))
	got := summarizeArgs([]any{"forum-post", 42, big})
	if got[0] != "forum-post" || got[1] != "42" {
		t.Fatalf("small args changed: %v", got)
	}
	if !strings.HasSuffix(got[2], "...(500 bytes)") || len(got[2]) > maxArgLen+20 {
		t.Fatalf("big arg not truncated: %q", got[2])
	}
}

func TestTracerLevels(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	tr.OnQuery(context.Background(), QueryEvent{SQL: "select 1", ElapsedUS: 1500})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "select 2", Slow: true})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "select 3", Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d: %s", len(lines), buf.String())
	}
	for i, lvl := range []string{`"level":"info"`, `"level":"warn"`, `"level":"error"`} {
		if !strings.Contains(lines[i], lvl) || !strings.Contains(lines[i], `"component":"pg"`) {
			t.Fatalf("line %d = %s", i, lines[i])
		}
	}
	if !strings.Contains(lines[0], `"elapsed_ms":1.5`) {
		t.Fatalf("elapsed missing: %s", lines[0])
	}
}
