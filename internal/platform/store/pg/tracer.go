package pg

import (
	"context"
	"fmt"
	"strings"

	"signalgate/internal/platform/logger"

	"github.com/rs/zerolog"
)

// maxArgLen caps how much of a single bind argument reaches the log; raw payloads can be large
const maxArgLen = 120

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives query events from the store adapters
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL, independent of the process-wide root level
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Info()
	switch {
	case ev.Err != nil:
		evt = z.log.Error()
	case ev.Slow:
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Strs("args", summarizeArgs(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// compact collapses whitespace runs into single spaces
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }

func summarizeArgs(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		var s string
		switch v := a.(type) {
		case []byte:
			s = string(v)
		case string:
			s = v
		default:
			s = fmt.Sprint(v)
		}
		if len(s) > maxArgLen {
			s = fmt.Sprintf("%s...(%d bytes)", s[:maxArgLen], len(s))
		}
		out[i] = s
	}
	return out
}
