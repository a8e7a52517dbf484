// Package audit appends ingest outcomes to the clickhouse ingest_events table
// Writes are best effort: a full buffer or a failed insert is logged and dropped
package audit

import (
	"context"
	"sync"
	"time"

	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/store"
	"signalgate/internal/services/ingest/domain"
)

// Table is the clickhouse table events land in
const Table = "ingest_events"

var columns = []string{"ts", "source", "external_id", "batch_id", "status", "reason", "request_id"}

// Options tunes the sink buffer
type Options struct {
	Buffer        int
	FlushSize     int
	FlushInterval time.Duration
	WriteTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = 4096
	}
	if o.FlushSize <= 0 {
		o.FlushSize = 256
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	return o
}

// Sink buffers events and flushes them in batches from Run
type Sink struct {
	ch   store.Clickhouse
	opts Options
	in   chan domain.AuditEvent

	mu      sync.Mutex
	dropped int64
}

// New returns a Sink over ch, or Nop when ch is nil
func New(ch store.Clickhouse, opts Options) domain.Auditor {
	if ch == nil {
		return Nop{}
	}
	return NewSink(ch, opts)
}

// NewSink builds a Sink; call Run to start flushing
func NewSink(ch store.Clickhouse, opts Options) *Sink {
	opts = opts.withDefaults()
	return &Sink{ch: ch, opts: opts, in: make(chan domain.AuditEvent, opts.Buffer)}
}

// Record enqueues events without blocking
func (s *Sink) Record(_ context.Context, events ...domain.AuditEvent) {
	for _, e := range events {
		select {
		case s.in <- e:
		default:
			s.mu.Lock()
			s.dropped++
			n := s.dropped
			s.mu.Unlock()
			if n == 1 || n%1000 == 0 {
				logger.Named("audit").Warn().Int64("dropped", n).Msg("audit buffer full; dropping events")
			}
		}
	}
}

// Dropped reports how many events were discarded because the buffer was full
func (s *Sink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Run flushes until ctx is done, then drains what is left
func (s *Sink) Run(ctx context.Context) {
	t := time.NewTicker(s.opts.FlushInterval)
	defer t.Stop()

	batch := make([]domain.AuditEvent, 0, s.opts.FlushSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.write(batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-s.in:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		case e := <-s.in:
			batch = append(batch, e)
			if len(batch) >= s.opts.FlushSize {
				flush()
			}
		case <-t.C:
			flush()
		}
	}
}

func (s *Sink) write(events []domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			e.At.UTC(), e.Source, e.ExternalID, e.BatchID, string(e.Status), e.Reason, e.RequestID,
		})
	}
	if err := s.ch.Insert(ctx, Table, columns, rows); err != nil {
		logger.Named("audit").Warn().Err(err).Int("events", len(events)).Msg("audit insert failed")
	}
}

// Nop discards events
type Nop struct{}

// Record implements domain.Auditor
func (Nop) Record(context.Context, ...domain.AuditEvent) {}
