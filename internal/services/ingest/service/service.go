// Package service implements the ingestion gateway: authenticate, validate, dedupe, admit, stage
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"signalgate/internal/core/sources"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
	"signalgate/internal/platform/net/http/bind"
	"signalgate/internal/services/ingest/audit"
	"signalgate/internal/services/ingest/domain"

	"github.com/google/uuid"
)

// Service is the gateway plus its admin views
type Service interface {
	domain.ServicePort
	domain.AdminPort
}

// Svc implements Service
type Svc struct {
	cfg     Config
	signals domain.SignalStore
	counter domain.Counter
	audit   domain.Auditor
	metrics *metrics.Registry
	now     func() time.Time
}

// Option customizes a Svc
type Option func(*Svc)

// WithAuditor sets the audit sink
func WithAuditor(a domain.Auditor) Option { return func(s *Svc) { s.audit = a } }

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) Option { return func(s *Svc) { s.metrics = m } }

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(s *Svc) { s.now = now } }

// New builds the gateway over a signal store and a window counter
func New(cfg Config, signals domain.SignalStore, counter domain.Counter, opts ...Option) *Svc {
	if signals == nil {
		panic("ingest.Service requires a non nil SignalStore")
	}
	if counter == nil {
		panic("ingest.Service requires a non nil Counter")
	}
	s := &Svc{cfg: cfg, signals: signals, counter: counter, audit: audit.Nop{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit stages one signed payload
func (s *Svc) Submit(ctx context.Context, in domain.SubmitInput) (domain.SubmitResult, error) {
	kind, err := sources.ParseKind(in.Source)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	ctx = logger.WithSource(logger.WithRequest(ctx, in.RequestID), string(kind))
	src := sources.MustLookup(kind)
	ev := domain.AuditEvent{At: s.now(), Source: string(kind), RequestID: in.RequestID}

	if err := s.authenticate(kind, in.RawBody, in.Signature); err != nil {
		s.reject(ctx, ev, err)
		return domain.SubmitResult{}, err
	}

	payload, err := decodeObject(in.RawBody)
	if err != nil {
		s.reject(ctx, ev, err)
		return domain.SubmitResult{}, err
	}
	id, err := validate(src, payload)
	if err != nil {
		s.reject(ctx, ev, err)
		return domain.SubmitResult{}, err
	}
	ev.ExternalID = id
	out := domain.SubmitResult{Source: kind, ExternalID: id}

	existing, err := s.signals.ExistingIDs(ctx, kind, []string{id})
	if err != nil {
		return out, err
	}
	if _, ok := existing[id]; ok {
		out.Status = domain.StatusDuplicate
		s.record(ctx, ev, out.Status, "already staged")
		return out, nil
	}

	now := s.now()
	g, err := s.counter.Reserve(ctx, kind, domain.WindowStart(now), 1, s.cfg.LimitFor(kind))
	if err != nil {
		return out, err
	}
	s.metrics.RateLimitReserve(string(kind), 1, g.Granted)
	if g.Granted < 1 {
		retry := domain.RetryAfter(now)
		s.record(ctx, ev, domain.StatusRateLimited, "window full")
		return out, domain.NewRateLimitError(retry)
	}

	res, err := s.signals.InsertOrDuplicate(ctx, domain.StagedSignal{
		Source:     kind,
		ExternalID: id,
		Payload:    compact(in.RawBody),
	})
	if err != nil {
		return out, err
	}
	out.Status = domain.StatusAccepted
	if res == domain.Duplicate {
		out.Status = domain.StatusDuplicate
	}
	s.record(ctx, ev, out.Status, "")
	return out, nil
}

type candidate struct {
	index int
	id    string
	raw   json.RawMessage
}

// SubmitBatch stages a signed array; validation and dedupe are free, admission is partial
func (s *Svc) SubmitBatch(ctx context.Context, in domain.BatchInput) (domain.BatchResult, error) {
	kind, err := sources.ParseKind(in.Source)
	if err != nil {
		return domain.BatchResult{}, err
	}
	ctx = logger.WithSource(logger.WithRequest(ctx, in.RequestID), string(kind))
	src := sources.MustLookup(kind)
	ev := domain.AuditEvent{At: s.now(), Source: string(kind), RequestID: in.RequestID}

	if err := s.authenticate(kind, in.RawBody, in.Signature); err != nil {
		s.reject(ctx, ev, err)
		return domain.BatchResult{}, err
	}

	items, err := decodeBatch(in.RawBody)
	if err != nil {
		return domain.BatchResult{}, err
	}
	if n, limit := len(items), s.cfg.maxBatch(); n > limit {
		return domain.BatchResult{}, perr.WithField(perr.Validationf("batch has %d items; max is %d", n, limit), "items")
	}

	batchID := uuid.NewString()
	ev.BatchID = batchID
	out := domain.BatchResult{
		BatchID: batchID,
		Source:  kind,
		Items:   make([]domain.ItemResult, len(items)),
		Totals:  map[domain.Status]int{},
	}

	// phase 1: validate and dedupe without touching quota
	seen := make(map[string]struct{}, len(items))
	cands := make([]candidate, 0, len(items))
	for i, raw := range items {
		it := &out.Items[i]
		it.Index = i

		payload, err := decodeObject(raw)
		if err == nil {
			it.ExternalID, err = validate(src, payload)
		}
		if err != nil {
			it.Status = domain.StatusRejected
			it.Reason = perr.WireFrom(err).Message
			it.MissingFields = domain.MissingFieldsOf(err)
			continue
		}
		if _, dup := seen[it.ExternalID]; dup {
			it.Status = domain.StatusDuplicate
			it.Reason = "repeated in batch"
			continue
		}
		seen[it.ExternalID] = struct{}{}
		cands = append(cands, candidate{index: i, id: it.ExternalID, raw: raw})
	}

	if len(cands) > 0 {
		ids := make([]string, len(cands))
		for i, c := range cands {
			ids[i] = c.id
		}
		existing, err := s.signals.ExistingIDs(ctx, kind, ids)
		if err != nil {
			return domain.BatchResult{}, err
		}
		valid := cands[:0]
		for _, c := range cands {
			if _, ok := existing[c.id]; ok {
				out.Items[c.index].Status = domain.StatusDuplicate
				out.Items[c.index].Reason = "already staged"
				continue
			}
			valid = append(valid, c)
		}
		cands = valid
	}

	// phase 2: reserve once for all valid items and admit the first granted in order
	if len(cands) > 0 {
		now := s.now()
		g, err := s.counter.Reserve(ctx, kind, domain.WindowStart(now), len(cands), s.cfg.LimitFor(kind))
		if err != nil {
			return domain.BatchResult{}, err
		}
		s.metrics.RateLimitReserve(string(kind), len(cands), g.Granted)
		granted := min(max(g.Granted, 0), len(cands))

		admitted := cands[:granted]
		rows := make([]domain.StagedSignal, len(admitted))
		for i, c := range admitted {
			rows[i] = domain.StagedSignal{Source: kind, ExternalID: c.id, BatchID: batchID, Payload: compact(c.raw)}
		}
		results, err := s.signals.InsertManyOrDuplicate(ctx, rows)
		if err != nil {
			return domain.BatchResult{}, err
		}
		for i, c := range admitted {
			it := &out.Items[c.index]
			it.Status = domain.StatusAccepted
			if i < len(results) && results[i] == domain.Duplicate {
				it.Status = domain.StatusDuplicate
				it.Reason = "already staged"
			}
		}
		if rest := cands[granted:]; len(rest) > 0 {
			out.RetryAfterSeconds = domain.RetryAfter(now)
			for _, c := range rest {
				out.Items[c.index].Status = domain.StatusRateLimited
				out.Items[c.index].Reason = "window full"
			}
		}
	}

	events := make([]domain.AuditEvent, 0, len(out.Items))
	for _, it := range out.Items {
		out.Totals[it.Status]++
		s.metrics.IngestItem(string(kind), string(it.Status))
		e := ev
		e.ExternalID, e.Status, e.Reason = it.ExternalID, it.Status, it.Reason
		events = append(events, e)
	}
	s.audit.Record(ctx, events...)

	logger.C(ctx).Info().
		Str("component", "ingest").
		Str("batch_id", batchID).
		Int("items", len(out.Items)).
		Int("accepted", out.Count(domain.StatusAccepted)).
		Int("duplicate", out.Count(domain.StatusDuplicate)).
		Int("rate_limited", out.Count(domain.StatusRateLimited)).
		Int("rejected", out.Count(domain.StatusRejected)).
		Msg("batch staged")
	return out, nil
}

// Stats implements domain.AdminPort
func (s *Svc) Stats(ctx context.Context) ([]domain.StateCount, error) {
	return s.signals.CountByState(ctx)
}

// RateLimit implements domain.AdminPort
func (s *Svc) RateLimit(ctx context.Context, source string) (domain.WindowState, error) {
	kind, err := sources.ParseKind(source)
	if err != nil {
		return domain.WindowState{}, err
	}
	now := s.now()
	ws := domain.WindowStart(now)
	n, err := s.counter.Current(ctx, kind, ws)
	if err != nil {
		return domain.WindowState{}, err
	}
	limit := s.cfg.LimitFor(kind)
	return domain.WindowState{
		Source:      kind,
		WindowStart: ws,
		Count:       n,
		Max:         limit,
		Remaining:   max(0, limit-n),
		ResetsIn:    domain.RetryAfter(now),
	}, nil
}

func (s *Svc) authenticate(kind sources.Kind, body []byte, header string) error {
	if s.cfg.DevMode {
		return nil
	}
	secret := s.cfg.SecretFor(kind)
	switch {
	case secret == "":
		s.metrics.IngestAuthFailure(string(kind))
		return domain.NewAuthenticationError("no secret configured for source")
	case header == "":
		s.metrics.IngestAuthFailure(string(kind))
		return domain.NewAuthenticationError("missing signature")
	case !verify(secret, body, header):
		s.metrics.IngestAuthFailure(string(kind))
		return domain.NewAuthenticationError("signature mismatch")
	}
	return nil
}

func (s *Svc) record(ctx context.Context, ev domain.AuditEvent, status domain.Status, reason string) {
	ev.Status, ev.Reason = status, reason
	s.metrics.IngestItem(ev.Source, string(status))
	s.audit.Record(ctx, ev)
	logger.C(ctx).Debug().
		Str("component", "ingest").
		Str("external_id", ev.ExternalID).
		Str("status", string(status)).
		Msg("signal submitted")
}

func (s *Svc) reject(ctx context.Context, ev domain.AuditEvent, err error) {
	ev.Status, ev.Reason = domain.StatusRejected, perr.WireFrom(err).Message
	s.metrics.IngestItem(ev.Source, string(domain.StatusRejected))
	s.audit.Record(ctx, ev)
	logger.C(ctx).Info().Str("component", "ingest").Err(err).Msg("submission rejected")
}

// validate checks required fields then extracts the external id
func validate(src sources.Source, payload sources.Payload) (string, error) {
	if missing := bind.MissingFields(payload, src.Required()); len(missing) > 0 {
		return "", domain.NewValidationError(missing)
	}
	id, ok := src.ExternalID(payload)
	if !ok {
		return "", perr.WithField(perr.Validationf("external id must be a non empty string or integer"), src.Required()[0])
	}
	return id, nil
}

func decodeObject(raw []byte) (sources.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p sources.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, perr.JSONErrf("payload must be a JSON object: %v", err)
	}
	if dec.More() {
		return nil, perr.JSONErrf("unexpected trailing data")
	}
	if p == nil {
		return nil, perr.JSONErrf("payload must be a JSON object")
	}
	return p, nil
}

// decodeBatch accepts [...] or {"items": [...]}
func decodeBatch(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, perr.JSONErrf("empty body")
	}
	var items []json.RawMessage
	if trimmed[0] == '{' {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, perr.JSONErrf("invalid batch: %v", err)
		}
		if wrapped.Items == nil {
			return nil, perr.WithField(perr.Validationf("batch object must carry an items array"), "items")
		}
		return wrapped.Items, nil
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, perr.JSONErrf("batch must be a JSON array: %v", err)
	}
	return items, nil
}

func compact(raw []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
