// Package repo provides postgres access for staged signals and rate limit counters
package repo

import (
	"context"
	"time"

	"signalgate/internal/core/sources"
	"signalgate/internal/modkit/repokit"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/store"
	"signalgate/internal/services/ingest/domain"
)

type (
	signals  struct{ q repokit.Queryer }
	counters struct{ q repokit.Queryer }
)

// NewSignals returns a binder for the staged signal store
func NewSignals() repokit.Binder[domain.SignalStore] {
	return repokit.BindFunc[domain.SignalStore](func(q repokit.Queryer) domain.SignalStore {
		return &signals{q: q}
	})
}

// NewCounters returns a binder for the postgres rate limit counter
func NewCounters() repokit.Binder[domain.Counter] {
	return repokit.BindFunc[domain.Counter](func(q repokit.Queryer) domain.Counter {
		return &counters{q: q}
	})
}

// InsertOrDuplicate stages one signal; an existing (source, external_id) is a Duplicate
func (r *signals) InsertOrDuplicate(ctx context.Context, s domain.StagedSignal) (domain.InsertResult, error) {
	const sql = `
		INSERT INTO staged_signals (external_id, source_type, batch_id, raw_payload)
		VALUES ($1, $2::source_type, NULLIF($3, '')::uuid, $4::jsonb)
		ON CONFLICT (source_type, external_id) DO NOTHING
		RETURNING id
	`
	var id int64
	err := r.q.QueryRow(ctx, sql, s.ExternalID, string(s.Source), s.BatchID, string(s.Payload)).Scan(&id)
	switch {
	case err == nil:
		return domain.Inserted, nil
	case store.IsNoRows(err), perr.IsDuplicateKey(err):
		return domain.Duplicate, nil
	}
	return 0, perr.FromPostgres(err, "insert staged signal")
}

// InsertManyOrDuplicate stages xs in one statement; each row honors the unique key on its own
func (r *signals) InsertManyOrDuplicate(ctx context.Context, xs []domain.StagedSignal) ([]domain.InsertResult, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(xs))
	kinds := make([]string, len(xs))
	batches := make([]string, len(xs))
	payloads := make([]string, len(xs))
	for i, s := range xs {
		ids[i], kinds[i], batches[i], payloads[i] = s.ExternalID, string(s.Source), s.BatchID, string(s.Payload)
	}

	const sql = `
		INSERT INTO staged_signals (external_id, source_type, batch_id, raw_payload)
		SELECT x.external_id, x.source_type::source_type, NULLIF(x.batch_id, '')::uuid, x.raw_payload::jsonb
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[])
			AS x(external_id, source_type, batch_id, raw_payload)
		ON CONFLICT (source_type, external_id) DO NOTHING
		RETURNING source_type::text, external_id
	`
	rows, err := r.q.Query(ctx, sql, ids, kinds, batches, payloads)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return r.insertEach(ctx, xs)
		}
		return nil, perr.FromPostgres(err, "insert staged signals")
	}
	defer rows.Close()

	inserted := make(map[[2]string]bool, len(xs))
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, perr.FromPostgres(err, "scan staged signal")
		}
		inserted[[2]string{kind, id}] = true
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "insert staged signals")
	}

	out := make([]domain.InsertResult, len(xs))
	for i, s := range xs {
		k := [2]string{string(s.Source), s.ExternalID}
		if inserted[k] {
			out[i] = domain.Inserted
			delete(inserted, k) // a repeated key in xs only counts once
			continue
		}
		out[i] = domain.Duplicate
	}
	return out, nil
}

// insertEach is the row by row fallback when the bulk statement hits a unique violation
func (r *signals) insertEach(ctx context.Context, xs []domain.StagedSignal) ([]domain.InsertResult, error) {
	out := make([]domain.InsertResult, len(xs))
	for i, s := range xs {
		res, err := r.InsertOrDuplicate(ctx, s)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

// ExistingIDs returns the subset of ids already staged for source
func (r *signals) ExistingIDs(ctx context.Context, source sources.Kind, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const sql = `
		SELECT external_id FROM staged_signals
		WHERE source_type = $1::source_type AND external_id = ANY($2::text[])
	`
	found, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var id string
		return id, row.Scan(&id)
	}, sql, string(source), ids)
	if err != nil {
		return nil, perr.FromPostgres(err, "lookup staged ids")
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

// CountByState groups staged signals by source and processing state
func (r *signals) CountByState(ctx context.Context) ([]domain.StateCount, error) {
	const sql = `
		SELECT source_type::text, processing_state::text, count(*)
		FROM staged_signals
		GROUP BY 1, 2
		ORDER BY 1, 2
	`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.StateCount, error) {
		var c domain.StateCount
		var kind string
		err := row.Scan(&kind, &c.State, &c.Count)
		c.Source = sources.Kind(kind)
		return c, err
	}, sql)
	if err != nil {
		return nil, perr.FromPostgres(err, "count staged signals")
	}
	return out, nil
}

// Reserve grants up to requested slots in one conditional upsert
// No row back means the window is full
func (r *counters) Reserve(ctx context.Context, source sources.Kind, windowStart time.Time, requested, maxRequests int) (domain.Grant, error) {
	if requested <= 0 || maxRequests <= 0 {
		return domain.Grant{}, nil
	}
	const sql = `
		INSERT INTO rate_limit_counters AS c (source, window_start, count, max_requests, last_grant)
		VALUES ($1::source_type, $2, LEAST($3::int, $4::int), $4::int, LEAST($3::int, $4::int))
		ON CONFLICT (source, window_start) DO UPDATE
		SET count        = c.count + LEAST($3::int, $4::int - c.count),
		    last_grant   = LEAST($3::int, $4::int - c.count),
		    max_requests = $4::int,
		    updated_at   = now()
		WHERE c.count < $4::int
		RETURNING count, last_grant
	`
	var g domain.Grant
	err := r.q.QueryRow(ctx, sql, string(source), windowStart.UTC(), requested, maxRequests).Scan(&g.Count, &g.Granted)
	if store.IsNoRows(err) {
		return domain.Grant{}, nil
	}
	if err != nil {
		return domain.Grant{}, perr.FromPostgres(err, "reserve rate limit slots")
	}
	return g, nil
}

// Current reads the count for a window; an absent row is zero
func (r *counters) Current(ctx context.Context, source sources.Kind, windowStart time.Time) (int, error) {
	const sql = `SELECT count FROM rate_limit_counters WHERE source = $1::source_type AND window_start = $2`
	n, err := store.Scalar[int](ctx, r.q, sql, string(source), windowStart.UTC())
	if store.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, perr.FromPostgres(err, "read rate limit counter")
	}
	return n, nil
}
