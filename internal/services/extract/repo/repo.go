// Package repo provides postgres access for the extraction pipeline
package repo

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"signalgate/internal/core/sources"
	"signalgate/internal/modkit/repokit"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/store"
	"signalgate/internal/services/extract/domain"
)

const (
	// claimLockTimeout bounds the wait on row locks SKIP LOCKED does not cover
	claimLockTimeout = 5 * time.Second
	claimStmtTimeout = 15 * time.Second
)

type (
	queue struct {
		q  repokit.Queryer
		tx repokit.TxRunner
	}
	opportunities struct{ q repokit.Queryer }
)

// NewQueue returns the staged signal queue; claims run in their own tx
func NewQueue(db repokit.TxRunner) domain.SignalQueue {
	if db == nil {
		panic("extract.repo requires a non nil TxRunner")
	}
	return &queue{q: db, tx: repokit.WithBeginHooks(db,
		repokit.LockTimeout(claimLockTimeout),
		repokit.StatementTimeout(claimStmtTimeout),
	)}
}

// NewOpportunities returns a binder for the opportunity store
func NewOpportunities() repokit.Binder[domain.OpportunityStore] {
	return repokit.BindFunc[domain.OpportunityStore](func(q repokit.Queryer) domain.OpportunityStore {
		return &opportunities{q: q}
	})
}

// ClaimPending leases rows that are PENDING and unclaimed or whose lease expired
func (r *queue) ClaimPending(ctx context.Context, owner string, limit int, lease time.Duration) ([]domain.Signal, error) {
	if limit <= 0 {
		return nil, nil
	}
	const sql = `
		WITH ready AS (
			SELECT id
			FROM staged_signals
			WHERE processing_state = 'PENDING'
			  AND (claimed_until IS NULL OR claimed_until < now())
			ORDER BY received_at DESC, id DESC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE staged_signals s
		SET claimed_by    = $2,
		    claimed_until = now() + make_interval(secs => $3::float8)
		FROM ready
		WHERE s.id = ready.id
		RETURNING s.id, s.source_type::text, s.external_id, s.raw_payload::text, s.received_at
	`
	var out []domain.Signal
	err := repokit.WithTx(ctx, r.tx, func(q repokit.Queryer) error {
		var err error
		out, err = store.Many(ctx, q, func(row store.Row) (domain.Signal, error) {
			var s domain.Signal
			var kind, payload string
			err := row.Scan(&s.ID, &kind, &s.ExternalID, &payload, &s.ReceivedAt)
			s.Source, s.Payload = sources.Kind(kind), json.RawMessage(payload)
			return s, err
		}, sql, limit, owner, lease.Seconds())
		return err
	})
	if err != nil {
		return nil, perr.FromPostgres(err, "claim pending signals")
	}
	// RETURNING has no order
	slices.SortFunc(out, func(a, b domain.Signal) int {
		if c := b.ReceivedAt.Compare(a.ReceivedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// MarkDone moves a PENDING row to DONE
func (r *queue) MarkDone(ctx context.Context, id int64) (bool, error) {
	const sql = `
		UPDATE staged_signals
		SET processing_state = 'DONE', processed_at = now(), error_detail = NULL,
		    claimed_by = NULL, claimed_until = NULL
		WHERE id = $1 AND processing_state = 'PENDING'
	`
	n, err := store.Exec(ctx, r.q, sql, id)
	if err != nil {
		return false, perr.FromPostgresf(err, "mark signal %d done", id)
	}
	return n == 1, nil
}

// MarkError moves a PENDING row to ERROR with detail
func (r *queue) MarkError(ctx context.Context, id int64, detail string) (bool, error) {
	const sql = `
		UPDATE staged_signals
		SET processing_state = 'ERROR', processed_at = now(), error_detail = $2,
		    claimed_by = NULL, claimed_until = NULL
		WHERE id = $1 AND processing_state = 'PENDING'
	`
	n, err := store.Exec(ctx, r.q, sql, id, detail)
	if err != nil {
		return false, perr.FromPostgresf(err, "mark signal %d error", id)
	}
	return n == 1, nil
}

// ExistsForSignal reports whether an opportunity was already recorded for the signal
func (r *opportunities) ExistsForSignal(ctx context.Context, source sources.Kind, externalID string) (bool, error) {
	const sql = `
		SELECT EXISTS (
			SELECT 1 FROM opportunities
			WHERE source_type = $1::source_type AND source_external_id = $2
		)
	`
	ok, err := store.Scalar[bool](ctx, r.q, sql, string(source), externalID)
	if err != nil {
		return false, perr.FromPostgres(err, "lookup opportunity")
	}
	return ok, nil
}

// Insert records o; false means one already existed for the signal
func (r *opportunities) Insert(ctx context.Context, o domain.Opportunity) (bool, error) {
	j := o.Judgment
	risks, err := json.Marshal(nonNil(j.Risks))
	if err != nil {
		return false, err
	}
	steps, err := json.Marshal(nonNil(j.NextSteps))
	if err != nil {
		return false, err
	}
	const sql = `
		INSERT INTO opportunities (
			id, source_type, source_external_id, title, description, category, subcategory,
			severity, opportunity_score, feasibility_score, market_size_estimate,
			competition_level, target_audience, risks, next_steps, analysis_source
		) VALUES (
			$1::uuid, $2::source_type, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14::jsonb, $15::jsonb, $16
		)
		ON CONFLICT (source_type, source_external_id) DO NOTHING
	`
	n, err := store.Exec(ctx, r.q, sql,
		o.ID, string(o.Source), o.ExternalID, j.Title, j.Description, j.Category, j.Subcategory,
		j.Severity, j.OpportunityScore, j.FeasibilityScore, j.MarketSizeEstimate,
		j.CompetitionLevel, j.TargetAudience, string(risks), string(steps), o.AnalysisSource,
	)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return false, nil
		}
		return false, perr.FromPostgres(err, "insert opportunity")
	}
	return n == 1, nil
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
