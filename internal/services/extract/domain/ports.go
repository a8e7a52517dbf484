package domain

import (
	"context"
	"time"

	"signalgate/internal/core/sources"
)

// SignalQueue is the pipeline side of the staged signal table
type SignalQueue interface {
	// ClaimPending leases up to limit PENDING rows, newest first
	ClaimPending(ctx context.Context, owner string, limit int, lease time.Duration) ([]Signal, error)
	// MarkDone and MarkError only move PENDING rows; false means another runner got there first
	MarkDone(ctx context.Context, id int64) (bool, error)
	MarkError(ctx context.Context, id int64, detail string) (bool, error)
}

// OpportunityStore persists judgments; the pipeline never updates or deletes
type OpportunityStore interface {
	ExistsForSignal(ctx context.Context, source sources.Kind, externalID string) (bool, error)
	Insert(ctx context.Context, o Opportunity) (bool, error)
}

// PipelinePort runs one extraction batch
type PipelinePort interface {
	RunBatch(ctx context.Context, limit int) (Report, error)
}

// RunInput is the admin request for a synchronous batch
type RunInput struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=500" example:"50"`
}
