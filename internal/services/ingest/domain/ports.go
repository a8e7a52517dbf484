package domain

import (
	"context"
	"time"

	"signalgate/internal/core/sources"
)

// SignalStore is the write side of the staged signal table
type SignalStore interface {
	InsertOrDuplicate(ctx context.Context, s StagedSignal) (InsertResult, error)
	// InsertManyOrDuplicate returns one result per input, in input order
	InsertManyOrDuplicate(ctx context.Context, xs []StagedSignal) ([]InsertResult, error)
	ExistingIDs(ctx context.Context, source sources.Kind, ids []string) (map[string]struct{}, error)
	CountByState(ctx context.Context) ([]StateCount, error)
}

// Counter reserves slots in a per source minute window
// Implementations resolve races in storage; no in process locking
type Counter interface {
	Reserve(ctx context.Context, source sources.Kind, windowStart time.Time, requested, maxRequests int) (Grant, error)
	Current(ctx context.Context, source sources.Kind, windowStart time.Time) (int, error)
}

// Auditor records submission outcomes; failures never reach the caller
type Auditor interface {
	Record(ctx context.Context, events ...AuditEvent)
}

// ServicePort is the gateway contract used by http handlers
type ServicePort interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitResult, error)
	SubmitBatch(ctx context.Context, in BatchInput) (BatchResult, error)
}

// AdminPort exposes read only views for operators
type AdminPort interface {
	Stats(ctx context.Context) ([]StateCount, error)
	RateLimit(ctx context.Context, source string) (WindowState, error)
}
