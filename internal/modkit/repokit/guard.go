package repokit

import (
	"context"
	"fmt"
	"time"
)

// Guarder is a dependency set that can check itself; *store.Store is one
type Guarder interface {
	Guard(context.Context) error
}

// GuardTimeout bounds CheckDeps when the caller's context has no deadline
var GuardTimeout = 5 * time.Second

// CheckDeps runs g.Guard under GuardTimeout unless ctx already carries a deadline
func CheckDeps(ctx context.Context, g Guarder) error {
	if g == nil {
		return fmt.Errorf("dependency guard: nil")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, GuardTimeout)
		defer cancel()
	}
	if err := g.Guard(ctx); err != nil {
		return fmt.Errorf("dependency guard: %w", err)
	}
	return nil
}
