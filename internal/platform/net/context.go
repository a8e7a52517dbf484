// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyPrincipal ctxKey = "principal"

// WithRequest stores reqID where chimw.GetReqID can find it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithPrincipal annotates context with the authenticated caller (admin token subject)
func WithPrincipal(ctx context.Context, who string) context.Context {
	if who == "" {
		return ctx
	}
	return context.WithValue(ctx, keyPrincipal, who)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// Principal returns the authenticated caller on the context if present
func Principal(ctx context.Context) string {
	v, _ := ctx.Value(keyPrincipal).(string)
	return v
}
