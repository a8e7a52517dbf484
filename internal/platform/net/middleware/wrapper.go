// Package middleware adapts chi and go-chi/cors middleware to plain net/http signatures
package middleware

import (
	"net/http"
	"time"

	pstrings "signalgate/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the net/http middleware shape used across the platform
type Middleware = func(http.Handler) http.Handler

// RequestID propagates X-Request-Id or mints one
func RequestID() Middleware { return chimw.RequestID }

// RealIP trusts X-Forwarded-For / X-Real-IP for RemoteAddr
func RealIP() Middleware { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// NoCache marks every response uncacheable
func NoCache() Middleware { return chimw.NoCache }

// Compress negotiates gzip/deflate at level
func Compress(level int) Middleware { return chimw.NewCompressor(level).Handler }

// StripSlashes routes /x/ as /x
func StripSlashes() Middleware { return chimw.StripSlashes }

// RequestSize caps every request body at n bytes
func RequestSize(n int64) Middleware { return chimw.RequestSize(n) }

// Throttle bounds in-flight requests; excess callers get 503
func Throttle(limit int) Middleware { return chimw.Throttle(limit) }

// Heartbeat answers GET path with 200 before routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// CORSOptions is the subset of go-chi/cors settings the API exposes
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Signature", "X-Signature-256"}
	corsExposed = []string{"Retry-After", "X-Request-ID"}
)

// CORS fills unset lists with what the ingest and admin routes need,
// including the signature headers and Retry-After
func CORS(o CORSOptions) Middleware {
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   pstrings.IfEmpty(o.AllowedMethods, corsMethods),
		AllowedHeaders:   pstrings.IfEmpty(o.AllowedHeaders, corsHeaders),
		ExposedHeaders:   pstrings.IfEmpty(o.ExposedHeaders, corsExposed),
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
