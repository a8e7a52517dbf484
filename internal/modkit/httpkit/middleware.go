package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"signalgate/internal/platform/metrics"
	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack; the zero value is usable
type StackOptions struct {
	// Metrics adds the prometheus request middleware when set
	Metrics *metrics.Registry

	// Slow marks slow requests in the access log, default 2s
	Slow time.Duration

	// Timeout cancels request contexts, default 30s
	Timeout time.Duration

	// MaxInFlight sheds load with 503 past this many concurrent requests, 0 disables
	MaxInFlight int

	// MaxBodyBytes caps request bodies, default 16 MiB (the batch ingest cap); handlers cap lower
	MaxBodyBytes int64

	// CORS overrides the CORS defaults
	CORS middleware.CORSOptions
}

// CommonStack returns the baseline middleware slice for the API
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Slow <= 0 {
		o.Slow = 2 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 16 << 20
	}
	stack := []func(http.Handler) http.Handler{
		// correlation
		middleware.RequestID(),
		middleware.RealIP(),

		middleware.RecoverJSON,
		middleware.NoCache(),

		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow}),
	}
	if o.Metrics != nil {
		stack = append(stack, middleware.Metrics(o.Metrics))
	}
	if o.MaxInFlight > 0 {
		stack = append(stack, middleware.Throttle(o.MaxInFlight))
	}
	return append(stack,
		middleware.CORS(o.CORS),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
		middleware.RequestSize(o.MaxBodyBytes),
	)
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}
