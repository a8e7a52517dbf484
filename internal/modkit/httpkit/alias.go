// Package httpkit is the HTTP surface service modules build on; it re-exports
// the platform router and envelope so modules never import platform/net/http
package httpkit

import (
	"net/http"

	phttp "signalgate/internal/platform/net/http"
)

// Router, Handler, Response and Envelope are the platform types
type (
	Router   = phttp.Router
	Handler  = phttp.Handler
	Response = phttp.Response
	Envelope = phttp.Envelope
)

// APIV1 is the prefix every module route sits under
const APIV1 = "/api/v1"

// MountAPIV1 opens the /api/v1 scope with mw and lets mount add module routes
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(APIV1, func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}

// OK is a 200 with data
func OK(data any) Response { return phttp.OK(data) }

// Accepted is a 202 with data
func Accepted(data any) Response { return phttp.Accepted(data) }

// Error lets the error's code pick the status
func Error(err error) Response { return phttp.Error(err) }

// Call wraps a return-style handler; returning a Response picks the status, any other value is a 200
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return OK(out)
	})
}

// Handle wraps a handler that builds its own Response
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }
