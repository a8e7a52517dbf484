package httpkit

import (
	"net/http"

	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/net/http/bind"
)

// PostJSON mounts a JSON body handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error), opts ...bind.JSONOptions) {
	phttp.PostJSON(r, path, h, opts...)
}

// Get registers a no-body handler and uses the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// Post registers a handler that reads the body itself
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, Call(h))
}
