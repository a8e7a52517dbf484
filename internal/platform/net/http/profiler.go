package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler serves chi's pprof handlers below prefix, e.g. /debug/pprof/
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	pprof := stdhttp.StripPrefix(prefix, mw.Profiler()).ServeHTTP
	r.Get(prefix, pprof)
	r.Get(prefix+"/*", pprof)
}
