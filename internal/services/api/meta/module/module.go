// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"signalgate/internal/modkit"
	"signalgate/internal/modkit/httpkit"
	"signalgate/internal/platform/store"

	metahttp "signalgate/internal/services/api/meta/http"
)

// ServiceName is reported by health, version and service
const ServiceName = "signalgate-api"

// Module is the meta API module
type Module struct {
	modkit.Base

	startedAt time.Time
}

// New constructs a meta module; readiness pings every backend the store opened
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	m := &Module{
		Base: modkit.NewBase([]modkit.Option{
			modkit.WithName("meta"),
			modkit.WithPrefix("/meta"),
		}, opts...),
		startedAt: time.Now(),
	}

	pingers := deps.Store.Pingers()
	if _, ok := pingers["pg"]; !ok && deps.PG != nil {
		if p, ok := deps.PG.(store.Pinger); ok {
			pingers["pg"] = p
		}
	}

	external := m.Register
	m.Register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: ServiceName,
			StartedAt:   m.startedAt,
			Pingers:     pingers,
		})
		external(r)
	}
	return m
}
