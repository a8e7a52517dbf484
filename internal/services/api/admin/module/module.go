// Package module mounts the operator API behind a bearer token
package module

import (
	"signalgate/internal/modkit"
	"signalgate/internal/modkit/httpkit"
	"signalgate/internal/platform/logger"

	extractdomain "signalgate/internal/services/extract/domain"
	extracthttp "signalgate/internal/services/extract/http"
	ingestdomain "signalgate/internal/services/ingest/domain"
	ingesthttp "signalgate/internal/services/ingest/http"
)

// Ports are injected from the ingest and extract modules
type Ports struct {
	Ingest   ingestdomain.AdminPort
	Pipeline extractdomain.PipelinePort
}

// Module is the admin API module
type Module struct {
	modkit.Base
}

// New constructs the admin module; token empty means every request is rejected
func New(deps modkit.Deps, token string, opts ...modkit.Option) *Module {
	if token == "" {
		logger.Named("admin").Warn().Msg("CORE_API_ADMIN_TOKEN is empty: admin routes reject every request")
	}
	m := &Module{
		Base: modkit.NewBase([]modkit.Option{
			modkit.WithName("admin"),
			modkit.WithPrefix("/admin"),
			modkit.WithMiddlewares(httpkit.Auth(httpkit.NewPortFunc(httpkit.StaticToken(token, "admin")))),
		}, opts...),
	}

	injected, _ := m.Built.Ports.(Ports)
	if injected.Ingest == nil || injected.Pipeline == nil {
		panic("admin module requires Ingest and Pipeline ports")
	}

	external := m.Register
	m.Register = func(r httpkit.Router) {
		ingesthttp.RegisterAdmin(r, injected.Ingest)
		extracthttp.RegisterAdmin(r, injected.Pipeline)
		external(r)
	}
	return m
}
