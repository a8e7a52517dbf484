// Package module wires the ingestion gateway into the API using modkit
package module

import (
	"context"

	"signalgate/internal/modkit"
	"signalgate/internal/modkit/httpkit"
	"signalgate/internal/modkit/repokit"
	"signalgate/internal/platform/logger"
	"signalgate/internal/services/ingest/audit"
	"signalgate/internal/services/ingest/domain"
	ingesthttp "signalgate/internal/services/ingest/http"
	"signalgate/internal/services/ingest/ratelimit"
	"signalgate/internal/services/ingest/repo"
	"signalgate/internal/services/ingest/service"
)

// Ports holds the ports exposed by the ingest module
type Ports struct {
	Gateway domain.ServicePort
	Admin   domain.AdminPort
}

// Module is the ingest API module
type Module struct {
	modkit.Base

	svc     *service.Svc
	auditor domain.Auditor
}

// New constructs the ingest module; opts from FromConfig unless overridden
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	if o.Service.DevMode {
		logger.Named("ingest").Warn().Msg("INGEST_DEV_MODE is on: signatures are NOT verified")
	}

	signals := repokit.MustBind(repo.NewSignals(), deps.PG)
	counter := ratelimit.New(o.Backend, deps.PG, deps.RDS)
	auditor := audit.New(deps.CH, o.Audit)

	svc := service.New(o.Service, signals, counter,
		service.WithAuditor(auditor),
		service.WithMetrics(deps.Metrics),
	)

	m := &Module{
		Base: modkit.NewBase([]modkit.Option{
			modkit.WithName("ingest"),
			modkit.WithPrefix("/ingest"),
		}, opts...),
		svc:     svc,
		auditor: auditor,
	}
	m.Built.Ports = Ports{Gateway: svc, Admin: svc}

	external := m.Register
	m.Register = func(r httpkit.Router) {
		ingesthttp.Register(r, m.svc)
		external(r)
	}
	return m
}

// Run flushes the audit sink until ctx is done; a no-op without clickhouse
func (m *Module) Run(ctx context.Context) {
	if s, ok := m.auditor.(*audit.Sink); ok {
		s.Run(ctx)
	}
}
