// Package module wires the extraction pipeline using modkit
package module

import (
	"context"

	"signalgate/internal/adapters/analysis"
	"signalgate/internal/modkit"
	"signalgate/internal/modkit/repokit"
	"signalgate/internal/platform/logger"
	"signalgate/internal/services/extract/domain"
	"signalgate/internal/services/extract/repo"
	"signalgate/internal/services/extract/service"
)

// Ports holds the ports exposed by the extract module
type Ports struct {
	Pipeline domain.PipelinePort
}

// Module is the extraction pipeline module; it mounts no public routes
type Module struct {
	modkit.Base

	pipeline *service.Pipeline
}

// New constructs the module; a bad analysis config is fatal at startup
func New(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	an, err := analysis.New(o.Analysis, deps.Metrics)
	if err != nil {
		return nil, err
	}
	if an.Provider() == analysis.ProviderNone {
		logger.Named("extract").Warn().Msg("ANALYSIS_PROVIDER is none: every signal uses the keyword heuristic")
	}

	p := service.New(o.Pipeline,
		repo.NewQueue(deps.PG),
		repokit.MustBind(repo.NewOpportunities(), deps.PG),
		an,
		service.WithMetrics(deps.Metrics),
	)

	m := &Module{
		Base: modkit.NewBase([]modkit.Option{
			modkit.WithName("extract"),
		}, opts...),
		pipeline: p,
	}
	m.Built.Ports = Ports{Pipeline: p}
	return m, nil
}

// Run polls for pending signals until ctx is done
func (m *Module) Run(ctx context.Context) error {
	return m.pipeline.Run(ctx, 0)
}

// RunOnce runs a single batch of the configured size
func (m *Module) RunOnce(ctx context.Context) (domain.Report, error) {
	return m.pipeline.RunBatch(ctx, m.pipeline.Config().Batch)
}
