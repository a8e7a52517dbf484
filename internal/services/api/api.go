// Package api assembles the HTTP API from the service modules
package api

import (
	"context"
	"time"

	"signalgate/internal/platform/config"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/net/middleware"
	"signalgate/internal/platform/store"

	"signalgate/internal/modkit"
	"signalgate/internal/modkit/httpkit"
	"signalgate/internal/modkit/module"
	"signalgate/internal/modkit/swaggerkit"

	adminmod "signalgate/internal/services/api/admin/module"
	metamod "signalgate/internal/services/api/meta/module"
	extractdomain "signalgate/internal/services/extract/domain"
	extractmod "signalgate/internal/services/extract/module"
	ingestdomain "signalgate/internal/services/ingest/domain"
	ingestmod "signalgate/internal/services/ingest/module"
)

// Options are the API options
type Options struct {
	// Config is the root view; modules apply their own prefixes
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *metrics.Registry
	AdminToken     string
	EnableSwagger  bool
	EnableProfiler bool
}

// Runner is a background loop owned by a mounted module
type Runner func(ctx context.Context)

// Mount mounts the API onto r and returns the background runners main must start
func Mount(r phttp.Router, opt Options) ([]Runner, error) {
	var log logger.Logger
	if opt.Logger != nil {
		log = *opt.Logger
	}
	deps := modkit.FromStore(opt.Store, log, opt.Config, opt.Metrics)

	ingest := ingestmod.New(deps, ingestmod.FromConfig(deps.Cfg))

	// the API process runs batches on demand only; the poll loop lives in signalgate-extract
	extract, err := extractmod.New(deps, extractmod.FromConfig(deps.Cfg))
	if err != nil {
		return nil, err
	}

	admin := adminmod.New(deps, opt.AdminToken, modkit.WithPorts(adminmod.Ports{
		Ingest:   module.MustPortsOf[ingestdomain.AdminPort](ingest),
		Pipeline: module.MustPortsOf[extractdomain.PipelinePort](extract),
	}))

	mods := []module.Module{
		metamod.New(deps),
		ingest,
		extract,
		admin,
	}

	if opt.Metrics != nil {
		r.Handle("/metrics", opt.Metrics.Handler())
	}
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	apiCfg := opt.Config.Prefix("CORE_API_")
	stack := httpkit.CommonStack(httpkit.StackOptions{
		Metrics:     opt.Metrics,
		Timeout:     apiCfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxInFlight: apiCfg.MayInt("MAX_IN_FLIGHT", 0),
		CORS:        middleware.CORSOptions{AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", []string{"*"})},
	})
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})

	return []Runner{ingest.Run}, nil
}
