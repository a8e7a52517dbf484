package module

import (
	"signalgate/internal/platform/config"
	"signalgate/internal/services/ingest/audit"
	"signalgate/internal/services/ingest/ratelimit"
	"signalgate/internal/services/ingest/service"
)

// Options controls the ingest module
type Options struct {
	Service service.Config
	Backend string
	Audit   audit.Options
}

// FromConfig reads INGEST_* keys
func FromConfig(cfg config.Conf) Options {
	return Options{
		Service: service.FromConfig(cfg),
		Backend: cfg.Prefix("INGEST_").MayEnum("RATE_LIMIT_BACKEND", ratelimit.BackendPG, ratelimit.BackendPG, ratelimit.BackendRedis),
		Audit: audit.Options{
			Buffer:        cfg.Prefix("INGEST_AUDIT_").MayInt("BUFFER", 4096),
			FlushInterval: cfg.Prefix("INGEST_AUDIT_").MayDuration("FLUSH_INTERVAL", 0),
		},
	}
}
