// Package modkit provides module wiring and core deps
package modkit

import (
	"signalgate/internal/modkit/repokit"
	"signalgate/internal/platform/config"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
	"signalgate/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// built once in main; optional backends are nil when disabled
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	CH      store.Clickhouse
	RDS     *redis.Client
	Metrics *metrics.Registry
	Store   *store.Store
}

// FromStore fills the backend seams from an opened Store
func FromStore(s *store.Store, log logger.Logger, cfg config.Conf, m *metrics.Registry) Deps {
	d := Deps{Log: log, Cfg: cfg, Metrics: m, Store: s}
	if s != nil {
		d.PG, d.CH, d.RDS = s.PG, s.CH, s.RDS
	}
	return d
}
