package store

import (
	"time"

	"signalgate/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	DSN     string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// FromEnv reads SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_REDIS_* from c
// Postgres is always enabled; the other backends are opt-in
func FromEnv(c config.Conf, appName string) Config {
	pgc := c.Prefix("SERVICE_PGSQL_")
	chc := c.Prefix("SERVICE_CLICKHOUSE_")
	rc := c.Prefix("SERVICE_REDIS_")
	return Config{
		AppName: appName,
		PG: PGConfig{
			Enabled:        true,
			URL:            pgc.MustString("DBURL"),
			MaxConns:       int32(pgc.MayInt("MAX_CONNS", 16)),
			LogSQL:         pgc.MayBool("LOG_SQL", false),
			SlowQueryMs:    pgc.MayInt("SLOW_MS", 250),
			ConnectRetries: pgc.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pgc.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled: chc.MayBool("ENABLED", false),
			DSN:     chc.MayString("DSN", "clickhouse://default:@localhost:9000/default"),
		},
		RDS: RedisConfig{
			Enabled:  rc.MayBool("ENABLED", false),
			Addr:     rc.MayString("ADDR", "localhost:6379"),
			Password: rc.MayString("PASSWORD", ""),
			DB:       rc.MayInt("DB", 0),
		},
	}
}
