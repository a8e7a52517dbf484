package service

import (
	"strings"

	"signalgate/internal/core/sources"
	"signalgate/internal/platform/config"
)

// Config holds the gateway secrets and limits, read once at startup
type Config struct {
	GlobalSecret string
	Secrets      map[sources.Kind]string

	DefaultLimit int
	Limits       map[sources.Kind]int

	DevMode  bool
	MaxBatch int
}

// FromConfig reads INGEST_* keys; per source keys use the upper snake form of the kind
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("INGEST_")
	out := Config{
		GlobalSecret: c.MayString("SECRET", ""),
		Secrets:      map[sources.Kind]string{},
		DefaultLimit: c.MayInt("RATE_LIMIT_PER_MINUTE", 100),
		Limits:       map[sources.Kind]int{},
		DevMode:      c.MayBool("DEV_MODE", false),
		MaxBatch:     c.MayInt("MAX_BATCH", 500),
	}
	for _, k := range sources.All() {
		name := config.EnvName(string(k))
		if s := c.MayString("SECRET_"+name, ""); s != "" {
			out.Secrets[k] = s
		}
		if n := c.MayInt("RATE_LIMIT_"+name, 0); n > 0 {
			out.Limits[k] = n
		}
	}
	return out
}

// SecretFor returns the per source secret, falling back to the global one
func (c Config) SecretFor(k sources.Kind) string {
	if s := strings.TrimSpace(c.Secrets[k]); s != "" {
		return s
	}
	return c.GlobalSecret
}

// LimitFor returns the per minute admission limit for k
func (c Config) LimitFor(k sources.Kind) int {
	if n, ok := c.Limits[k]; ok && n > 0 {
		return n
	}
	return c.DefaultLimit
}

func (c Config) maxBatch() int {
	if c.MaxBatch <= 0 {
		return 500
	}
	return c.MaxBatch
}
