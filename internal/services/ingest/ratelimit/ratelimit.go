// Package ratelimit provides the redis backed window counter and backend selection
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"signalgate/internal/core/sources"
	"signalgate/internal/modkit/repokit"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/logger"
	"signalgate/internal/services/ingest/domain"
	"signalgate/internal/services/ingest/repo"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by INGEST_RATE_LIMIT_BACKEND
const (
	BackendPG    = "pg"
	BackendRedis = "redis"
)

// keyTTL keeps a window key around long enough for late readers
const keyTTL = 2 * domain.Window

// reserveScript grants min(requested, max - current) slots atomically
// KEYS[1] window key; ARGV requested, max, ttl seconds; returns {count, granted}
var reserveScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local req = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local grant = math.min(req, max - cur)
if grant <= 0 then
  return {cur, 0}
end
local n = redis.call('INCRBY', KEYS[1], grant)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[3]))
return {n, grant}
`)

// Redis is a domain.Counter over a go-redis client
type Redis struct {
	c *redis.Client
}

// NewRedis wraps c; it panics on nil since the backend was asked for explicitly
func NewRedis(c *redis.Client) *Redis {
	if c == nil {
		panic("ratelimit: redis backend requires SERVICE_REDIS_ENABLED")
	}
	return &Redis{c: c}
}

// Key is the redis key for one source window
func Key(source sources.Kind, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", source, windowStart.UTC().Unix())
}

// Reserve implements domain.Counter
func (r *Redis) Reserve(ctx context.Context, source sources.Kind, windowStart time.Time, requested, maxRequests int) (domain.Grant, error) {
	if requested <= 0 || maxRequests <= 0 {
		return domain.Grant{}, nil
	}
	res, err := reserveScript.Run(ctx, r.c,
		[]string{Key(source, windowStart)},
		requested, maxRequests, int(keyTTL/time.Second),
	).Int64Slice()
	if err != nil {
		return domain.Grant{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "redis reserve")
	}
	if len(res) != 2 {
		return domain.Grant{}, perr.Internalf("redis reserve: unexpected reply %v", res)
	}
	return domain.Grant{Count: int(res[0]), Granted: int(res[1])}, nil
}

// Current implements domain.Counter
func (r *Redis) Current(ctx context.Context, source sources.Kind, windowStart time.Time) (int, error) {
	n, err := r.c.Get(ctx, Key(source, windowStart)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeUnavailable, "redis read counter")
	}
	return n, nil
}

// New picks the counter backend; pg binds to db, redis uses rds
func New(backend string, db repokit.Queryer, rds *redis.Client) domain.Counter {
	switch backend {
	case BackendRedis:
		logger.Named("ratelimit").Info().Str("backend", BackendRedis).Msg("rate limit counter selected")
		return NewRedis(rds)
	default:
		logger.Named("ratelimit").Info().Str("backend", BackendPG).Msg("rate limit counter selected")
		return repokit.MustBind(repo.NewCounters(), db)
	}
}
