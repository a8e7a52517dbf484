package service

import (
	"time"

	"signalgate/internal/platform/config"

	"github.com/google/uuid"
)

// Config tunes the pipeline; zero values fall back to the defaults in FromConfig
type Config struct {
	Concurrency int
	TaskTimeout time.Duration
	MinScore    float64
	MinTextLen  int
	Batch       int
	Interval    time.Duration
	Lease       time.Duration

	// Owner stamps claimed rows so a stuck lease can be traced to a runner
	Owner string
}

// FromConfig reads EXTRACT_* keys
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("EXTRACT_")
	return Config{
		Concurrency: c.MayInt("CONCURRENCY", 5),
		TaskTimeout: c.MayDuration("TASK_TIMEOUT", 30*time.Second),
		MinScore:    c.MayFloat64("MIN_SCORE", 50),
		MinTextLen:  c.MayInt("MIN_TEXT_LEN", 20),
		Batch:       c.MayInt("BATCH", 50),
		Interval:    c.MayDuration("INTERVAL", 30*time.Second),
		Lease:       c.MayDuration("LEASE", 5*time.Minute),
		Owner:       c.MayString("OWNER", "extract-"+uuid.NewString()),
	}
}

func (c Config) normalized() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 5
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 30 * time.Second
	}
	if c.MinTextLen < 0 {
		c.MinTextLen = 0
	}
	if c.Batch < 1 {
		c.Batch = 50
	}
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	// floor only; leaseFor stretches it per claim
	if c.Lease <= c.TaskTimeout {
		c.Lease = 10 * c.TaskTimeout
	}
	if c.Owner == "" {
		c.Owner = "extract-" + uuid.NewString()
	}
	return c
}

// leaseFor covers every wave of task timeouts a claim of n rows can run,
// plus one timeout for the prechecks and terminal writes
func (c Config) leaseFor(n int) time.Duration {
	waves := (max(n, 1) + c.Concurrency - 1) / c.Concurrency
	return max(c.Lease, time.Duration(waves+1)*c.TaskTimeout)
}
