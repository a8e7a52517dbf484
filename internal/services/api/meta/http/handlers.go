// Package http serves the unauthenticated /meta probes
package http

import (
	"context"
	"net/http"
	"time"

	"signalgate/internal/core/version"
	"signalgate/internal/modkit/httpkit"
	"signalgate/internal/platform/store"
)

// Check and overall readiness states
const (
	StatusOK       = "ok"
	StatusSkipped  = "skipped"
	StatusFail     = "fail"
	StatusDegraded = "degraded"
)

// required backends fail readiness when down; the others only degrade it
var probeOrder = []struct {
	name     string
	required bool
}{
	{"pg", true},
	{"redis", false},
	{"ch", false},
}

// Deps configures the meta routes
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Pingers     map[string]store.Pinger
	// ReadyTimeout bounds one readiness round, default 2s
	ReadyTimeout time.Duration
}

// Register mounts /health, /ready, /version and /service on r
func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	httpkit.Get(r, "/health", d.health)
	httpkit.Get(r, "/ready", d.ready)
	httpkit.Get(r, "/version", d.version)
	httpkit.Get(r, "/service", d.service)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"signalgate-api"`
	Started string `json:"started" example:"2026-10-01T13:00:00Z"`
	Now     string `json:"now"     example:"2026-10-01T13:05:00Z"`
}

// ReadyCheck is one backend's probe result
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok, degraded (optional backend down) or fail (pg down or absent)
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-10-01T13:05:00Z"`
}

// ServiceResponse reports uptime in seconds
type ServiceResponse struct {
	Name    string `json:"name"    example:"signalgate-api"`
	Started string `json:"started" example:"2026-10-01T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (d Deps) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: d.ServiceName, Started: stamp(d.StartedAt), Now: stamp(time.Now())}, nil
}

// @Summary Readiness probe with dependency checks
// @Description pg is required; redis and ch degrade when down. A failed probe answers 503.
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /meta/ready [get]
func (d Deps) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), d.ReadyTimeout)
	defer cancel()

	out := ReadyResponse{Status: StatusOK, Now: stamp(time.Now())}
	for _, b := range probeOrder {
		c := probe(ctx, b.name, d.Pingers[b.name])
		out.Checks = append(out.Checks, c)
		switch {
		case c.Status == StatusOK:
		case b.required:
			out.Status = StatusFail
		case c.Status == StatusFail && out.Status == StatusOK:
			out.Status = StatusDegraded
		}
	}
	if out.Status == StatusFail {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

func probe(ctx context.Context, name string, p store.Pinger) ReadyCheck {
	if p == nil {
		return ReadyCheck{Name: name, Status: StatusSkipped}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: name, Status: StatusFail, Error: err.Error()}
	}
	return ReadyCheck{Name: name, Status: StatusOK}
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (d Deps) version(*http.Request) (any, error) { return version.Info(d.ServiceName), nil }

// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (d Deps) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    d.ServiceName,
		Started: stamp(d.StartedAt),
		Uptime:  int64(time.Since(d.StartedAt) / time.Second),
	}, nil
}
