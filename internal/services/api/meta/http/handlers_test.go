package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/store"

	"github.com/go-chi/chi/v5"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func get(t *testing.T, d Deps, path string, dst any) {
	t.Helper()
	getStatus(t, d, path, http.StatusOK, dst)
}

func getStatus(t *testing.T, d Deps, path string, want int, dst any) {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != want {
		t.Fatalf("%s: code %d want %d", path, rec.Code, want)
	}
	b, _ := io.ReadAll(rec.Body)
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, b)
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name    string
		pingers map[string]store.Pinger
		want    string
		code    int
	}{
		{"all up", map[string]store.Pinger{"pg": up, "redis": up, "ch": up}, StatusOK, http.StatusOK},
		{"optional skipped", map[string]store.Pinger{"pg": up}, StatusOK, http.StatusOK},
		{"redis down", map[string]store.Pinger{"pg": up, "redis": down}, StatusDegraded, http.StatusOK},
		{"ch down too", map[string]store.Pinger{"pg": up, "redis": down, "ch": down}, StatusDegraded, http.StatusOK},
		{"pg down", map[string]store.Pinger{"pg": down, "redis": up}, StatusFail, http.StatusServiceUnavailable},
		{"no pg", map[string]store.Pinger{}, StatusFail, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ReadyResponse
			getStatus(t, Deps{ServiceName: "svc", Pingers: tc.pingers}, "/ready", tc.code, &got)
			if got.Status != tc.want {
				t.Fatalf("status = %q, want %q (%+v)", got.Status, tc.want, got.Checks)
			}
			if len(got.Checks) != 3 {
				t.Fatalf("checks = %+v", got.Checks)
			}
		})
	}
}

func TestHealthAndService(t *testing.T) {
	d := Deps{ServiceName: "signalgate-api", StartedAt: time.Now().Add(-time.Minute)}

	var h HealthResponse
	get(t, d, "/health", &h)
	if !h.OK || h.Service != "signalgate-api" {
		t.Fatalf("health = %+v", h)
	}

	var s ServiceResponse
	get(t, d, "/service", &s)
	if s.Uptime < 59 {
		t.Fatalf("uptime = %d", s.Uptime)
	}

	var v struct {
		Service string `json:"service"`
	}
	get(t, d, "/version", &v)
	if v.Service != "signalgate-api" {
		t.Fatalf("version service = %q", v.Service)
	}
}
