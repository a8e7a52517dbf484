package module

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"signalgate/internal/modkit"
	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/testkit"
	extractdomain "signalgate/internal/services/extract/domain"
	ingestdomain "signalgate/internal/services/ingest/domain"

	"github.com/go-chi/chi/v5"
)

type fakeIngest struct{}

func (fakeIngest) Stats(context.Context) ([]ingestdomain.StateCount, error) { return nil, nil }

func (fakeIngest) RateLimit(_ context.Context, _ string) (ingestdomain.WindowState, error) {
	return ingestdomain.WindowState{Max: 100, Remaining: 100}, nil
}

type fakePipeline struct{ runs int }

func (f *fakePipeline) RunBatch(context.Context, int) (extractdomain.Report, error) {
	f.runs++
	return extractdomain.Report{}, nil
}

func TestAdminRequiresToken(t *testing.T) {
	p := &fakePipeline{}
	m := New(modkit.Deps{}, "s3cret", modkit.WithPorts(Ports{Ingest: fakeIngest{}, Pipeline: p}))
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"no token", http.MethodGet, "/admin/signals/stats", "", http.StatusUnauthorized},
		{"wrong token", http.MethodGet, "/admin/signals/stats", "Bearer nope", http.StatusUnauthorized},
		{"stats", http.MethodGet, "/admin/signals/stats", "Bearer s3cret", http.StatusOK},
		{"ratelimit", http.MethodGet, "/admin/ratelimit/forum-post", "Bearer s3cret", http.StatusOK},
		{"run", http.MethodPost, "/admin/extract/run", "Bearer s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("code = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	if p.runs != 1 {
		t.Fatalf("pipeline runs = %d", p.runs)
	}
}

func TestEmptyTokenRejectsEverything(t *testing.T) {
	m := New(modkit.Deps{}, "", modkit.WithPorts(Ports{Ingest: fakeIngest{}, Pipeline: &fakePipeline{}}))
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	req := httptest.NewRequest(http.MethodGet, "/admin/signals/stats", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestNewPanicsWithoutPorts(t *testing.T) {
	testkit.MustPanic(t, func() { New(modkit.Deps{}, "x") })
}
