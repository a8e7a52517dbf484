package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/services/extract/domain"

	"github.com/go-chi/chi/v5"
)

type fakePipeline struct{ limits []int }

func (f *fakePipeline) RunBatch(_ context.Context, limit int) (domain.Report, error) {
	f.limits = append(f.limits, limit)
	return domain.Report{Selected: limit, Created: 1}, nil
}

func newRouter(p domain.PipelinePort) http.Handler {
	mux := chi.NewRouter()
	RegisterAdmin(phttp.AdaptChi(mux), p)
	return mux
}

func TestRun(t *testing.T) {
	cases := []struct {
		name      string
		target    string
		body      string
		wantCode  int
		wantLimit int
	}{
		{"empty body uses default", "/extract/run", "", http.StatusOK, 0},
		{"body limit", "/extract/run", `{"limit":25}`, http.StatusOK, 25},
		{"query limit", "/extract/run?limit=7", "", http.StatusOK, 7},
		{"body wins over query", "/extract/run?limit=7", `{"limit":3}`, http.StatusOK, 3},
		{"body limit too high", "/extract/run", `{"limit":501}`, http.StatusBadRequest, -1},
		{"query limit not a number", "/extract/run?limit=x", "", http.StatusBadRequest, -1},
		{"unknown field", "/extract/run", `{"size":3}`, http.StatusBadRequest, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePipeline{}
			req := httptest.NewRequest(http.MethodPost, tc.target, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newRouter(p).ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
			}
			if tc.wantLimit < 0 {
				if len(p.limits) != 0 {
					t.Fatalf("pipeline ran on a rejected request")
				}
				return
			}
			if len(p.limits) != 1 || p.limits[0] != tc.wantLimit {
				t.Fatalf("limits = %v", p.limits)
			}
		})
	}
}
