// Package http exposes the synchronous extraction run for operators
package http

import (
	stdhttp "net/http"
	"strconv"

	"signalgate/internal/modkit/httpkit"
	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/net/http/bind"
	"signalgate/internal/services/extract/domain"
)

const maxRunLimit = 500

// RegisterAdmin mounts POST /extract/run
func RegisterAdmin(r httpkit.Router, p domain.PipelinePort) {
	h := &handlers{pipeline: p}
	httpkit.PostJSON(r, "/extract/run", h.run, bind.JSONOptions{MaxBytes: 4 << 10, DisallowUnknown: true, AllowEmptyBody: true})
}

type handlers struct{ pipeline domain.PipelinePort }

// swagger:route POST /admin/extract/run Admin extractRun
// @Summary Run one extraction batch now
// @Description Claims up to limit pending signals and returns the batch report. limit may come from the body or the query
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "rows to claim (1..500)"
// @Param body body domain.RunInput false "run options"
// @Success 200 {object} domain.Report
// @Failure 400 {object} httpkit.Envelope
// @Failure 401 {object} httpkit.Envelope
// @Router /admin/extract/run [post]
func (h *handlers) run(r *stdhttp.Request, in domain.RunInput) (any, error) {
	limit := in.Limit
	if q := r.URL.Query().Get("limit"); q != "" && limit == 0 {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxRunLimit {
			return nil, perr.WithField(perr.Validationf("limit must be between 1 and %d", maxRunLimit), "limit")
		}
		limit = n
	}
	return h.pipeline.RunBatch(r.Context(), limit)
}
