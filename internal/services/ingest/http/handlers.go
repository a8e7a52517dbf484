// Package http provides the signed ingest endpoints and the ingest admin views
package http

import (
	"io"
	stdhttp "net/http"
	"strconv"

	"signalgate/internal/modkit/httpkit"
	perr "signalgate/internal/platform/errors"
	pnet "signalgate/internal/platform/net"
	"signalgate/internal/services/ingest/domain"

	"github.com/go-chi/chi/v5"
)

// Signature headers; the second is accepted for older senders
const (
	HeaderSignature      = "X-Signature-256"
	HeaderSignatureAlias = "X-Signature"
)

// Body caps
const (
	maxSingleBytes = 1 << 20
	maxBatchBytes  = 16 << 20
)

// Register mounts the public ingest endpoints
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Post("/{source}", httpkit.Handle(h.submit))
	r.Post("/{source}/batch", httpkit.Handle(h.submitBatch))
}

// RegisterAdmin mounts the operator views
func RegisterAdmin(r httpkit.Router, a domain.AdminPort) {
	h := &adminHandlers{svc: a}
	httpkit.Get(r, "/signals/stats", h.stats)
	httpkit.Get(r, "/ratelimit/{source}", h.rateLimit)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /ingest/{source} Ingest ingestSubmit
// @Summary Submit one signed signal
// @Description Body is the raw source payload; X-Signature-256 is sha256=<hex HMAC of the body>
// @Tags Ingest
// @Accept json
// @Produce json
// @Param source path string true "Source kind" Enums(map-listing, review-site, social-post, forum-post, neighborhood-post, custom)
// @Param X-Signature-256 header string true "sha256=<hex>"
// @Success 202 {object} domain.SubmitResult "accepted"
// @Success 200 {object} domain.SubmitResult "duplicate"
// @Failure 401 {object} httpkit.Envelope "bad signature"
// @Failure 429 {object} httpkit.Envelope "rate limited"
// @Router /ingest/{source} [post]
func (h *handlers) submit(r *stdhttp.Request) httpkit.Response {
	body, err := readBody(r, maxSingleBytes)
	if err != nil {
		return httpkit.Error(err)
	}
	res, err := h.svc.Submit(r.Context(), domain.SubmitInput{
		Source:    chi.URLParam(r, "source"),
		RawBody:   body,
		Signature: signature(r),
		RequestID: pnet.RequestID(r.Context()),
	})
	if err != nil {
		return httpkit.Error(err)
	}
	if res.Status == domain.StatusDuplicate {
		return httpkit.OK(res)
	}
	return httpkit.Accepted(res)
}

// swagger:route POST /ingest/{source}/batch Ingest ingestSubmitBatch
// @Summary Submit a signed batch of signals
// @Description Body is a JSON array of payloads or {"items":[...]}; one signature covers the whole body
// @Tags Ingest
// @Accept json
// @Produce json
// @Param source path string true "Source kind"
// @Param X-Signature-256 header string true "sha256=<hex>"
// @Success 200 {object} domain.BatchResult "per item statuses"
// @Failure 401 {object} httpkit.Envelope "bad signature"
// @Router /ingest/{source}/batch [post]
func (h *handlers) submitBatch(r *stdhttp.Request) httpkit.Response {
	body, err := readBody(r, maxBatchBytes)
	if err != nil {
		return httpkit.Error(err)
	}
	res, err := h.svc.SubmitBatch(r.Context(), domain.BatchInput{
		Source:    chi.URLParam(r, "source"),
		RawBody:   body,
		Signature: signature(r),
		RequestID: pnet.RequestID(r.Context()),
	})
	if err != nil {
		return httpkit.Error(err)
	}
	resp := httpkit.OK(res)
	if res.RetryAfterSeconds > 0 {
		resp = resp.WithHeader("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
	}
	return resp
}

type adminHandlers struct{ svc domain.AdminPort }

// swagger:route GET /admin/signals/stats Admin adminSignalStats
// @Summary Staged signal counts by source and state
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.StateCount
// @Router /admin/signals/stats [get]
func (h *adminHandlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context())
}

// swagger:route GET /admin/ratelimit/{source} Admin adminRateLimit
// @Summary Current rate limit window for a source
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param source path string true "Source kind"
// @Success 200 {object} domain.WindowState
// @Router /admin/ratelimit/{source} [get]
func (h *adminHandlers) rateLimit(r *stdhttp.Request) (any, error) {
	return h.svc.RateLimit(r.Context(), chi.URLParam(r, "source"))
}

func signature(r *stdhttp.Request) string {
	if s := r.Header.Get(HeaderSignature); s != "" {
		return s
	}
	return r.Header.Get(HeaderSignatureAlias)
}

// readBody keeps the exact bytes the signature was computed over
func readBody(r *stdhttp.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "read body")
	}
	if int64(len(b)) > limit {
		return nil, perr.Validationf("body exceeds %d bytes", limit)
	}
	return b, nil
}
