package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"signalgate/internal/platform/logger"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// statusError is a non-2xx answer from the capability
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// retryable covers transport failures, 5xx and 429; local deadlines are final
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

// transport posts JSON through retry and a circuit breaker
type transport struct {
	client *http.Client
	exec   failsafe.Executor[[]byte]
}

func newTransport(cfg Config, name string) *transport {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	base, maxDelay := cfg.BaseDelay, cfg.MaxDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	if maxDelay < base {
		maxDelay = max(base, 4*time.Second)
	}

	retry := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return retryable(err) }).
		WithBackoff(base, maxDelay).
		WithJitterFactor(0.1).
		WithMaxRetries(max(0, cfg.Retries)).
		Build()

	log := logger.Named("analysis")
	breaker := circuitbreaker.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return retryable(err) }).
		WithFailureThresholdRatio(5, 10).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			log.Warn().
				Str("provider", name).
				Str("from", stateName(e.OldState)).
				Str("to", stateName(e.NewState)).
				Msg("circuit breaker state change")
		}).
		Build()

	return &transport{client: client, exec: failsafe.With[[]byte](retry, breaker)}
}

// post sends body to url and returns the 2xx response body
func (t *transport) post(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	return t.exec.WithContext(ctx).Get(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header = header.Clone()
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data[:min(len(data), 256)]))}
		}
		return data, nil
	})
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	}
	return "closed"
}
