package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perrs "signalgate/internal/platform/errors"
)

// TokenFunc checks a bearer token and returns the principal behind it
type TokenFunc func(token string) (principal string, err error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// StaticToken accepts exactly one shared admin token
// An empty token rejects everything so an unset secret never opens the door
func StaticToken(want, principal string) TokenFunc {
	return func(got string) (string, error) {
		if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			return "", perrs.Unauthorizedf("invalid bearer token")
		}
		return principal, nil
	}
}

// Parse extracts the principal from an Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser returns an error
func (p *Port) Parse(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	who, err := p.parse(raw)
	if err != nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	return who, nil
}
