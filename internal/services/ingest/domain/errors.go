package domain

import (
	"strings"

	perr "signalgate/internal/platform/errors"
)

// DetailMissingFields lists the required fields a payload lacked
const DetailMissingFields = "missing_fields"

// NewAuthenticationError is returned when a signature is missing or wrong
func NewAuthenticationError(msg string) error {
	return perr.WithOp(perr.Unauthorizedf("authentication failed: %s", msg), "ingest.authenticate")
}

// NewValidationError lists the missing required fields
func NewValidationError(missing []string) error {
	err := perr.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	if len(missing) == 1 {
		err = perr.WithField(err, missing[0])
	}
	return perr.WithDetail(err, DetailMissingFields, missing)
}

// NewRateLimitError carries the seconds until the window resets
func NewRateLimitError(retryAfter int) error {
	err := perr.TooManyRequestsf("rate limit exceeded; retry in %ds", retryAfter)
	return perr.WithDetail(err, perr.DetailRetryAfter, retryAfter)
}

// RetryAfterOf returns the retry hint carried by a rate limit error
func RetryAfterOf(err error) (int, bool) { return perr.RetryAfter(err) }

// MissingFieldsOf returns the fields listed by a validation error
func MissingFieldsOf(err error) []string {
	v, _ := perr.DetailOf(err, DetailMissingFields)
	fields, _ := v.([]string)
	return fields
}
