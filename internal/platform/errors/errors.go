// Package errors is signalgate's structured error type; import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"maps"
	"net/http"
)

// ErrorCode is the machine-facing class of an error; values go out on the wire
type ErrorCode uint16

// Codes are append-only
const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable
	ErrorCodeTooManyRequests
	ErrorCodeUnauthorized
	ErrorCodeInvalidArgument
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB
	ErrorCodeTimeout
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeNotFound:        http.StatusNotFound,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeTimeout:         http.StatusGatewayTimeout,
}

// Status is the HTTP status for c; unmapped codes are 500
func (c ErrorCode) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrNotFound is returned by lookups that match nothing
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a developer message, an optional cause and the
// client-visible context (offending field, details such as missing_fields)
type Error struct {
	code    ErrorCode
	msg     string
	cause   error
	field   string
	op      string
	details map[string]any
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause != nil:
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's class
func (e *Error) Code() ErrorCode { return e.code }

// Message is the text without the cause
func (e *Error) Message() string { return e.msg }

// Field names the offending input field, if any
func (e *Error) Field() string { return e.field }

// Op is the operation label set by WithOp
func (e *Error) Op() string { return e.op }

// Wire is the error body clients see
type Wire struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// WireFrom renders any error; foreign errors become ErrorCodeUnknown
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	e, ok := As(err)
	if !ok {
		return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
	}
	w := Wire{Code: e.code, Message: e.msg, Field: e.field}
	if len(e.details) > 0 {
		w.Details = maps.Clone(e.details)
	}
	return w
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// CodeOf is the code of the first *Error in the chain, else ErrorCodeUnknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports CodeOf(err) == code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus maps any error to a response status
func HTTPStatus(err error) int { return CodeOf(err).Status() }

// Root is the innermost cause
func Root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// DetailRetryAfter holds whole seconds until a throttled call may be retried.
// Responders copy it into a Retry-After header
const DetailRetryAfter = "retry_after_seconds"

// RetryAfter returns a positive DetailRetryAfter carried by err
func RetryAfter(err error) (int, bool) {
	v, ok := DetailOf(err, DetailRetryAfter)
	if !ok {
		return 0, false
	}
	secs, ok := v.(int)
	return secs, ok && secs > 0
}

// DetailOf reads one detail from the first *Error in the chain
func DetailOf(err error, key string) (any, bool) {
	if e, ok := As(err); ok {
		v, ok := e.details[key]
		return v, ok
	}
	return nil, false
}

// edit copies the first *Error in err's chain, wrapping foreign errors as
// ErrorCodeUnknown, and applies fn to the copy
func edit(err error, fn func(*Error)) error {
	if err == nil {
		return nil
	}
	e, ok := As(err)
	if !ok {
		e = &Error{code: ErrorCodeUnknown, msg: err.Error(), cause: err}
	}
	c := *e
	c.details = maps.Clone(e.details)
	fn(&c)
	return &c
}

// WithField returns a copy of err naming the offending field
func WithField(err error, field string) error {
	return edit(err, func(e *Error) { e.field = field })
}

// WithOp returns a copy of err labelled with op
func WithOp(err error, op string) error {
	return edit(err, func(e *Error) { e.op = op })
}

// WithDetail returns a copy of err with one more detail
func WithDetail(err error, key string, val any) error {
	return edit(err, func(e *Error) {
		if e.details == nil {
			e.details = map[string]any{}
		}
		e.details[key] = val
	})
}

// New builds an *Error
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Wrap builds an *Error around cause
func Wrap(cause error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

func newf(code ErrorCode) func(string, ...any) error {
	return func(format string, a ...any) error { return New(code, fmt.Sprintf(format, a...)) }
}

// Formatted constructors per code
var (
	NotFoundf        = newf(ErrorCodeNotFound)
	Validationf      = newf(ErrorCodeValidation)
	JSONErrf         = newf(ErrorCodeJSON)
	PanicErrf        = newf(ErrorCodePanic)
	Unauthorizedf    = newf(ErrorCodeUnauthorized)
	TooManyRequestsf = newf(ErrorCodeTooManyRequests)
	Internalf        = newf(ErrorCodeUnknown)
)

// Retryable reports whether trying again later may succeed: rate limits,
// unavailability, timeouts and transient Postgres failures
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeTooManyRequests, ErrorCodeUnavailable, ErrorCodeTimeout:
		return true
	}
	return IsRetryable(err)
}
