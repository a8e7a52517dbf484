package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Unauthorizedf("bad signature"), http.StatusUnauthorized},
		{TooManyRequestsf("window full"), http.StatusTooManyRequests},
		{Validationf("missing required fields"), http.StatusBadRequest},
		{JSONErrf("malformed body"), http.StatusBadRequest},
		{NotFoundf("source"), http.StatusNotFound},
		{New(ErrorCodeInvalidArgument, "bad enum"), http.StatusUnprocessableEntity},
		{New(ErrorCodeDuplicateKey, "dup"), http.StatusConflict},
		{New(ErrorCodeUnavailable, "pg down"), http.StatusServiceUnavailable},
		{New(ErrorCodeTimeout, "analysis"), http.StatusGatewayTimeout},
		{PanicErrf("boom"), http.StatusInternalServerError},
		{Internalf("x"), http.StatusInternalServerError},
		{stderrs.New("foreign"), http.StatusInternalServerError},
		{New(ErrorCode(999), "future"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("%v: status %d want %d", tc.err, got, tc.want)
		}
	}
}

func TestWrapAndWire(t *testing.T) {
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}

	cause := stderrs.New("connection reset")
	e := Wrap(cause, ErrorCodeDB, "insert staged signal")
	if e.Error() != "insert staged signal: connection reset" || stderrs.Unwrap(e) != cause {
		t.Fatalf("Wrap = %q", e.Error())
	}
	if w := WireFrom(fmt.Errorf("repo: %w", e)); w.Code != ErrorCodeDB || w.Message != "insert staged signal" {
		t.Fatalf("wire = %+v", w)
	}
	if w := WireFrom(cause); w.Code != ErrorCodeUnknown || w.Message != "connection reset" {
		t.Fatalf("foreign wire = %+v", w)
	}
	if w := WireFrom(nil); w.Message != "" || w.Details != nil {
		t.Fatalf("nil wire = %+v", w)
	}
	if Root(fmt.Errorf("a: %w", fmt.Errorf("b: %w", cause))) != cause {
		t.Fatalf("Root lost the cause")
	}
}

func TestEditsCopy(t *testing.T) {
	base := Validationf("missing required fields")
	missing := WithDetail(base, "missing_fields", []string{"id", "body"})
	both := WithOp(WithField(WithDetail(missing, "source", "forum-post"), "body"), "ingest.submit")

	if _, ok := DetailOf(base, "missing_fields"); ok {
		t.Fatalf("base mutated")
	}
	if _, ok := DetailOf(missing, "source"); ok {
		t.Fatalf("earlier copy mutated")
	}
	e, _ := As(both)
	if e.Field() != "body" || e.Op() != "ingest.submit" || e.Code() != ErrorCodeValidation {
		t.Fatalf("edited = %+v", e)
	}
	w := WireFrom(both)
	if len(w.Details) != 2 || w.Field != "body" {
		t.Fatalf("wire = %+v", w)
	}
	w.Details["source"] = "changed"
	if v, _ := DetailOf(both, "source"); v != "forum-post" {
		t.Fatalf("wire details alias the error")
	}

	foreign := WithField(stderrs.New("boom"), "limit")
	if CodeOf(foreign) != ErrorCodeUnknown || !stderrs.Is(foreign, Root(foreign)) {
		t.Fatalf("foreign edit = %v", foreign)
	}
	if WithDetail(nil, "k", 1) != nil || WithField(nil, "f") != nil {
		t.Fatalf("nil edits should stay nil")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", TooManyRequestsf("slow down"), true},
		{"unavailable", New(ErrorCodeUnavailable, "pg"), true},
		{"timeout", New(ErrorCodeTimeout, "analysis"), true},
		{"lock timeout", FromPostgres(&pgconn.PgError{Code: "55P03"}, "claim"), true},
		{"unauthorized", Unauthorizedf("bad sig"), false},
		{"validation", Validationf("bad"), false},
		{"duplicate", FromPostgres(&pgconn.PgError{Code: "23505"}, "insert"), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable = %v", tc.name, got)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	cases := []struct {
		name string
		err  error
		secs int
		ok   bool
	}{
		{"carried", WithDetail(TooManyRequestsf("slow down"), DetailRetryAfter, 12), 12, true},
		{"wrapped", fmt.Errorf("submit: %w", WithDetail(TooManyRequestsf("slow down"), DetailRetryAfter, 3)), 3, true},
		{"zero is no hint", WithDetail(TooManyRequestsf("slow down"), DetailRetryAfter, 0), 0, false},
		{"wrong type", WithDetail(TooManyRequestsf("slow down"), DetailRetryAfter, "12"), 0, false},
		{"absent", TooManyRequestsf("slow down"), 0, false},
		{"nil", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			secs, ok := RetryAfter(tc.err)
			if secs != tc.secs || ok != tc.ok {
				t.Fatalf("RetryAfter = %d, %v; want %d, %v", secs, ok, tc.secs, tc.ok)
			}
		})
	}
}
