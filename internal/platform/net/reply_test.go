package net

import (
	"net/http"
	"testing"

	perr "signalgate/internal/platform/errors"
)

func TestErrorEnvelope(t *testing.T) {
	err := perr.WithDetail(perr.Unauthorizedf("invalid admin token"), "scheme", "bearer")
	status, w := Error(err, "req-9")
	if status != http.StatusUnauthorized || w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d/%d", status, w.StatusCode)
	}
	if w.Code != perr.ErrorCodeUnauthorized || w.Error != "invalid admin token" || w.RequestID != "req-9" {
		t.Fatalf("wire = %+v", w)
	}
	if w.Details["scheme"] != "bearer" {
		t.Fatalf("details = %+v", w.Details)
	}

	if status, _ := Error(nil, ""); status != http.StatusOK {
		t.Fatalf("nil err status = %d", status)
	}
}
