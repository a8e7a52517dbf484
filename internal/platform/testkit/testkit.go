// Package testkit has the assertions and seam helpers shared by signalgate tests
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// MustPanic fails t unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	if r := catch(fn); r == nil {
		t.Fatalf("expected panic, got none")
	}
}

// MustNotPanic fails t if fn panics
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	if r := catch(fn); r != nil {
		t.Fatalf("unexpected panic: %v", r)
	}
}

func catch(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

// MustContain fails t when needle is absent; long haystacks (log output,
// response bodies) are dumped to a temp file rather than the failure line
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		return
	}
	if len(haystack) <= 512 {
		t.Fatalf("expected %q in:\n%s", needle, haystack)
	}
	dump := filepath.Join(t.TempDir(), "haystack.txt")
	_ = os.WriteFile(dump, []byte(haystack), 0o600)
	t.Fatalf("expected %q; output (%d bytes) written to %s", needle, len(haystack), dump)
}

// Swap replaces *target for the rest of the test
func Swap[T any](t *testing.T, target *T, v T) {
	t.Helper()
	old := *target
	*target = v
	t.Cleanup(func() { *target = old })
}

var serial sync.Mutex

// Serial holds a process-wide lock until t finishes; use it in tests that
// touch package globals such as the port registry or swapped seams
func Serial(t *testing.T) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}
