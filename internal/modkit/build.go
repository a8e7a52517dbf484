package modkit

import (
	"net/http"

	"signalgate/internal/modkit/httpkit"
)

// Option configures a module at construction
type Option func(*Built)

// Built is the resolved module configuration
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler

	// Ports is the exported port bundle, or injected ports for consumer modules
	Ports any

	// Register attaches endpoints; modules chain onto it rather than replace it
	Register func(httpkit.Router)
}

// WithName names the module in logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module below prefix; empty mounts at the parent
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per-module middleware, outermost first
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands a module its port bundle; the importing module owns type T
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithRegister sets extra routes, run after the module's own
func WithRegister(fn func(httpkit.Router)) Option { return func(b *Built) { b.Register = fn } }

// Build resolves opts in order; the middleware slice never aliases the caller's
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	return b
}
