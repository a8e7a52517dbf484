// Package modkit holds the shared scaffolding for signalgate's HTTP modules
package modkit

import (
	"signalgate/internal/modkit/httpkit"
	"signalgate/internal/modkit/module"
	str "signalgate/internal/platform/strings"
)

// Base satisfies module.Module; modules embed it and chain onto Register
type Base struct {
	Built
}

var _ module.Module = Base{}

// NewBase resolves the module's own defaults first so callers can override them
func NewBase(defaults []Option, opts ...Option) Base {
	return Base{Built: Build(append(defaults, opts...)...)}
}

// MountRoutes mounts Register at Prefix behind the module middleware
func (b Base) MountRoutes(r httpkit.Router) {
	mount := func(sub httpkit.Router) {
		if len(b.Mw) > 0 {
			sub.Use(b.Mw...)
		}
		b.Register(sub)
	}
	if b.Prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(str.MustPrefix(b.Prefix), mount)
}

// Name is the registry key
func (b Base) Name() string { return b.Built.Name }

// Ports returns the exported or injected bundle
func (b Base) Ports() any { return b.Built.Ports }
