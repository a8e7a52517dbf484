// Package module is the contract between signalgate's HTTP modules and the API assembly
package module

import (
	"fmt"
	"reflect"
	"sync"

	phttp "signalgate/internal/platform/net/http"
)

// Module is what api.Mount composes; it lives apart from modkit so port
// bundles can be imported without pulling in the scaffolding
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() PortSet
	Name() string
}

// PortSet is whatever bundle a module exports, usually a struct of interfaces
type PortSet = any

// PortsOf finds a T in m's bundle: the bundle itself, or its first exported
// struct field that implements T
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if v, ok := f.Interface().(T); ok {
			return v, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for bootstrap wiring, where a missing port is a bug
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		var zero T
		panic(fmt.Sprintf("module %s: no port of type %T", m.Name(), &zero))
	}
	return v
}

// process-wide port registry, filled by api.Mount
var registry = struct {
	sync.RWMutex
	m map[string]PortSet
}{m: map[string]PortSet{}}

// Register records name's bundle, replacing any earlier one
func Register(name string, ports PortSet) {
	registry.Lock()
	defer registry.Unlock()
	registry.m[name] = ports
}

// PortsAs returns name's bundle asserted to T
func PortsAs[T any](name string) (T, bool) {
	registry.RLock()
	defer registry.RUnlock()
	v, ok := registry.m[name].(T)
	return v, ok
}

// Reset empties the registry between tests
func Reset() {
	registry.Lock()
	defer registry.Unlock()
	registry.m = map[string]PortSet{}
}
