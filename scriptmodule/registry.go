// Package scriptmodule builds typed proxies for script-side modules the
// host may invoke. A descriptor is a pointer to a struct whose exported
// func fields are the module's methods; the registry fills each field with
// a proxy that translates the call into an outbound bridge dispatch.
//
// Proxy calls are fire-and-forget: they post onto the Script context and
// never block the caller, and script-module methods expose no return
// values.
package scriptmodule

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// Registry holds the generated proxies and their wire ids. Immutable after
// New; ids are assigned 0..N-1 in acceptance order.
type Registry struct {
	modules    []*proxyModule
	byName     map[string]*proxyModule
	descriptor []entities.ModuleDescriptor
}

type proxyModule struct {
	id    int
	name  string
	proxy any
}

// New validates the descriptors and generates proxies bound to the given
// dispatcher. Invalid descriptors (non-struct pointers, non-func fields,
// methods with return values, duplicate names) are dropped with a
// diagnostic; they are not fatal to the build.
func New(d ports.Dispatcher, logger *slog.Logger, descriptors ...any) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{byName: make(map[string]*proxyModule, len(descriptors))}
	for _, desc := range descriptors {
		name, fields, err := validate(desc)
		if err != nil {
			logger.Warn("dropping invalid script module descriptor",
				"descriptor", fmt.Sprintf("%T", desc), "error", err)
			continue
		}
		if _, dup := r.byName[name]; dup {
			logger.Warn("dropping duplicate script module descriptor", "module", name)
			continue
		}
		pm := &proxyModule{id: len(r.modules), name: name, proxy: desc}
		bind(d, pm.id, desc, fields)
		r.modules = append(r.modules, pm)
		r.byName[name] = pm
	}
	r.descriptor = describe(r.modules)
	return r
}

// Describe returns the wire-format description of the accepted modules,
// consumed at bridge construction for the module configuration document.
func (r *Registry) Describe() []entities.ModuleDescriptor {
	return r.descriptor
}

// Len returns the number of accepted modules.
func (r *Registry) Len() int { return len(r.modules) }

// Module returns the proxy registered under the given module name.
func (r *Registry) Module(name string) (any, bool) {
	pm, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return pm.proxy, true
}

// Proxy returns the generated proxy of descriptor type T, looked up by the
// type's name.
func Proxy[T any](r *Registry) (*T, bool) {
	name := reflect.TypeOf((*T)(nil)).Elem().Name()
	pm, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	p, ok := pm.proxy.(*T)
	return p, ok
}

func describe(modules []*proxyModule) []entities.ModuleDescriptor {
	out := make([]entities.ModuleDescriptor, len(modules))
	for i, pm := range modules {
		t := reflect.TypeOf(pm.proxy).Elem()
		var methods []entities.MethodDescriptor
		for j := 0; j < t.NumField(); j++ {
			methods = append(methods, entities.MethodDescriptor{ID: j, Name: t.Field(j).Name})
		}
		out[i] = entities.ModuleDescriptor{ID: pm.id, Name: pm.name, Methods: methods}
	}
	return out
}
