package capability

import (
	"context"
	"log/slog"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// Registry is an immutable collection of capability modules. Once created
// via New, modules cannot be added or removed; the id space is frozen and
// lookups are lock-free from any context.
type Registry struct {
	modules    []*boundModule // registration order, index = module id
	byName     map[string]*boundModule
	descriptor []entities.ModuleDescriptor
	invoke     InvokeFunc
	logger     *slog.Logger
}

type boundModule struct {
	id      int
	module  ports.Module
	methods []*boundMethod // index = method id
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	modules    []ports.Module
	middleware []Middleware
	logger     *slog.Logger
	errors     []error
}

// Option configures registry construction.
type Option func(*registryBuilder)

// WithModule registers a single capability module. Registering two modules
// with the same name fails the build.
func WithModule(m ports.Module) Option {
	return func(b *registryBuilder) {
		if m == nil {
			b.errors = append(b.errors, derrors.NewConfigError("register module", "nil module"))
			return
		}
		if m.Name() == "" {
			b.errors = append(b.errors, derrors.NewConfigError("register module", "module name cannot be empty"))
			return
		}
		b.modules = append(b.modules, m)
	}
}

// WithModules registers modules in order.
func WithModules(mods ...ports.Module) Option {
	return func(b *registryBuilder) {
		for _, m := range mods {
			WithModule(m)(b)
		}
	}
}

// WithMiddleware appends dispatch-boundary middleware. Middleware executes
// in FIFO order (first registered wraps outermost).
func WithMiddleware(mw ...Middleware) Option {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *registryBuilder) {
		b.logger = logger
	}
}

// New builds an immutable Registry. Module ids are assigned 0..N-1 in
// registration order; an empty registry is legal. Duplicate names, nil
// modules and methods whose signatures cannot be described on the wire all
// fail the build.
func New(opts ...Option) (*Registry, error) {
	b := &registryBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	r := &Registry{
		byName: make(map[string]*boundModule, len(b.modules)),
		logger: b.logger,
	}
	for _, m := range b.modules {
		if _, dup := r.byName[m.Name()]; dup {
			return nil, derrors.NewConfigError("build registry", "duplicate module name %q", m.Name())
		}
		methods, err := bindMethods(m)
		if err != nil {
			return nil, err
		}
		bm := &boundModule{id: len(r.modules), module: m, methods: methods}
		r.modules = append(r.modules, bm)
		r.byName[m.Name()] = bm
	}
	r.descriptor = describe(r.modules)

	// Freeze the dispatch chain: panic recovery innermost, then the
	// registered middleware in FIFO order.
	chain := InvokeFunc(r.dispatch)
	for i := len(b.middleware) - 1; i >= 0; i-- {
		chain = b.middleware[i](chain)
	}
	r.invoke = chain
	return r, nil
}

func describe(modules []*boundModule) []entities.ModuleDescriptor {
	out := make([]entities.ModuleDescriptor, len(modules))
	for i, bm := range modules {
		methods := make([]entities.MethodDescriptor, len(bm.methods))
		for j, m := range bm.methods {
			methods[j] = entities.MethodDescriptor{ID: j, Name: m.name}
		}
		out[i] = entities.ModuleDescriptor{ID: bm.id, Name: bm.module.Name(), Methods: methods}
	}
	return out
}

// Describe returns the wire-format description of all modules and methods.
// It is consumed once at bridge construction and installed into the script
// runtime as part of the module configuration document.
func (r *Registry) Describe() []entities.ModuleDescriptor {
	return r.descriptor
}

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.modules) }

// Module returns the registered module with the given name.
func (r *Registry) Module(name string) (ports.Module, bool) {
	bm, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return bm.module, true
}

// Invoke resolves the call's module and method ids and executes the bound
// method on the current context; the caller is responsible for being on the
// Capability context. Unknown ids signal protocol desynchronization with
// the script side and are fatal to the session, not retried.
func (r *Registry) Invoke(ctx context.Context, call entities.Call, invoker ports.CallbackInvoker) error {
	return r.invoke(ctx, call, invoker)
}

func (r *Registry) dispatch(ctx context.Context, call entities.Call, invoker ports.CallbackInvoker) error {
	if call.ModuleID < 0 || call.ModuleID >= len(r.modules) {
		return &derrors.ProtocolError{ModuleID: call.ModuleID, MethodID: call.MethodID, Detail: "unknown module id"}
	}
	bm := r.modules[call.ModuleID]
	if call.MethodID < 0 || call.MethodID >= len(bm.methods) {
		return &derrors.ProtocolError{ModuleID: call.ModuleID, MethodID: call.MethodID, Detail: "unknown method id"}
	}
	method := bm.methods[call.MethodID]

	var cb ports.Callback
	if call.CallbackID != nil && invoker != nil {
		id := *call.CallbackID
		cb = func(args ...any) { invoker.InvokeCallback(id, args) }
	}

	err := r.guardedInvoke(ctx, bm, method, call, cb)
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *derrors.ProtocolError, *derrors.CapabilityFault:
		return err
	default:
		return &derrors.CapabilityFault{Module: bm.module.Name(), Method: method.name, Err: err}
	}
}

// guardedInvoke converts panics raised inside module methods into
// capability faults so they never cross the context boundary.
func (r *Registry) guardedInvoke(ctx context.Context, bm *boundModule, method *boundMethod, call entities.Call, cb ports.Callback) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &derrors.CapabilityFault{
				Module:   bm.module.Name(),
				Method:   method.name,
				Err:      recoveredError(rec),
				Panicked: true,
			}
		}
	}()
	return method.invoke(ctx, call, cb)
}

// NotifyInitialize delivers the initialize notification to every module in
// registration order. Must run on the Capability context.
func (r *Registry) NotifyInitialize(ctx context.Context) {
	for _, bm := range r.modules {
		if init, ok := bm.module.(ports.Initializer); ok {
			init.Initialize(ctx)
		}
	}
}

// NotifyDispose delivers the session-disposing notification in registration
// order. Must run on the Capability context.
func (r *Registry) NotifyDispose(ctx context.Context) {
	for _, bm := range r.modules {
		if d, ok := bm.module.(ports.Disposer); ok {
			d.OnSessionDispose(ctx)
		}
	}
}

// NotifyBatchComplete delivers the batch-complete notification in
// registration order. Must run on the Capability context.
func (r *Registry) NotifyBatchComplete(ctx context.Context) {
	for _, bm := range r.modules {
		if l, ok := bm.module.(ports.BatchListener); ok {
			l.OnBatchComplete(ctx)
		}
	}
}
