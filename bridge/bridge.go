// Package bridge implements the call-marshaling channel between the host
// and the embedded script runtime. Outbound calls issued within one
// Script-context turn are batched in submission order; inbound calls are
// collected per script turn and dispatched as a batch on the Capability
// context, followed by the batch-complete fan-out.
//
// All script-runtime touches happen on the Script context; all capability
// dispatch happens on the Capability context. Once the owning session is
// disposed, work targeting the bridge is dropped with a diagnostic rather
// than executed.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hostbridge-dev/hostbridge/capability"
	"github.com/hostbridge-dev/hostbridge/domain/entities"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
	"github.com/hostbridge-dev/hostbridge/looper"
	"github.com/hostbridge-dev/hostbridge/scriptmodule"
)

// Config carries the collaborators a bridge is constructed from. All fields
// are required except Logger.
type Config struct {
	Loopers       *looper.Set
	Runtime       ports.ScriptRuntime
	Capabilities  *capability.Registry
	ScriptModules *scriptmodule.Registry
	OnException   ports.ExceptionHandler
	Logger        *slog.Logger
}

func (c Config) validate() error {
	switch {
	case c.Loopers == nil:
		return derrors.NewConfigError("bridge", "execution context set is required")
	case c.Runtime == nil:
		return derrors.NewConfigError("bridge", "script runtime is required")
	case c.Capabilities == nil:
		return derrors.NewConfigError("bridge", "capability registry is required")
	case c.ScriptModules == nil:
		return derrors.NewConfigError("bridge", "script module registry is required")
	case c.OnException == nil:
		return derrors.NewConfigError("bridge", "exception handler is required")
	}
	return nil
}

// Bridge owns the serialized channel to the script runtime.
type Bridge struct {
	loopers     *looper.Set
	runtime     ports.ScriptRuntime
	caps        *capability.Registry
	onException ports.ExceptionHandler
	logger      *slog.Logger
	disposed    atomic.Bool

	// Script-context-owned batching state; touched only from the Script
	// looper, never synchronized.
	outPending   []entities.Call
	outScheduled bool
	inPending    entities.CallBatch
	inScheduled  bool
}

// New constructs the bridge and installs the module configuration document
// into the script runtime under its well-known global name. Must be called
// on the Script context, before any bundle code is loaded.
func New(ctx context.Context, cfg Config) (*Bridge, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Loopers.Script.AssertCurrent(ctx)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &Bridge{
		loopers:     cfg.Loopers,
		runtime:     cfg.Runtime,
		caps:        cfg.Capabilities,
		onException: cfg.OnException,
		logger:      cfg.Logger,
	}
	b.runtime.BindHooks(b)

	doc := entities.ModuleConfig{
		RemoteModuleConfig: cfg.Capabilities.Describe(),
		LocalModulesConfig: cfg.ScriptModules.Describe(),
	}
	value, err := wireValue(doc)
	if err != nil {
		return nil, derrors.WrapConfig("serialize module configuration", err)
	}
	if err := b.runtime.SetGlobal(entities.ConfigGlobalName, value); err != nil {
		return nil, derrors.WrapConfig("install module configuration", err)
	}
	return b, nil
}

// wireValue converts the configuration document into the JSON-shaped
// map/slice form every runtime backend can install as a script value.
func wireValue(doc entities.ModuleConfig) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// LoadBundle injects script source through the given loader. Must run on
// the Script context, after New has installed the configuration document.
func (b *Bridge) LoadBundle(ctx context.Context, loader ports.BundleLoader) error {
	b.loopers.Script.AssertCurrent(ctx)
	if err := loader.LoadScript(ctx, b.runtime); err != nil {
		return fmt.Errorf("failed to load bundle %q: %w", loader.SourceName(), err)
	}
	return nil
}

// CallFunction enqueues a script-module invocation. Calls issued before the
// current Script-context turn drains are batched together and reach script
// in submission order. Fire-and-forget: errors surface only through the
// exception handler. Implements ports.Dispatcher.
func (b *Bridge) CallFunction(moduleID, methodID int, args []any) {
	if b.disposed.Load() {
		b.logger.Debug("dropping outbound call on disposed bridge",
			"module", moduleID, "method", methodID)
		return
	}
	call := entities.Call{ModuleID: moduleID, MethodID: methodID, Args: args}
	err := b.loopers.Script.Post(func(ctx context.Context) {
		b.outPending = append(b.outPending, call)
		if !b.outScheduled {
			b.outScheduled = true
			if err := b.loopers.Script.Post(b.flushOutbound); err != nil {
				b.outScheduled = false
			}
		}
	})
	if err != nil {
		b.logger.Debug("dropping outbound call on closed script context", "call", call.String())
	}
}

func (b *Bridge) flushOutbound(ctx context.Context) {
	batch := b.outPending
	b.outPending = nil
	b.outScheduled = false
	if b.disposed.Load() {
		b.logger.Debug("dropping outbound batch on disposed bridge", "calls", len(batch))
		return
	}
	for _, call := range batch {
		if err := b.runtime.CallFunction(call.ModuleID, call.MethodID, call.Args); err != nil {
			b.reportException(fmt.Errorf("outbound %s: %w", call.String(), err))
			return
		}
	}
}

// InvokeCallback resolves a previously issued callback token and delivers
// arguments back into script. No-ops when the session is already disposed.
// Implements ports.CallbackInvoker; safe to call from any goroutine.
func (b *Bridge) InvokeCallback(callbackID int, args []any) {
	if b.disposed.Load() {
		b.logger.Debug("dropping callback on disposed bridge", "callback", callbackID)
		return
	}
	err := b.loopers.Script.Post(func(ctx context.Context) {
		if b.disposed.Load() {
			b.logger.Debug("dropping callback on disposed bridge", "callback", callbackID)
			return
		}
		if err := b.runtime.InvokeCallback(callbackID, args); err != nil {
			b.reportException(fmt.Errorf("callback %d: %w", callbackID, err))
		}
	})
	if err != nil {
		b.logger.Debug("dropping callback on closed script context", "callback", callbackID)
	}
}

// EnqueueNativeCall collects an inbound script-to-host call. Called by the
// runtime while executing script code, on the Script context; the pending
// batch is dispatched once the current script turn finishes. Implements
// ports.NativeHooks.
func (b *Bridge) EnqueueNativeCall(call entities.Call) {
	b.inPending = append(b.inPending, call)
	if !b.inScheduled {
		b.inScheduled = true
		if err := b.loopers.Script.Post(b.flushInbound); err != nil {
			b.inScheduled = false
		}
	}
}

func (b *Bridge) flushInbound(ctx context.Context) {
	batch := b.inPending
	b.inPending = nil
	b.inScheduled = false
	if len(batch) == 0 {
		return
	}
	if b.disposed.Load() {
		b.logger.Debug("dropping inbound batch on disposed bridge", "calls", len(batch))
		return
	}
	err := b.loopers.Capability.Post(func(ctx context.Context) {
		b.executeBatch(ctx, batch)
	})
	if err != nil {
		b.logger.Debug("dropping inbound batch on closed capability context", "calls", len(batch))
	}
}

// executeBatch runs every call of the batch on the Capability context, then
// fans out the batch-complete notification. A failure stops the batch and
// is reported exactly once; partial work that raced with teardown never
// retries, only stops.
func (b *Bridge) executeBatch(ctx context.Context, batch entities.CallBatch) {
	if b.disposed.Load() {
		b.logger.Debug("dropping inbound batch on disposed bridge", "calls", len(batch))
		return
	}
	for _, call := range batch {
		if err := b.caps.Invoke(ctx, call, b); err != nil {
			b.reportException(err)
			return
		}
	}
	if b.disposed.Load() {
		b.logger.Debug("skipping batch-complete on disposed bridge")
		return
	}
	b.caps.NotifyBatchComplete(ctx)
}

// reportException delivers a failure to the session's exception handler.
// The bridge never retries failed calls; retry, if any, is a policy of the
// embedding application issuing a fresh call.
func (b *Bridge) reportException(err error) {
	if b.disposed.Load() {
		b.logger.Debug("dropping exception on disposed bridge", "error", err)
		return
	}
	b.onException(err)
}

// Dispose marks the bridge disposed and releases the script runtime. Must
// run on the Script context. Idempotent.
func (b *Bridge) Dispose(ctx context.Context) {
	b.loopers.Script.AssertCurrent(ctx)
	if !b.disposed.CompareAndSwap(false, true) {
		return
	}
	b.outPending = nil
	b.inPending = nil
	b.runtime.Dispose()
}

// Disposed reports whether Dispose has run.
func (b *Bridge) Disposed() bool { return b.disposed.Load() }
