// Package wasm implements the script runtime port on wazero for compiled
// WebAssembly bundles.
//
// Guest ABI. The guest imports the "hostbridge" module:
//
//	enqueue_call(ptr_len u64)        // JSON entities.Call
//	get_global(ptr_len u64) -> u64   // global name -> JSON value, 0 if unset
//	log(ptr_len u64)                 // {"level","message"} JSON
//
// and must export:
//
//	allocate(size u64) -> u64                         // guest-side allocation
//	call_function(module u64, method u64, args u64)   // args: JSON []any
//	invoke_callback(callback u64, args u64)           // args: JSON []any
//
// ptr_len values pack a 32-bit pointer in the high half and a 32-bit length
// in the low half. Globals installed with SetGlobal are pulled by the guest
// via get_global; the host registers them before instantiation, so the
// module configuration document is observable from the first guest
// instruction onward.
package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

const hostModuleName = "hostbridge"

// Runtime is a ports.ScriptRuntime backed by a wazero runtime instance.
type Runtime struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
	hooks   ports.NativeHooks
	globals map[string][]byte
	logger  *slog.Logger
}

// New creates the wazero runtime and registers the host module. The given
// context bounds all guest execution.
func New(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		ctx:     ctx,
		runtime: wazero.NewRuntime(ctx),
		globals: make(map[string][]byte),
		logger:  logger,
	}
	wasi_snapshot_preview1.MustInstantiate(ctx, r.runtime)
	if err := r.registerHostModule(ctx); err != nil {
		r.runtime.Close(ctx)
		return nil, fmt.Errorf("failed to register host module: %w", err)
	}
	return r, nil
}

// Factory returns a runtime factory for session configuration.
func Factory(ctx context.Context, logger *slog.Logger) func() (ports.ScriptRuntime, error) {
	return func() (ports.ScriptRuntime, error) {
		return New(ctx, logger)
	}
}

func (r *Runtime) registerHostModule(ctx context.Context) error {
	builder := r.runtime.NewHostModuleBuilder(hostModuleName)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) {
			payload, ok := readPacked(m, packed)
			if !ok {
				return
			}
			var call entities.Call
			if err := json.Unmarshal(payload, &call); err != nil {
				r.logger.Error("discarding malformed native call", "error", err)
				return
			}
			if r.hooks != nil {
				r.hooks.EnqueueNativeCall(call)
			}
		}).
		Export("enqueue_call")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) uint64 {
			name, ok := readPacked(m, packed)
			if !ok {
				return 0
			}
			value, ok := r.globals[string(name)]
			if !ok {
				return 0
			}
			out, err := writeGuest(ctx, m, value)
			if err != nil {
				r.logger.Error("failed to deliver global to guest", "global", string(name), "error", err)
				return 0
			}
			return out
		}).
		Export("get_global")

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) {
			payload, ok := readPacked(m, packed)
			if !ok {
				return
			}
			var msg struct {
				Level   string `json:"level"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload, &msg); err != nil {
				return
			}
			switch msg.Level {
			case "error":
				r.logger.Error(msg.Message, "origin", "bundle")
			case "warn":
				r.logger.Warn(msg.Message, "origin", "bundle")
			default:
				r.logger.Info(msg.Message, "origin", "bundle")
			}
		}).
		Export("log")

	_, err := builder.Instantiate(ctx)
	return err
}

// BindHooks installs the inbound call sink. Called once before LoadBundle.
func (r *Runtime) BindHooks(hooks ports.NativeHooks) {
	r.hooks = hooks
}

// SetGlobal registers a global the guest can pull via get_global. Values
// are stored JSON-encoded.
func (r *Runtime) SetGlobal(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode global %q: %w", name, err)
	}
	r.globals[name] = raw
	return nil
}

// LoadBundle instantiates the wasm bundle. The guest's start function runs
// the bundle's top-level code.
func (r *Runtime) LoadBundle(source []byte, name string) error {
	if r.module != nil {
		return fmt.Errorf("bundle %q: a bundle is already loaded", name)
	}
	cfg := wazero.NewModuleConfig().WithName(name)
	mod, err := r.runtime.InstantiateWithConfig(r.ctx, source, cfg)
	if err != nil {
		return fmt.Errorf("failed to instantiate bundle %q: %w", name, err)
	}
	for _, export := range []string{"allocate", "call_function", "invoke_callback"} {
		if mod.ExportedFunction(export) == nil {
			mod.Close(r.ctx)
			return fmt.Errorf("bundle %q does not export %q", name, export)
		}
	}
	r.module = mod
	return nil
}

// CallFunction invokes the guest's call_function export with a JSON args
// envelope.
func (r *Runtime) CallFunction(moduleID, methodID int, args []any) error {
	if r.module == nil {
		return fmt.Errorf("no bundle loaded")
	}
	packed, err := r.writeArgs(args)
	if err != nil {
		return err
	}
	_, err = r.module.ExportedFunction("call_function").
		Call(r.ctx, uint64(moduleID), uint64(methodID), packed)
	if err != nil {
		return fmt.Errorf("guest call (module=%d method=%d) failed: %w", moduleID, methodID, err)
	}
	return nil
}

// InvokeCallback delivers arguments to a guest-managed callback token.
func (r *Runtime) InvokeCallback(callbackID int, args []any) error {
	if r.module == nil {
		return fmt.Errorf("no bundle loaded")
	}
	packed, err := r.writeArgs(args)
	if err != nil {
		return err
	}
	_, err = r.module.ExportedFunction("invoke_callback").
		Call(r.ctx, uint64(callbackID), packed)
	if err != nil {
		return fmt.Errorf("guest callback %d failed: %w", callbackID, err)
	}
	return nil
}

func (r *Runtime) writeArgs(args []any) (uint64, error) {
	if args == nil {
		args = []any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return 0, fmt.Errorf("failed to encode call args: %w", err)
	}
	packed, err := writeGuest(r.ctx, r.module, raw)
	if err != nil {
		return 0, fmt.Errorf("failed to write call args to guest: %w", err)
	}
	return packed, nil
}

// Dispose closes the guest module and the wazero runtime.
func (r *Runtime) Dispose() {
	r.runtime.Close(r.ctx)
	r.module = nil
}

// readPacked reads a ptr/len-packed byte range out of guest memory.
func readPacked(m api.Module, packed uint64) ([]byte, bool) {
	ptr := uint32(packed >> 32)
	length := uint32(packed)
	data, ok := m.Memory().Read(ptr, length)
	if !ok {
		return nil, false
	}
	out := make([]byte, length)
	copy(out, data)
	return out, true
}

// writeGuest copies data into guest memory via the guest's allocate export
// and returns the packed ptr/len.
func writeGuest(ctx context.Context, m api.Module, data []byte) (uint64, error) {
	allocate := m.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("guest does not export allocate")
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("guest allocation failed: %w", err)
	}
	ptr := uint32(results[0])
	if !m.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("guest memory write out of range")
	}
	return (uint64(ptr) << 32) | uint64(len(data)), nil
}
