// Package lua implements the script runtime port on an embedded gopher-lua
// interpreter. Bundles are textual Lua source.
//
// Script-facing contract:
//
//   - the module configuration document is readable as the global table
//     named by entities.ConfigGlobalName;
//   - script calls native capability methods through the global function
//     nativeCall(moduleId, methodId, argsTable[, callbackFn]);
//   - the host invokes script modules through the global function
//     __hostBridgeCall(moduleId, methodId, argsTable), which the bundle
//     must define before the first host-initiated call arrives.
//
// Every method must run on the Script execution context; the bridge
// guarantees this, the runtime does not re-check it.
package lua

import (
	"bytes"
	"fmt"
	"log/slog"

	glua "github.com/yuin/gopher-lua"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// DispatchGlobalName is the script-side dispatch entry point for
// host-initiated calls.
const DispatchGlobalName = "__hostBridgeCall"

// NativeCallGlobalName is the script-facing native-call entry point.
const NativeCallGlobalName = "nativeCall"

// Runtime is a ports.ScriptRuntime backed by a gopher-lua state. It owns
// the script-side callback table: callback tokens never leave the runtime
// as live Lua values.
type Runtime struct {
	state        *glua.LState
	hooks        ports.NativeHooks
	callbacks    map[int]*glua.LFunction
	nextCallback int
	logger       *slog.Logger
}

// New creates a fresh Lua state with the standard libraries opened.
func New(logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		state:     glua.NewState(),
		callbacks: make(map[int]*glua.LFunction),
		logger:    logger,
	}
}

// Factory returns a runtime factory for session configuration.
func Factory(logger *slog.Logger) func() (ports.ScriptRuntime, error) {
	return func() (ports.ScriptRuntime, error) {
		return New(logger), nil
	}
}

// BindHooks installs the nativeCall entry point. Called once by the bridge
// before any bundle code runs.
func (r *Runtime) BindHooks(hooks ports.NativeHooks) {
	r.hooks = hooks
	r.state.SetGlobal(NativeCallGlobalName, r.state.NewFunction(r.luaNativeCall))
}

// luaNativeCall is the Lua-side nativeCall(moduleId, methodId, argsTable
// [, callbackFn]) implementation. Runs while the state executes script
// code, which is always a Script-context turn.
func (r *Runtime) luaNativeCall(L *glua.LState) int {
	call := entities.Call{
		ModuleID: L.CheckInt(1),
		MethodID: L.CheckInt(2),
	}
	if L.GetTop() >= 3 {
		if tbl, ok := L.Get(3).(*glua.LTable); ok {
			call.Args = tableToSlice(tbl)
		} else if L.Get(3) != glua.LNil {
			L.ArgError(3, "args must be a table or nil")
		}
	}
	if L.GetTop() >= 4 {
		if fn, ok := L.Get(4).(*glua.LFunction); ok {
			id := r.nextCallback
			r.nextCallback++
			r.callbacks[id] = fn
			call.CallbackID = &id
		} else if L.Get(4) != glua.LNil {
			L.ArgError(4, "callback must be a function or nil")
		}
	}
	if r.hooks == nil {
		L.RaiseError("bridge hooks are not bound")
		return 0
	}
	r.hooks.EnqueueNativeCall(call)
	return 0
}

// SetGlobal installs a host value under a global name.
func (r *Runtime) SetGlobal(name string, value any) error {
	lv, err := goToLua(r.state, value)
	if err != nil {
		return fmt.Errorf("failed to convert global %q: %w", name, err)
	}
	r.state.SetGlobal(name, lv)
	return nil
}

// LoadBundle compiles and evaluates bundle source.
func (r *Runtime) LoadBundle(source []byte, name string) error {
	fn, err := r.state.Load(bytes.NewReader(source), name)
	if err != nil {
		return fmt.Errorf("failed to compile bundle %q: %w", name, err)
	}
	r.state.Push(fn)
	if err := r.state.PCall(0, 0, nil); err != nil {
		return fmt.Errorf("failed to evaluate bundle %q: %w", name, err)
	}
	return nil
}

// CallFunction invokes the bundle's dispatch entry point with the wire ids
// and an argument table.
func (r *Runtime) CallFunction(moduleID, methodID int, args []any) error {
	fn, ok := r.state.GetGlobal(DispatchGlobalName).(*glua.LFunction)
	if !ok {
		return fmt.Errorf("script dispatch entry %q is not defined", DispatchGlobalName)
	}
	argTable, err := sliceToTable(r.state, args)
	if err != nil {
		return fmt.Errorf("failed to convert call args: %w", err)
	}
	err = r.state.CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true},
		glua.LNumber(moduleID), glua.LNumber(methodID), argTable)
	if err != nil {
		return fmt.Errorf("script call (module=%d method=%d) failed: %w", moduleID, methodID, err)
	}
	return nil
}

// InvokeCallback delivers arguments to a stored callback and releases the
// token. Callbacks are one-shot.
func (r *Runtime) InvokeCallback(callbackID int, args []any) error {
	fn, ok := r.callbacks[callbackID]
	if !ok {
		return fmt.Errorf("unknown or already invoked callback id %d", callbackID)
	}
	delete(r.callbacks, callbackID)

	lvs := make([]glua.LValue, len(args))
	for i, a := range args {
		lv, err := goToLua(r.state, a)
		if err != nil {
			return fmt.Errorf("failed to convert callback arg %d: %w", i, err)
		}
		lvs[i] = lv
	}
	if err := r.state.CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true}, lvs...); err != nil {
		return fmt.Errorf("callback %d failed: %w", callbackID, err)
	}
	return nil
}

// Dispose closes the Lua state. No method may be called afterwards.
func (r *Runtime) Dispose() {
	r.callbacks = nil
	r.state.Close()
}
