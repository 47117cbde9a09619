package ports

import "github.com/hostbridge-dev/hostbridge/domain/entities"

// NativeHooks is the inbound face of the bridge handed to a script runtime.
// Runtimes call EnqueueNativeCall while executing script code; the bridge
// collects the calls and dispatches them as a batch on the capability
// context once the current script turn finishes.
type NativeHooks interface {
	EnqueueNativeCall(call entities.Call)
}

// ScriptRuntime abstracts the embedded script engine. Every method must be
// invoked on the session's Script execution context only; the bridge
// enforces this, implementations may assume it.
type ScriptRuntime interface {
	// BindHooks installs the native-call entry points into the runtime.
	// Called once, before LoadBundle.
	BindHooks(hooks NativeHooks)

	// SetGlobal installs a host value under a global name inside the
	// runtime. Used to install the module configuration document before
	// any bundle code runs.
	SetGlobal(name string, value any) error

	// LoadBundle evaluates bundle source. name is used for diagnostics.
	LoadBundle(source []byte, name string) error

	// CallFunction invokes a script-module method by its wire ids.
	CallFunction(moduleID, methodID int, args []any) error

	// InvokeCallback delivers arguments to a previously issued callback
	// token. Callbacks are one-shot; the token is released on delivery.
	InvokeCallback(callbackID int, args []any) error

	// Dispose releases the runtime. No method may be called afterwards.
	Dispose()
}

// CallbackInvoker delivers callback results back into script. Capability
// modules receive callbacks already bound to an invoker; the bridge is the
// canonical implementation.
type CallbackInvoker interface {
	InvokeCallback(callbackID int, args []any)
}

// Callback is a script-side callback handed to a capability module method.
// Invoking it is fire-and-forget: delivery is posted onto the Script
// context and never blocks the caller. It may be invoked from any
// goroutine, at most once.
type Callback func(args ...any)
