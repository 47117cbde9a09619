package ports

// ExceptionHandler receives uncaught capability faults and protocol errors.
// It is invoked at most once per failure, off the context that produced the
// failure; after the invocation the owning session auto-disposes. The
// embedding application decides whether to recreate the session.
type ExceptionHandler func(err error)

// BackHandler is the hardware back-button collaborator. The core's
// back-button capability module delegates to it verbatim; the core itself
// defines no default behavior.
type BackHandler interface {
	InvokeDefaultBackAction()
}

// Dispatcher issues outbound script-module calls. Script-module proxies are
// bound to a dispatcher at registry build time; the bridge is the canonical
// implementation. Dispatch is fire-and-forget.
type Dispatcher interface {
	CallFunction(moduleID, methodID int, args []any)
}
