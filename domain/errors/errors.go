// Package errors provides the error taxonomy shared across the bridge core.
// All error types support unwrapping via errors.As() and errors.Is().
//
// The classes map onto distinct failure policies:
//
//   - ConfigError: fails fast at build time, never reaches a running session.
//   - ProtocolError: desynchronization with the script side, fatal to the
//     current session.
//   - CapabilityFault: an exception inside a capability module method,
//     reported once and followed by session disposal.
//   - MisuseError: a core invariant violation by the embedding application,
//     not a recoverable runtime condition.
//   - ErrDisposed: work raced with teardown; dropped, never retried.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrDisposed is the sentinel reported when work targets a session or
// execution context that has already been torn down.
var ErrDisposed = stderrors.New("session disposed")

// ConfigError indicates an invalid build-time configuration, such as a
// duplicate module name or a missing required parameter.
type ConfigError struct {
	Op     string // operation that rejected the configuration
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("config: %s: %s: %v", e.Op, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("config: %s: %s", e.Op, e.Detail)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError with a formatted detail message.
func NewConfigError(op, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// WrapConfig wraps an underlying error as a ConfigError.
func WrapConfig(op string, err error) *ConfigError {
	return &ConfigError{Op: op, Err: err}
}

// ProtocolError indicates the script side referenced a module, method or
// callback id the host does not know. This signals protocol
// desynchronization and is fatal to the current session.
type ProtocolError struct {
	ModuleID int
	MethodID int
	Detail   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol desync: module=%d method=%d: %s", e.ModuleID, e.MethodID, e.Detail)
}

// CapabilityFault wraps an error raised while executing a capability module
// method. It is caught at the dispatch boundary and reported exactly once
// through the session's exception handler.
type CapabilityFault struct {
	Module   string
	Method   string
	Err      error
	Panicked bool
}

func (e *CapabilityFault) Error() string {
	kind := "error"
	if e.Panicked {
		kind = "panic"
	}
	return fmt.Sprintf("capability fault: %s.%s: %s: %v", e.Module, e.Method, kind, e.Err)
}

func (e *CapabilityFault) Unwrap() error { return e.Err }

// MisuseError indicates programmer misuse of the core API, such as a second
// Initialize call or touching context-owned state from a foreign context.
type MisuseError struct {
	Op     string
	Detail string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("misuse: %s: %s", e.Op, e.Detail)
}

// NewMisuse builds a MisuseError with a formatted detail message.
func NewMisuse(op, format string, args ...any) *MisuseError {
	return &MisuseError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// IsDisposed reports whether err is (or wraps) ErrDisposed.
func IsDisposed(err error) bool { return stderrors.Is(err, ErrDisposed) }
