// Package session composes the execution contexts, the two module
// registries, the bundle loader and the bridge into the live unit of work,
// and orchestrates its lifecycle through the Manager.
//
// A Session moves Built → Initialized → Disposed; Disposed is terminal and
// a session is never resurrected. The Manager replaces it with a new one.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hostbridge-dev/hostbridge/bridge"
	"github.com/hostbridge-dev/hostbridge/capability"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
	"github.com/hostbridge-dev/hostbridge/looper"
	"github.com/hostbridge-dev/hostbridge/scriptmodule"
)

// Session is one running pairing of a script runtime and its native
// capability modules. Created by the Manager; initialized at most once;
// disposed at most once.
type Session struct {
	loopers       *looper.Set
	bridge        *bridge.Bridge
	caps          *capability.Registry
	scriptModules *scriptmodule.Registry
	loader        ports.BundleLoader
	onException   ports.ExceptionHandler
	viewFactories []ports.ViewFactory
	logger        *slog.Logger

	initialized atomic.Bool
	disposed    atomic.Bool
	faulted     atomic.Bool
}

// Initialize transitions Built → Initialized and fans out the initialize
// notification to every capability module in registration order, on the
// Capability context. Host-context-only; a second call is a programmer
// error, not a recoverable condition.
func (s *Session) Initialize(ctx context.Context) error {
	s.loopers.Host.AssertCurrent(ctx)
	if s.disposed.Load() {
		return derrors.NewMisuse("session.Initialize", "session is disposed")
	}
	if !s.initialized.CompareAndSwap(false, true) {
		return derrors.NewMisuse("session.Initialize", "session already initialized")
	}
	return s.loopers.Capability.RunSync(ctx, func(cctx context.Context) error {
		s.caps.NotifyInitialize(cctx)
		return nil
	})
}

// Dispose tears the session down: it fans out the dispose notification to
// every capability module, disposes the bridge and its runtime on the
// Script context, and stops the execution context set. Host-context-only,
// idempotent, and safe to call even if initialization never completed.
func (s *Session) Dispose(ctx context.Context) error {
	s.loopers.Host.AssertCurrent(ctx)
	if !s.disposed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Debug("disposing session")

	err := s.loopers.Capability.RunSync(ctx, func(cctx context.Context) error {
		s.caps.NotifyDispose(cctx)
		return nil
	})
	if err != nil {
		s.logger.Debug("skipping dispose fan-out on closed capability context", "error", err)
	}
	if s.bridge != nil {
		err = s.loopers.Script.RunSync(ctx, func(sctx context.Context) error {
			s.bridge.Dispose(sctx)
			return nil
		})
		if err != nil {
			s.logger.Debug("skipping bridge disposal on closed script context", "error", err)
		}
	}
	s.loopers.Close(ctx)
	return nil
}

// Initialized reports whether Initialize has completed.
func (s *Session) Initialized() bool { return s.initialized.Load() }

// Disposed reports whether Dispose has run.
func (s *Session) Disposed() bool { return s.disposed.Load() }

// Capabilities returns the immutable capability module registry.
func (s *Session) Capabilities() *capability.Registry { return s.caps }

// ScriptModules returns the immutable script module registry.
func (s *Session) ScriptModules() *scriptmodule.Registry { return s.scriptModules }

// ViewFactories returns the view factories collected from the packages, for
// the UI collaborator. The core never invokes them.
func (s *Session) ViewFactories() []ports.ViewFactory { return s.viewFactories }

// CallFunction forwards an outbound script-module call to the bridge,
// dropping it with a diagnostic when the session is disposed. Implements
// ports.Dispatcher; script-module proxies are bound to the session so
// post-disposal proxy calls can never reach the runtime.
func (s *Session) CallFunction(moduleID, methodID int, args []any) {
	if s.disposed.Load() || s.bridge == nil {
		s.logger.Debug("dropping outbound call on inactive session",
			"module", moduleID, "method", methodID)
		return
	}
	s.bridge.CallFunction(moduleID, methodID, args)
}

// handleException funnels bridge failures into session teardown. The
// embedding application's callback fires at most once; disposal is
// scheduled onto the Host context so the exception never propagates
// synchronously back across the context boundary that produced it.
func (s *Session) handleException(err error) {
	if s.disposed.Load() {
		s.logger.Debug("dropping exception on disposed session", "error", err)
		return
	}
	if !s.faulted.CompareAndSwap(false, true) {
		s.logger.Debug("suppressing fault while session teardown is pending", "error", err)
		return
	}
	s.logger.Error("uncaught bridge exception, disposing session", "error", err)
	s.onException(err)
	postErr := s.loopers.Host.Post(func(hctx context.Context) {
		_ = s.Dispose(hctx)
	})
	if postErr != nil {
		s.logger.Debug("host context already closed during fault teardown", "error", postErr)
	}
}
