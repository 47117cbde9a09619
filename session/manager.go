package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hostbridge-dev/hostbridge/bridge"
	"github.com/hostbridge-dev/hostbridge/capability"
	"github.com/hostbridge-dev/hostbridge/corepkg"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
	"github.com/hostbridge-dev/hostbridge/looper"
	"github.com/hostbridge-dev/hostbridge/scriptmodule"
)

// ViewToken is an opaque identifier for an attached view surface. Its
// lifecycle is owned by the UI collaborator, not by the core.
type ViewToken string

// Manager is the lifecycle orchestrator: it owns the Host execution context,
// the package list, the current session and the set of attached view
// tokens. Exactly one session is current at a time; recreation replaces it
// atomically on the Host context.
type Manager struct {
	cfg    Config
	host   *looper.Looper
	logger *slog.Logger

	// Host-context-owned state; mutated only on the Host looper.
	current     *Session
	views       map[ViewToken]int
	nextRootTag int
}

// NewManager validates the configuration and starts the Host execution
// context. No session exists until CreateSession.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:         cfg,
		host:        looper.New("host", cfg.Logger),
		logger:      cfg.Logger,
		views:       make(map[ViewToken]int),
		nextRootTag: 1,
	}, nil
}

// Host returns the Host execution context the manager runs on. Embedding
// applications use it to enter the Host context for lifecycle calls.
func (m *Manager) Host() *looper.Looper { return m.host }

// Current returns the current session, or nil before the first build. The
// read runs on the Host context, so it is safe to call from any goroutine
// concurrently with session recreation.
func (m *Manager) Current(ctx context.Context) *Session {
	var s *Session
	_ = m.host.RunSync(ctx, func(context.Context) error {
		s = m.current
		return nil
	})
	return s
}

// CreateSession builds a new session from the configured packages and
// bundle reference and performs the two-phase startup: install the module
// configuration document, inject the bundle, then wait for bridge
// construction to finish on the Script context. Fails when an undisposed
// session is already current.
func (m *Manager) CreateSession(ctx context.Context) error {
	return m.host.RunSync(ctx, func(hctx context.Context) error {
		if m.current != nil && !m.current.Disposed() {
			return derrors.NewMisuse("manager.CreateSession",
				"a session is already current; use RecreateSession")
		}
		s, err := m.buildSession(hctx)
		if err != nil {
			return err
		}
		m.current = s
		return nil
	})
}

// RecreateSession disposes the current session and builds a new one from
// the same package list and a possibly new bundle reference (pass nil to
// keep the existing one). The new session becomes current before the old
// one is disposed; previously attached view tokens are NOT reattached,
// that is the embedding application's responsibility.
// When the build fails the old session stays current.
func (m *Manager) RecreateSession(ctx context.Context, loader ports.BundleLoader) error {
	return m.host.RunSync(ctx, func(hctx context.Context) error {
		if loader != nil {
			m.cfg.Loader = loader
		}
		s, err := m.buildSession(hctx)
		if err != nil {
			return fmt.Errorf("failed to recreate session: %w", err)
		}
		old := m.current
		m.current = s
		if len(m.views) > 0 {
			m.logger.Debug("discarding view attachments on session recreation", "views", len(m.views))
			clear(m.views)
		}
		if old != nil {
			_ = old.Dispose(hctx)
		}
		return nil
	})
}

// buildSession assembles registries, contexts, runtime and bridge. Runs on
// the Host context.
func (m *Manager) buildSession(hctx context.Context) (*Session, error) {
	m.host.AssertCurrent(hctx)

	packages := make([]ports.Package, 0, len(m.cfg.Packages)+1)
	packages = append(packages, corepkg.New(m.cfg.BackHandler, m.logger))
	packages = append(packages, m.cfg.Packages...)

	var (
		modules       []ports.Module
		descriptors   []any
		viewFactories []ports.ViewFactory
	)
	for _, pkg := range packages {
		modules = append(modules, pkg.CreateCapabilityModules(hctx)...)
		descriptors = append(descriptors, pkg.CreateScriptModuleDescriptors()...)
		viewFactories = append(viewFactories, pkg.CreateViewFactories(hctx)...)
	}

	caps, err := capability.New(
		capability.WithModules(modules...),
		capability.WithLogger(m.logger),
		capability.WithMiddleware(capability.LoggingMiddleware(m.logger)),
	)
	if err != nil {
		return nil, err
	}

	s := &Session{
		caps:          caps,
		loader:        m.cfg.Loader,
		onException:   m.cfg.OnException,
		viewFactories: viewFactories,
		logger:        m.logger,
	}
	s.scriptModules = scriptmodule.New(s, m.logger, descriptors...)
	s.loopers = looper.NewSet(m.host, m.logger)

	rt, err := m.cfg.RuntimeFactory()
	if err != nil {
		s.loopers.Close(hctx)
		return nil, derrors.WrapConfig("create script runtime", err)
	}
	discard := func() {
		_ = s.loopers.Script.RunSync(hctx, func(context.Context) error {
			rt.Dispose()
			return nil
		})
		s.loopers.Close(hctx)
	}

	if err := m.cfg.Loader.InitializeAsync(hctx); err != nil {
		discard()
		return nil, fmt.Errorf("failed to initialize bundle loader: %w", err)
	}

	err = s.loopers.Script.RunSync(hctx, func(sctx context.Context) error {
		br, err := bridge.New(sctx, bridge.Config{
			Loopers:       s.loopers,
			Runtime:       rt,
			Capabilities:  caps,
			ScriptModules: s.scriptModules,
			OnException:   s.handleException,
			Logger:        m.logger,
		})
		if err != nil {
			return err
		}
		s.bridge = br
		return br.LoadBundle(sctx, m.cfg.Loader)
	})
	if err != nil {
		discard()
		return nil, err
	}

	if err := s.Initialize(hctx); err != nil {
		_ = s.Dispose(hctx)
		return nil, err
	}
	m.logger.Info("session created", "bundle", m.cfg.Loader.SourceName(),
		"capability_modules", caps.Len(), "script_modules", s.scriptModules.Len())
	return s, nil
}

// RegisterViewSurface attaches a view token and starts the script
// application for it: the core calls the script-side application
// registry's run-application entry point with the assigned root tag as
// initial arguments. Attaching an already attached token returns its
// existing root tag without starting the application again.
func (m *Manager) RegisterViewSurface(ctx context.Context, token ViewToken) (int, error) {
	var tag int
	err := m.host.RunSync(ctx, func(hctx context.Context) error {
		if m.current == nil || m.current.Disposed() {
			return derrors.NewMisuse("manager.RegisterViewSurface", "no current session")
		}
		if existing, ok := m.views[token]; ok {
			tag = existing
			return nil
		}
		registry, ok := scriptmodule.Proxy[corepkg.AppRegistry](m.current.ScriptModules())
		if !ok {
			return derrors.NewConfigError("manager.RegisterViewSurface",
				"core application registry module is missing")
		}
		tag = m.nextRootTag
		m.nextRootTag++
		m.views[token] = tag
		registry.RunApplication(m.cfg.AppKey, map[string]any{"rootTag": tag})
		return nil
	})
	return tag, err
}

// UnregisterViewSurface detaches a view token, invoking the application
// registry's unmount entry point for its root tag. Detaching a token that
// is not attached is a no-op; repeated calls remove it exactly once.
func (m *Manager) UnregisterViewSurface(ctx context.Context, token ViewToken) error {
	return m.host.RunSync(ctx, func(hctx context.Context) error {
		tag, ok := m.views[token]
		if !ok {
			return nil
		}
		delete(m.views, token)
		if m.current == nil || m.current.Disposed() {
			return nil
		}
		if registry, ok := scriptmodule.Proxy[corepkg.AppRegistry](m.current.ScriptModules()); ok {
			registry.Unmount(tag)
		}
		return nil
	})
}

// AttachedViews returns the number of currently attached view tokens.
func (m *Manager) AttachedViews(ctx context.Context) int {
	n := 0
	_ = m.host.RunSync(ctx, func(context.Context) error {
		n = len(m.views)
		return nil
	})
	return n
}

// OnBackPressed forwards a hardware back-button press to the script side
// through the core event emitter module. The script application either
// handles it or calls the back-button capability module to invoke the
// default action.
func (m *Manager) OnBackPressed(ctx context.Context) error {
	return m.host.RunSync(ctx, func(hctx context.Context) error {
		if m.current == nil || m.current.Disposed() {
			return derrors.NewMisuse("manager.OnBackPressed", "no current session")
		}
		emitter, ok := scriptmodule.Proxy[corepkg.EventEmitter](m.current.ScriptModules())
		if !ok {
			return derrors.NewConfigError("manager.OnBackPressed", "core event emitter module is missing")
		}
		emitter.Emit(corepkg.BackPressedEvent, nil)
		return nil
	})
}

// Close disposes the current session, if any, and stops the Host context.
func (m *Manager) Close(ctx context.Context) error {
	err := m.host.RunSync(ctx, func(hctx context.Context) error {
		if m.current != nil {
			return m.current.Dispose(hctx)
		}
		return nil
	})
	m.host.Close(ctx)
	return err
}
