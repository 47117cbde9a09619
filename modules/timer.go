package modules

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// TimerModule exposes delayed callbacks to script. Pending timers are
// stopped when the session disposes so no callback fires into a torn-down
// bridge.
type TimerModule struct {
	logger *slog.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewTimerModule creates the timer module.
func NewTimerModule(logger *slog.Logger) *TimerModule {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimerModule{logger: logger, timers: make(map[*time.Timer]struct{})}
}

func (m *TimerModule) Name() string { return "Timer" }

// SetTimeout schedules cb after delayMs milliseconds.
func (m *TimerModule) SetTimeout(delayMs float64, cb ports.Callback) {
	if cb == nil {
		m.logger.Debug("dropping timer without callback")
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		m.logger.Debug("dropping timer on disposed session")
		return
	}
	var t *time.Timer
	t = time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		m.mu.Lock()
		delete(m.timers, t)
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return
		}
		cb()
	})
	m.timers[t] = struct{}{}
}

// OnSessionDispose stops all pending timers.
func (m *TimerModule) OnSessionDispose(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for t := range m.timers {
		t.Stop()
	}
	m.timers = make(map[*time.Timer]struct{})
}

// Pkg contributes the built-in Net and Timer modules.
type Pkg struct {
	logger *slog.Logger
	netOps []NetOption
}

// NewPackage creates the built-in modules package.
func NewPackage(logger *slog.Logger, netOps ...NetOption) *Pkg {
	return &Pkg{logger: logger, netOps: netOps}
}

func (p *Pkg) Name() string { return "builtin-modules" }

func (p *Pkg) CreateCapabilityModules(_ context.Context) []ports.Module {
	return []ports.Module{
		NewNetModule(p.logger, p.netOps...),
		NewTimerModule(p.logger),
	}
}

func (p *Pkg) CreateScriptModuleDescriptors() []any { return nil }

func (p *Pkg) CreateViewFactories(_ context.Context) []ports.ViewFactory { return nil }
