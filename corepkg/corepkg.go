// Package corepkg is the mandatory core package registered ahead of every
// user package. It contributes the application registry and event emitter
// script modules the manager drives UI surfaces and hardware events
// through, plus the back-button and log capability modules.
package corepkg

import (
	"context"
	"log/slog"

	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// BackPressedEvent is the event name emitted to script on a hardware
// back-button press.
const BackPressedEvent = "hardwareBackPress"

// AppRegistry declares the script-side application registry module. The
// manager calls RunApplication with {rootTag: N} when a view surface
// attaches and Unmount when it detaches.
type AppRegistry struct {
	RunApplication func(appKey string, initialProps map[string]any)
	Unmount        func(rootTag int)
}

// EventEmitter declares the script-side event emitter module used for
// host-originated events such as the hardware back button.
type EventEmitter struct {
	Emit func(name string, payload map[string]any)
}

// BackButtonModule exposes the default back action to script. The core
// delegates to the host-provided handler verbatim; it defines no behavior
// of its own.
type BackButtonModule struct {
	handler ports.BackHandler
	logger  *slog.Logger
}

func (m *BackButtonModule) Name() string { return "BackButton" }

// InvokeDefaultBackAction is called by script when the application decides
// not to handle a back press itself.
func (m *BackButtonModule) InvokeDefaultBackAction() {
	if m.handler == nil {
		m.logger.Debug("dropping default back action: no handler configured")
		return
	}
	m.handler.InvokeDefaultBackAction()
}

// LogModule routes script-side log lines into the host's structured logger.
type LogModule struct {
	logger *slog.Logger
}

func (m *LogModule) Name() string { return "Log" }

func (m *LogModule) Log(level, message string) {
	switch level {
	case "error":
		m.logger.Error(message, "origin", "bundle")
	case "warn":
		m.logger.Warn(message, "origin", "bundle")
	case "debug":
		m.logger.Debug(message, "origin", "bundle")
	default:
		m.logger.Info(message, "origin", "bundle")
	}
}

// Package assembles the core modules.
type Package struct {
	back   ports.BackHandler
	logger *slog.Logger
}

// New creates the core package. back may be nil.
func New(back ports.BackHandler, logger *slog.Logger) *Package {
	if logger == nil {
		logger = slog.Default()
	}
	return &Package{back: back, logger: logger}
}

func (p *Package) Name() string { return "core" }

func (p *Package) CreateCapabilityModules(_ context.Context) []ports.Module {
	return []ports.Module{
		&BackButtonModule{handler: p.back, logger: p.logger},
		&LogModule{logger: p.logger},
	}
}

func (p *Package) CreateScriptModuleDescriptors() []any {
	return []any{&AppRegistry{}, &EventEmitter{}}
}

func (p *Package) CreateViewFactories(_ context.Context) []ports.ViewFactory {
	return nil
}
