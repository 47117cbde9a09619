package session

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

// validate is a package-level singleton; constructing a validator per call
// is expensive.
var validate = validator.New()

// Config is the explicit configuration value type a Manager is built from.
// It is validated wholly at construction: a Manager never carries a
// partially-set configuration, and no late runtime assertion can fire.
type Config struct {
	// AppKey names the script application the registry runs on RegisterViewSurface.
	AppKey string `validate:"required"`

	// Packages contribute capability modules and script-module declarations,
	// in configured order, after the mandatory core package.
	Packages []ports.Package `validate:"dive,required"`

	// Loader obtains and injects the bundle source.
	Loader ports.BundleLoader `validate:"required"`

	// RuntimeFactory creates a fresh script runtime per session. Session
	// recreation never reuses a runtime instance.
	RuntimeFactory func() (ports.ScriptRuntime, error) `validate:"required"`

	// OnException receives uncaught capability faults and protocol errors,
	// at most once per failure; afterwards the session auto-disposes.
	OnException ports.ExceptionHandler `validate:"required"`

	// BackHandler receives the default hardware back action. Optional; when
	// absent the core back-button module drops the action with a diagnostic.
	BackHandler ports.BackHandler

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Validate checks the configuration and reports the first violation as a
// ConfigError.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return derrors.WrapConfig("session config", err)
	}
	return nil
}
