package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge-dev/hostbridge/bundle"
	derrors "github.com/hostbridge-dev/hostbridge/domain/errors"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
	"github.com/hostbridge-dev/hostbridge/runtime/lua"
)

func validConfig() Config {
	return Config{
		AppKey:         "demo",
		Loader:         bundle.NewSourceLoader("test.lua", []byte("print('ok')")),
		RuntimeFactory: lua.Factory(nil),
		OnException:    func(error) {},
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app key", func(c *Config) { c.AppKey = "" }},
		{"missing loader", func(c *Config) { c.Loader = nil }},
		{"missing runtime factory", func(c *Config) { c.RuntimeFactory = nil }},
		{"missing exception handler", func(c *Config) { c.OnException = nil }},
		{"nil package entry", func(c *Config) { c.Packages = []ports.Package{nil} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *derrors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestConfigOptionalFieldsMayBeEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.BackHandler = nil
	cfg.Logger = nil
	cfg.Packages = nil
	assert.NoError(t, cfg.Validate())
}
