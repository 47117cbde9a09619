package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// hostConfig is the TOML host configuration for the run command.
type hostConfig struct {
	AppKey    string `toml:"app_key"`
	Bundle    string `toml:"bundle"`
	DevServer string `toml:"dev_server"`
	LogLevel  string `toml:"log_level"`
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		AppKey:   "Main",
		LogLevel: "info",
	}
}

// loadHostConfig reads the TOML config file when path is non-empty and
// overlays it on the defaults.
func loadHostConfig(path string) (hostConfig, error) {
	cfg := defaultHostConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}
