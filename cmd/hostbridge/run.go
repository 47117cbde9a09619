package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hostbridge-dev/hostbridge/bundle"
	"github.com/hostbridge-dev/hostbridge/domain/ports"
	hblog "github.com/hostbridge-dev/hostbridge/log"
	"github.com/hostbridge-dev/hostbridge/modules"
	"github.com/hostbridge-dev/hostbridge/runtime/lua"
	"github.com/hostbridge-dev/hostbridge/session"
)

var runCmd = &cobra.Command{
	Use:   "run [bundle]",
	Short: "Run a script bundle",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringP("config", "c", "", "Path to a TOML host config file")
	runCmd.Flags().String("app-key", "", "Script application key to start (overrides config)")
	runCmd.Flags().String("dev-server", "", "Fetch the bundle from a development server URL")
	runCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
}

// quitHandler maps the default back action onto process shutdown.
type quitHandler struct {
	quit chan<- struct{}
}

func (h *quitHandler) InvokeDefaultBackAction() {
	select {
	case h.quit <- struct{}{}:
	default:
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadHostConfig(configPath)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("app-key"); v != "" {
		cfg.AppKey = v
	}
	if v, _ := cmd.Flags().GetString("dev-server"); v != "" {
		cfg.DevServer = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if len(args) == 1 {
		cfg.Bundle = args[0]
	}

	var loader ports.BundleLoader
	switch {
	case cfg.DevServer != "":
		loader = bundle.NewDevServerLoader(cfg.DevServer)
	case cfg.Bundle != "":
		loader = bundle.NewFileLoader(cfg.Bundle)
	default:
		return fmt.Errorf("no bundle configured: pass a bundle path or --dev-server")
	}

	logger := slog.New(hblog.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: hblog.ParseLevel(cfg.LogLevel),
	})))

	quit := make(chan struct{}, 1)
	mgr, err := session.NewManager(session.Config{
		AppKey:         cfg.AppKey,
		Packages:       []ports.Package{modules.NewPackage(logger)},
		Loader:         loader,
		RuntimeFactory: lua.Factory(logger),
		BackHandler:    &quitHandler{quit: quit},
		OnException: func(err error) {
			logger.Error("session failed", "error", err)
			select {
			case quit <- struct{}{}:
			default:
			}
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := mgr.CreateSession(ctx); err != nil {
		mgr.Close(ctx)
		return err
	}
	if _, err := mgr.RegisterViewSurface(ctx, "main"); err != nil {
		mgr.Close(ctx)
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-quit:
	}
	return mgr.Close(ctx)
}
