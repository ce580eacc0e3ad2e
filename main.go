package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/ngenohkevin/tagdeck/config"
	"github.com/ngenohkevin/tagdeck/internal/app"
	"github.com/ngenohkevin/tagdeck/internal/location"
	"github.com/ngenohkevin/tagdeck/internal/logging"
	"github.com/ngenohkevin/tagdeck/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logging.Sync() }()

	color.New(color.FgCyan, color.Bold).Printf("tagdeck %s\n", server.Version)

	// Check if in setup mode
	if cfg.SetupMode {
		color.Yellow("No API key configured - starting in SETUP MODE")
		color.Yellow("POST http://%s/setup/generate and /setup/save to configure tagdeck", cfg.Addr())
		color.Yellow("After setup, restart tagdeck to enable authentication")
	}

	if err := run(cfg); err != nil {
		logging.Error("server error", logging.Err(err))
		_ = logging.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	seed, err := location.LoadFile(cfg.LocationsFile)
	if err != nil {
		logging.Warn("failed to read locations file",
			logging.String("file", cfg.LocationsFile), logging.Err(err))
	}
	if len(seed) == 0 {
		seed = location.DefaultLocations()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	defer a.Close()
	a.Start(ctx, seed)

	return server.New(cfg, a.ServerDeps()).Run(ctx)
}
