package main

import (
	"context"
	"fmt"
	"os"

	"github.com/healthmap/healthmap/internal/config"
	"github.com/healthmap/healthmap/internal/devapi"
	"github.com/healthmap/healthmap/internal/logger"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	log := logger.GetLogger()

	// Create server
	srv, err := devapi.New(cfg.DevAPI, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	if cfg.DevAPI.SeedDemo {
		if err := srv.SeedDemo(); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	log.Info().Str("version", version).Msg("Starting HealthMap reference API...")

	// Start HTTP server (this blocks)
	if err := srv.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
