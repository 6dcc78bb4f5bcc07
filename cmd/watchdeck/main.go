package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/database"
	"github.com/watchdeck/watchdeck/internal/events"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/modulemanager"
	"github.com/watchdeck/watchdeck/internal/modules/catalogmodule"
	"github.com/watchdeck/watchdeck/internal/modules/trackingmodule"
	"github.com/watchdeck/watchdeck/internal/modules/watchlistmodule"
	"github.com/watchdeck/watchdeck/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env")
	}

	if err := config.Load(*configPath); err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	cfg := config.Get()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		os.Exit(1)
	}

	bus := events.NewEventBus()
	bus.SubscribeAll(func(e events.Event) {
		logger.Debug("event", []logger.Field{
			logger.String("type", string(e.Type)),
			logger.String("source", e.Source),
		})
	})

	// Registration order is initialization order: the catalog must be up
	// before the modules that resolve shows through it.
	catalog := catalogmodule.Register(bus)
	watchlistmodule.Register(bus, catalog, catalog)
	trackingmodule.Register(catalog, catalog)

	if err := modulemanager.LoadAll(db); err != nil {
		logger.Error("Failed to load modules: %v", err)
		os.Exit(1)
	}

	srv := server.New(cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("Received signal %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
