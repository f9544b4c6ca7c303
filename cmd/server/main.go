package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kemkem23/raceboard/internal/broadcast"
	"github.com/kemkem23/raceboard/internal/config"
	"github.com/kemkem23/raceboard/internal/domain"
	"github.com/kemkem23/raceboard/internal/logging"
	"github.com/kemkem23/raceboard/internal/server"
	"github.com/kemkem23/raceboard/internal/snapshot"
	"github.com/kemkem23/raceboard/internal/store"
	"github.com/kemkem23/raceboard/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupSnapshots(cfg *config.Config) *snapshot.Store {
	snapStore, err := snapshot.Open(filepath.Join(cfg.DataDir, "snapshots"))
	if err != nil {
		slog.Error("Failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	return snapStore
}

// loadState prefers the persisted snapshot and falls back to the seed file.
func loadState(cfg *config.Config, snapStore *snapshot.Store) domain.Snapshot {
	snap, found, err := snapStore.Load()
	if err != nil {
		slog.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	if found {
		slog.Info("Loaded persisted snapshot")
		return snap
	}

	snap, err = snapshot.LoadSeed(cfg.SeedFile)
	if err != nil {
		slog.Error("Failed to load seed data", "error", err, "seed_file", cfg.SeedFile)
		os.Exit(1)
	}
	slog.Info("No persisted snapshot found, using seed data", "seed_file", cfg.SeedFile)
	return snap
}

func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub, writer *snapshot.Writer, snapStore *snapshot.Store) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		writer.Close()
		if err := snapStore.Close(); err != nil {
			slog.Error("Failed to close snapshot store", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting raceboard", "version", version.Version, "env", cfg.AppEnv)

	snapStore := setupSnapshots(cfg)
	st := store.New(loadState(cfg, snapStore))

	clock := clockwork.NewRealClock()
	hub := broadcast.NewHub(clock)
	writer := snapshot.NewWriter(st, snapStore, clock)

	srv, err := server.NewServer(cfg, st, hub, writer)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, hub, writer, snapStore)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
