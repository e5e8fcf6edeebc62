package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brainphreak/GPKdex-discord-bot/internal/catalog"
	"github.com/brainphreak/GPKdex-discord-bot/internal/config"
	"github.com/brainphreak/GPKdex-discord-bot/internal/crafting"
	"github.com/brainphreak/GPKdex-discord-bot/internal/database"
	"github.com/brainphreak/GPKdex-discord-bot/internal/database/postgres"
	"github.com/brainphreak/GPKdex-discord-bot/internal/event"
	"github.com/brainphreak/GPKdex-discord-bot/internal/eventlog"
	"github.com/brainphreak/GPKdex-discord-bot/internal/ledger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/leveling"
	"github.com/brainphreak/GPKdex-discord-bot/internal/metrics"
	"github.com/brainphreak/GPKdex-discord-bot/internal/pack"
	"github.com/brainphreak/GPKdex-discord-bot/internal/puzzle"
	"github.com/brainphreak/GPKdex-discord-bot/internal/reward"
	"github.com/brainphreak/GPKdex-discord-bot/internal/server"
	"github.com/brainphreak/GPKdex-discord-bot/internal/spawn"
	"github.com/brainphreak/GPKdex-discord-bot/internal/trade"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, cfg.GetDBConnString()); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxIdleTime, cfg.DBMaxLifetime)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewRepository(pool)

	// Sync the card catalog before anything draws from it.
	catalogService := catalog.NewService(repo)
	seriesCfg, err := catalog.LoadConfig(cfg.SeriesConfigPath)
	if err != nil {
		slog.Error("Series config load failed", "error", err, "path", cfg.SeriesConfigPath)
		os.Exit(1)
	}
	if err := catalogService.Sync(ctx, seriesCfg); err != nil {
		slog.Error("Catalog sync failed", "error", err)
		os.Exit(1)
	}

	bus := event.NewMemoryBus()
	metrics.NewEventMetricsCollector().Register(bus)
	eventlog.NewService(repo).Subscribe(bus)
	levelingService := leveling.NewService(bus)

	svcs := server.Services{
		Catalog:  catalogService,
		Ledger:   ledger.NewService(repo),
		Reward:   reward.NewService(repo, catalogService, levelingService, bus),
		Spawn:    spawn.NewService(repo, catalogService, levelingService, bus),
		Trade:    trade.NewService(repo, bus),
		Crafting: crafting.NewService(repo, levelingService, bus),
		Pack:     pack.NewService(repo, catalogService, levelingService, bus),
		Puzzle:   puzzle.NewService(repo, catalogService, levelingService, bus),
	}

	srv := server.NewServer(cfg.Port, cfg.APIKey, nil, pool, svcs)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server forced shutdown", "error", err)
	}
	slog.Info("Server stopped")
}
