package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openvenue/settlement/api/routes"
	"github.com/openvenue/settlement/internal/bank"
	"github.com/openvenue/settlement/internal/engine"
	"github.com/openvenue/settlement/pkg/config"
	"github.com/openvenue/settlement/pkg/db"
	"github.com/openvenue/settlement/pkg/journal"
	"github.com/openvenue/settlement/pkg/logger"
	"github.com/openvenue/settlement/pkg/metrics"
	"github.com/openvenue/settlement/pkg/migrate"
	"github.com/openvenue/settlement/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	gateway, err := bank.NewAccountsGateway(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create funds gateway", err)
		os.Exit(1)
	}

	jrnl := journal.NewService(dbClient, journal.NewRepository(dbClient.DB()), logg)

	state, err := engine.NewState(cfg.Protocol)
	if err != nil {
		logg.Error(context.Background(), "failed to build engine state", err)
		os.Exit(1)
	}
	eng, err := engine.New(state, cfg.Protocol, gateway, jrnl, settlementMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create engine", err)
		os.Exit(1)
	}

	snapshots := engine.NewSnapshotRepository(dbClient)
	if err := eng.Restore(context.Background(), snapshots); err != nil {
		logg.Error(context.Background(), "failed to restore engine snapshot", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go eng.RunSnapshots(runCtx, snapshots, cfg.Protocol.SnapshotInterval)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting settlement api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, eng, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := eng.Snapshot(shutdownCtx, snapshots); err != nil {
			logg.Error(ctx, "final engine snapshot failed", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
