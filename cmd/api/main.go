// Package main is the entry point for the fare ledger API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pkordes/fare-ledger/internal/amount"
	"github.com/pkordes/fare-ledger/internal/config"
	"github.com/pkordes/fare-ledger/internal/handler"
	"github.com/pkordes/fare-ledger/internal/middleware"
	"github.com/pkordes/fare-ledger/internal/repo"
	"github.com/pkordes/fare-ledger/internal/service"
	"github.com/pkordes/fare-ledger/internal/settings"
	"github.com/pkordes/fare-ledger/migrations"
	"github.com/pkordes/fare-ledger/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Default logger until the configured one exists.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	tag, _ := cfg.Language()
	loc, _ := cfg.Location()

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// goose needs a *sql.DB; borrow one from the pool for the migration run.
	sqlDB := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqlDB)
	_ = sqlDB.Close()
	if err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	// --- Services ---------------------------------------------------------
	stores := repo.NewStores(pool)
	tx := repo.NewTransactor(pool)

	settingsStore, err := settings.Open(ctx, stores.Settings, logger)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	gen := service.NewGeneration()
	codec := amount.NewCodec(cfg.CurrencySuffix)
	calc := service.NewProgressCalculator(codec, tag)

	srv := handler.NewServer(handler.Deps{
		Trips:    service.NewTripService(stores.Trips, gen),
		Feed:     service.NewFeedService(stores.Trips, codec, gen),
		Tickets:  service.NewTicketService(stores.Tickets, stores.Trips, tx, settingsStore, calc, gen),
		Settings: settingsStore,
		Transfer: service.NewTransferService(stores.Trips, stores.Tickets, tx, settingsStore, gen, loc, logger),
		Codec:    codec,
		OpenAPI:  spec.OpenAPI,
	})

	// --- Router -----------------------------------------------------------
	// Order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	srv.Routes(r)

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout is left at zero: the feed stream stays open until the
	// client leaves. Exports are bounded by the request context instead.
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
