package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/attendance"
	"github.com/nsit-tools/attendance-dashboard/internal/client"
	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/database"
	"github.com/nsit-tools/attendance-dashboard/internal/handler"
	"github.com/nsit-tools/attendance-dashboard/internal/logger"
	"github.com/nsit-tools/attendance-dashboard/internal/router"
	"github.com/nsit-tools/attendance-dashboard/internal/service"
	"github.com/nsit-tools/attendance-dashboard/internal/validator"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("backend", cfg.BackendURL).
		Str("store", cfg.StoreDriver).
		Bool("recompute_percent", cfg.RecomputePercent).
		Msg("Starting Attendance Dashboard")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Visitor Store ────────────────────────────────────────────
	st, closeStore, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open visitor store")
	}
	defer closeStore()

	// ─── Backend Client ────────────────────────────────────────────────
	backend := client.New(cfg.BackendURL,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(log),
	)

	// ─── Initialize Services ──────────────────────────────────────────
	opts := attendance.Options{RecomputePercent: cfg.RecomputePercent}
	ctrl := view.NewController(backend, opts, log)
	visitorService := service.NewVisitorService(cfg, st, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Attendance: handler.NewAttendanceHandler(ctrl, visitorService, log),
		System:     handler.NewSystemHandler(backend, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, visitorService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stops the memory store sweeper and the rate limiter cleanup.
	cancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
