package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/nsit-tools/attendance-dashboard/internal/attendance"
	"github.com/nsit-tools/attendance-dashboard/internal/client"
	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/logger"
	"github.com/nsit-tools/attendance-dashboard/internal/tui"
	"github.com/nsit-tools/attendance-dashboard/internal/validator"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

func main() {
	var (
		check      bool
		verbose    bool
		backendURL string
		captchaDir string
	)
	flag.BoolVar(&check, "check", false, "Ping the backend health endpoint and exit")
	flag.BoolVar(&verbose, "v", false, "Log backend calls to stderr")
	flag.StringVar(&backendURL, "backend", "", "Backend base URL (overrides BACKEND_URL)")
	flag.StringVar(&captchaDir, "captcha-dir", "", "Directory for CAPTCHA images (default: OS temp dir)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	// Quiet by default so log lines do not break up the screens.
	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}
	log := logger.SetupWriter(os.Stderr, level, "pretty")

	validator.Setup()

	backend := client.New(cfg.BackendURL,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithLogger(log),
	)

	// ─── Health Check ──────────────────────────────────────────────────
	if check {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h, err := backend.Health(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Backend %s unreachable: %v\n", backend.BaseURL(), err)
			os.Exit(1)
		}
		fmt.Printf("Backend %s: %s (%d active sessions)\n", backend.BaseURL(), h.Status, h.ActiveSessions)
		return
	}

	// ─── Terminal Setup ────────────────────────────────────────────────
	stdinFd := int(os.Stdin.Fd())
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	out := colorable.NewColorableStdout()

	var (
		mu    sync.Mutex
		saved *term.State
	)
	var secret tui.SecretReader
	if term.IsTerminal(stdinFd) {
		secret = func() (string, error) {
			st, err := term.GetState(stdinFd)
			if err == nil {
				mu.Lock()
				saved = st
				mu.Unlock()
			}
			b, err := term.ReadPassword(stdinFd)
			mu.Lock()
			saved = nil
			mu.Unlock()
			return string(b), err
		}
	}

	ctrl := view.NewController(backend, attendance.Options{RecomputePercent: cfg.RecomputePercent}, log)
	app := tui.NewApp(ctrl, tui.NewPrompter(os.Stdin, out, secret), tui.NewRenderer(out, color), captchaDir, log)

	// ─── Interrupt Handling ────────────────────────────────────────────
	// Reads on stdin do not observe ctx, so an interrupt restores the
	// terminal, removes the CAPTCHA file and exits directly.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		mu.Lock()
		if saved != nil {
			_ = term.Restore(stdinFd, saved)
		}
		mu.Unlock()
		app.Cleanup()
		fmt.Fprintln(out)
		os.Exit(130)
	}()

	fmt.Fprintf(out, "Attendance Dashboard (backend %s)\n\n", backend.BaseURL())
	if err := app.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("dashboard stopped")
		os.Exit(1)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
