package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NikiShestakov/tg/internal/bus"
	"github.com/NikiShestakov/tg/internal/channels"
	"github.com/NikiShestakov/tg/internal/channels/telegram"
	"github.com/NikiShestakov/tg/internal/config"
	"github.com/NikiShestakov/tg/internal/extract"
	adminhttp "github.com/NikiShestakov/tg/internal/http"
	"github.com/NikiShestakov/tg/internal/intake"
	"github.com/NikiShestakov/tg/internal/store/pg"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the intake bot and admin API",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	// Load config
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Postgres profile store
	db, err := pg.OpenDB(cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	profiles := pg.NewPGProfileStore(db)

	// Core components
	msgBus := bus.New()

	tg, err := telegram.New(cfg.Telegram, msgBus)
	if err != nil {
		slog.Error("failed to initialize telegram channel", "error", err)
		os.Exit(1)
	}

	extractor := extract.NewGemini(cfg.Gemini)

	// The telegram channel doubles as the media resolver; the bus carries
	// status notices back to it.
	engine := intake.NewEngine(cfg.Intake, msgBus, tg, extractor, profiles, msgBus)

	// Admin REST API
	mux := http.NewServeMux()
	adminhttp.NewProfilesHandler(profiles, cfg.Admin.Token).RegisterRoutes(mux)
	adminSrv := &http.Server{
		Addr:    cfg.Admin.Addr(),
		Handler: mux,
	}

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	activeChannels := []channels.Channel{tg}
	for _, ch := range activeChannels {
		if err := ch.Start(ctx); err != nil {
			slog.Error("failed to start channel", "channel", ch.Name(), "error", err)
			os.Exit(1)
		}
	}

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Run(ctx)
	}()

	go func() {
		slog.Info("admin API listening", "addr", adminSrv.Addr, "auth", cfg.Admin.Token != "")
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin API error", "error", err)
		}
	}()

	slog.Info("tg starting",
		"version", Version,
		"debounce", cfg.Intake.Debounce(),
		"model", cfg.Gemini.Model,
	)

	sig := <-sigCh
	slog.Info("graceful shutdown initiated", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, ch := range activeChannels {
		if err := ch.Stop(shutdownCtx); err != nil {
			slog.Warn("channel stop failed", "channel", ch.Name(), "error", err)
		}
	}
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("admin API shutdown failed", "error", err)
	}

	cancel()
	select {
	case <-engineDone:
	case <-shutdownCtx.Done():
		slog.Warn("intake engine did not stop within timeout")
	}

	slog.Info("shutdown complete")
}
