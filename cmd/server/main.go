package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/clock"
	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/database"
	"github.com/law-cbt/cbt-backend/internal/handler"
	"github.com/law-cbt/cbt-backend/internal/logger"
	"github.com/law-cbt/cbt-backend/internal/repository"
	"github.com/law-cbt/cbt-backend/internal/router"
	"github.com/law-cbt/cbt-backend/internal/service"
	"github.com/law-cbt/cbt-backend/internal/validator"
	"github.com/law-cbt/cbt-backend/internal/websocket"
	"github.com/law-cbt/cbt-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting CBT Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open SQLite Store ─────────────────────────────────────────────
	db, err := database.NewSQLite(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open SQLite store")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	stateRepo := repository.NewStateRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	blobRepo := repository.NewBlobRepository(cfg.DataDir, log)

	// ─── Initialize Services ──────────────────────────────────────────
	hub := websocket.NewHub(log)
	clk := clock.SystemClock{}

	exportService := service.NewExportService(cfg, log)
	sessionService := service.NewSessionService(stateRepo, blobRepo, exportService, clk, hub, cfg, log)
	lawService := service.NewLawService(cfg, stateRepo, log)
	noteService := service.NewNoteService(noteRepo, lawService, sessionService, clk, log)
	layoutService := service.NewLayoutService(sessionService)

	// ─── Restore Persisted Session ────────────────────────────────────
	// Nothing may write to the store before this snapshot is applied.
	if err := sessionService.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore session state")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session:  handler.NewSessionHandler(sessionService),
		Question: handler.NewQuestionHandler(sessionService, cfg),
		Note:     handler.NewNoteHandler(noteService),
		Law:      handler.NewLawHandler(lawService),
		Layout:   handler.NewLayoutHandler(layoutService),
		System:   handler.NewSystemHandler(log),
		WS:       handler.NewWSHandler(hub, sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	countdownWorker := worker.NewCountdownWorker(sessionService, log)
	go countdownWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the countdown worker. The last tick has already been
	// persisted, so recovery on next start picks up where we left off.
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
