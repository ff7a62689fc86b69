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

	"github.com/spf13/pflag"

	"taskapi/internal/auth"
	"taskapi/internal/config"
	"taskapi/internal/server"
	"taskapi/internal/storage"
	"taskapi/internal/storage/postgres"
	"taskapi/internal/storage/sqlite"
)

func main() {
	flags := pflag.NewFlagSet("taskapi", pflag.ExitOnError)
	config.Flags(flags)
	sqlitePath := flags.String("sqlite", "", "Use a local SQLite file instead of DATABASE_URL (development only)")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	logger.Info("Todo API", slog.String("version", server.Version))

	verifier, err := auth.NewVerifier(cfg.AuthSecret, cfg.JWTAlgorithm)
	if err != nil {
		logger.Error("unable to configure token verification", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := openStore(cfg, *sqlitePath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("unable to create database tables", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("database tables created/verified")

	srv := server.New(store, verifier, logger, server.Options{
		CORSOrigins: cfg.CORSOrigins,
		Debug:       cfg.Debug,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func openStore(cfg *config.Config, sqlitePath string, logger *slog.Logger) (*storage.Store, error) {
	if sqlitePath != "" {
		logger.Warn("using local sqlite database", slog.String("path", sqlitePath))
		return sqlite.Open(sqlitePath, logger)
	}
	return postgres.Open(context.Background(), cfg.PostgresDSN(), postgres.DefaultOptions(), logger)
}
