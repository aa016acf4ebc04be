package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"smc-signal-engine/config"
	"smc-signal-engine/internal/advisory"
	"smc-signal-engine/internal/api"
	"smc-signal-engine/internal/engine"
	"smc-signal-engine/internal/outcomes"
	"smc-signal-engine/internal/store"
)

func main() {
	configPath := flag.String("config", "config.json", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := buildLogger(cfg.Logging)

	// Optional trained model artifact; absence degrades the advisory step
	// to a no-op
	var model advisory.Model
	if cfg.ML.ModelPath != "" {
		m, err := advisory.LoadModel(cfg.ML.ModelPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.ML.ModelPath).Msg("model artifact unavailable, advisory disabled")
		} else {
			model = m
			logger.Info().Str("version", m.ModelVersion).Msg("model artifact loaded")
		}
	}

	// Optional Postgres persistence for signals and outcomes
	var repo *outcomes.Repository
	var recorder outcomes.Recorder = outcomes.NewMemoryRecorder()
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		repo = outcomes.NewRepository(pool)
		migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := repo.Migrate(migCtx); err != nil {
			migCancel()
			logger.Fatal().Err(err).Msg("failed to migrate database schema")
		}
		migCancel()
		recorder = repo
		logger.Info().Msg("database connected")
	}

	// Optional Redis store for cross-instance cooldown state
	var signals *store.SignalStore
	if cfg.Redis.Enabled {
		s, err := store.NewSignalStore(cfg.Redis, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis signal store unavailable")
		} else {
			signals = s
			defer signals.Close()
		}
	}

	eng := engine.New(cfg.Engine, model, recorder, logger)

	server := api.NewServer(eng, repo, signals, logger)
	go func() {
		if err := server.Start(cfg.Server.Host, cfg.Server.Port); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}

func buildLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
