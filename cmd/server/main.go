package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/flavorhub/internal/config"
	httpserver "github.com/Clark-Hu/flavorhub/internal/http"
	"github.com/Clark-Hu/flavorhub/internal/logging"
	"github.com/Clark-Hu/flavorhub/internal/repository"
	"github.com/Clark-Hu/flavorhub/internal/repository/memory"
	"github.com/Clark-Hu/flavorhub/internal/seed"
	"github.com/Clark-Hu/flavorhub/internal/service"
	"github.com/Clark-Hu/flavorhub/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.Init(logging.Config{})
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.Init(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  os.Stdout,
		Service: "flavorhub",
	})

	loc, err := cfg.DailyPickLocation()
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve daily pick timezone")
	}

	var (
		recipes service.RecipeBackend
		ratings service.RatingBackend
		health  httpserver.HealthChecker
	)

	switch cfg.StorageBackend {
	case config.BackendMemory:
		repo := memory.New()
		recipes, ratings = repo.Recipes, repo.Ratings
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
	default:
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer st.Close()

		repo := repository.New(st)
		recipes, ratings, health = repo.Recipes, repo.Ratings, st
		go st.ReportStats(ctx, 15*time.Second)
	}

	svc := service.New(recipes, ratings, service.Options{
		Location:          loc,
		EnrichConcurrency: cfg.EnrichConcurrency,
	})

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, svc, logger); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("seed catalog")
		}
	}

	server := httpserver.New(cfg, svc, health, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	logger.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*store.Store, error) {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.DBAutoMigrate {
		if err := st.Migrate(dbCtx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func applySeed(ctx context.Context, path string, svc *service.Service, logger zerolog.Logger) error {
	fixtures, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, svc.Catalog, svc.Ratings, fixtures)
	if err != nil {
		return err
	}
	if res.Skipped {
		logger.Info().Msg("catalog not empty, seed skipped")
		return nil
	}
	logger.Info().Int("recipes", res.Recipes).Int("ratings", res.Ratings).Msg("catalog seeded")
	return nil
}
