// Command warm runs a single cache warm pass and exits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market_gateway/internal/app/di"
	"market_gateway/internal/feature/marketdata/usecase"
	"market_gateway/internal/platform/config"
	"market_gateway/internal/platform/logger"
	"market_gateway/internal/platform/metrics"
)

func main() {
	cfg, err := config.Load("config.toml")
	if err != nil {
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store := di.NewCacheStore(cfg, log)
	if err := store.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis is required to warm the cache")
	}
	defer store.Disconnect()

	svc, err := di.NewService(cfg, store, di.NewProvider(cfg, log), metrics.New(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build market data service")
	}

	var source usecase.SymbolSource
	if registry, err := di.NewSymbolRegistry(cfg, nil, log); err != nil {
		log.Error().Err(err).Msg("symbol registry unavailable, warming WARM_SYMBOLS only")
	} else {
		source = registry
	}

	report, err := di.NewWarmUsecase(cfg, svc, source, log).WarmAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("warm run aborted")
		os.Exit(1)
	}
	log.Info().Int("symbols", report.Symbols).Int("failed", report.Failed).Msg("warm ok")
}
