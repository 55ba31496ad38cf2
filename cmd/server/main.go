package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"market_gateway/internal/app/di"
	"market_gateway/internal/app/router"
	"market_gateway/internal/app/scheduler"
	mdhandler "market_gateway/internal/feature/marketdata/transport/handler"
	"market_gateway/internal/feature/marketdata/usecase"
	riskhandler "market_gateway/internal/feature/riskmetrics/transport/handler"
	symbolhandler "market_gateway/internal/feature/symbollist/transport/handler"
	"market_gateway/internal/platform/config"
	"market_gateway/internal/platform/logger"
	"market_gateway/internal/platform/metrics"
)

const (
	shutdownTimeout = 10 * time.Second
	warmRunTimeout  = 5 * time.Minute
)

func main() {
	cfg, err := config.Load("config.toml")
	if err != nil {
		// logger is not configured yet
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobal(log)
	log.Info().Str("addr", cfg.HTTP.Addr()).Msg("starting market gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache: an unreachable Redis is not fatal, requests go straight to the provider.
	store := di.NewCacheStore(cfg, log)
	_ = store.Connect(ctx)
	defer func() {
		if err := store.Disconnect(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}()

	rec := metrics.New()
	svc, err := di.NewService(cfg, store, di.NewProvider(cfg, log), rec, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build market data service")
	}

	risk, err := di.NewRiskUsecase(cfg, svc, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build risk metrics usecase")
	}

	deps := router.Deps{
		Market:    mdhandler.NewMarketDataHandler(svc),
		Risk:      riskhandler.NewRiskHandler(risk),
		Cache:     store,
		Metrics:   rec.Handler(),
		JWTSecret: cfg.Auth.JWTSecret,
		Log:       log,
	}
	if cfg.Redis.Host == "" {
		deps.Cache = nil
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set, market routes are public")
	}

	var source usecase.SymbolSource
	registry, err := di.NewSymbolRegistry(cfg, svc, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.DB.Driver).Msg("symbol registry unavailable, /symbols disabled")
	} else {
		deps.Symbols = symbolhandler.NewSymbolHandler(registry)
		source = registry
	}

	sched := scheduler.New(ctx, log)
	if cfg.Warm.Schedule != "" {
		job := scheduler.NewWarmJob(di.NewWarmUsecase(cfg, svc, source, log), warmRunTimeout)
		if err := sched.AddJob(cfg.Warm.Schedule, job); err != nil {
			log.Fatal().Err(err).Msg("failed to register warm job")
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}
