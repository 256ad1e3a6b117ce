package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claim-prediction-api/config"
	"claim-prediction-api/handlers"
	"claim-prediction-api/inference"
	"claim-prediction-api/logging"
	"claim-prediction-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Artifacts are loaded once; any failure stops startup.
	paths := cfg.Artifacts.Paths()
	artifacts, err := inference.Load(paths)
	if err != nil {
		logger.Fatal("failed to load artifacts", zap.Error(err))
	}
	logger.Info("artifacts loaded",
		zap.String("preprocess", paths.Preprocess),
		zap.String("model", paths.Model),
		zap.String("threshold_path", paths.Threshold),
		zap.Float64("threshold", artifacts.Threshold()),
		zap.Int("features", artifacts.Model().NumFeatures()),
	)

	cache := newCache(cfg, logger)
	if cache != nil {
		defer cache.Close()
	}

	scorer := services.NewScorer(artifacts, cache, logger)

	if os.Getenv(gin.EnvGinMode) == "" && cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.SetupRouter(cfg.CORS, scorer, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCache picks redis when configured, else the in-process LRU, else none.
func newCache(cfg *config.Config, logger *zap.Logger) services.ScoreCache {
	switch {
	case cfg.Redis.URL != "":
		svc, err := services.NewCacheService(cfg.Redis.URL, cfg.Cache.TTL(), logger)
		if err != nil {
			logger.Warn("redis unavailable, scoring without cache", zap.Error(err))
		}
		return svc
	case cfg.Cache.Size > 0:
		logger.Info("using in-memory score cache", zap.Int("size", cfg.Cache.Size), zap.Duration("ttl", cfg.Cache.TTL()))
		return services.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL())
	default:
		return nil
	}
}
