package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"kaching-analytics/internal/infrastructure/cache"
	"kaching-analytics/internal/infrastructure/config"
	"kaching-analytics/internal/infrastructure/db"
	"kaching-analytics/internal/infrastructure/logging"
	httpapi "kaching-analytics/internal/interface/http"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		fallback := logging.Setup(config.LogConfig{})
		fallback.Fatal().Err(err).Msg("load config failed")
	}
	logger := logging.Setup(cfg.Log)
	logger.Info().Str("http_addr", cfg.HTTP.Addr).Msg("configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("database connection failed, falling back to in-memory store")
		pool = nil
	} else if pool == nil {
		logger.Info().Msg("no DB_DSN provided; running with in-memory store only")
	} else {
		defer pool.Close()
		logger.Info().Msg("database connected")
	}

	var briefingCache httpapi.BriefingCache
	bc, err := cache.Connect(ctx, cfg.Redis)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("redis unavailable, briefing cache disabled")
	case bc == nil:
		logger.Info().Msg("no REDIS_ADDR provided; briefing cache disabled")
	default:
		defer bc.Close()
		briefingCache = bc
	}

	gin.SetMode(gin.ReleaseMode)
	apiServer := httpapi.NewServer(cfg, pool, briefingCache, logger)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-stop
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
