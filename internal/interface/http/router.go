package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"kaching-analytics/internal"
	"kaching-analytics/internal/application/insights"
	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
	"kaching-analytics/internal/infra/memory"
	"kaching-analytics/internal/infrastructure/config"
	"kaching-analytics/internal/infrastructure/persistence/postgres"
	"kaching-analytics/internal/infrastructure/providers"
)

// MetricStore 為指標讀寫來源，Postgres 與記憶體儲存皆實作。
type MetricStore interface {
	insights.MetricHistoryProvider
	UpsertSamples(ctx context.Context, merchantID string, metric metrics.MetricType, samples []metrics.MetricSample) error
}

// BriefingCache 為簡報快取；nil 表示停用。
type BriefingCache interface {
	Get(ctx context.Context, key string) (domain.ExecutiveBriefing, error)
	Set(ctx context.Context, key string, b domain.ExecutiveBriefing) error
	Invalidate(ctx context.Context, merchantID string) error
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine   *gin.Engine
	db       *sql.DB
	store    MetricStore
	breaker  *providers.BreakerProvider
	svc      *insights.Service
	cache    BriefingCache
	metrics  *apiMetrics
	registry *prometheus.Registry
	logger   zerolog.Logger
}

// NewServer 建立 API 伺服器；db 為 nil 時使用記憶體儲存，cache 為 nil 時不快取簡報。
func NewServer(cfg config.Config, db *sql.DB, cache BriefingCache, logger zerolog.Logger) *Server {
	var store MetricStore
	if db != nil {
		store = postgres.NewMetricRepo(db)
	} else {
		store = memory.NewStore()
	}
	if internal.IsNil(cache) {
		cache = nil
	}
	breaker := providers.NewBreakerProvider("metric-store", store, cfg.Breaker, logger)
	registry := prometheus.NewRegistry()

	s := &Server{
		db:       db,
		store:    store,
		breaker:  breaker,
		svc:      insights.NewService(breaker, cfg.InsightsConfig(), logger),
		cache:    cache,
		metrics:  newAPIMetrics(registry),
		registry: registry,
		logger:   logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.ginLogger(), corsMiddleware(), s.metricsMiddleware())
	if cfg.RateLimit.RPS > 0 {
		engine.Use(newRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).middleware())
	}
	s.engine = engine
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store 主要用於測試注入初始資料。
func (s *Server) Store() MetricStore {
	return s.store
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)

	merchants := api.Group("/merchants/:merchantId")
	merchants.GET("/anomalies", s.handleAnomalies)
	merchants.GET("/recommendations", s.handleRecommendations)
	merchants.GET("/signals", s.handleSignals)
	merchants.GET("/briefing", s.handleBriefing)
	merchants.PUT("/metrics/:metric", s.handleUpsertMetric)

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, errCodeNotFound, "not found")
	})
}
