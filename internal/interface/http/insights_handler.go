package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kaching-analytics/internal/application/insights"
	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
	"kaching-analytics/internal/infrastructure/cache"
	"kaching-analytics/internal/infrastructure/providers"
)

func (s *Server) handleAnomalies(c *gin.Context) {
	merchantID := strings.TrimSpace(c.Param("merchantId"))
	list, err := s.svc.DetectAnomalies(c.Request.Context(), merchantID)
	if err != nil {
		s.respondInsightsError(c, err)
		return
	}
	s.metrics.observeAnomalies(list)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"merchantId": merchantID,
		"anomalies":  list,
		"total":      len(list),
	})
}

func (s *Server) handleRecommendations(c *gin.Context) {
	merchantID := strings.TrimSpace(c.Param("merchantId"))
	list, err := s.svc.GenerateRecommendations(c.Request.Context(), merchantID)
	if err != nil {
		s.respondInsightsError(c, err)
		return
	}
	s.metrics.observeRecommendations(list)
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"merchantId":      merchantID,
		"recommendations": list,
		"total":           len(list),
	})
}

func (s *Server) handleSignals(c *gin.Context) {
	merchantID := strings.TrimSpace(c.Param("merchantId"))
	sig, err := s.svc.Signals(c.Request.Context(), merchantID)
	if err != nil {
		s.respondInsightsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"merchantId": merchantID,
		"signals":    sig,
	})
}

func (s *Server) handleBriefing(c *gin.Context) {
	merchantID := strings.TrimSpace(c.Param("merchantId"))
	period, err := domain.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, http.StatusBadRequest, errCodeInvalidPeriod, err.Error())
		return
	}
	if merchantID == "" {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, insights.ErrMerchantRequired.Error())
		return
	}

	ctx := c.Request.Context()
	key := cache.Key(merchantID, period, metrics.AllMetrics())
	if s.cache != nil {
		b, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.metrics.observeCache("hit")
			c.Header("X-Cache", "hit")
			c.JSON(http.StatusOK, gin.H{"success": true, "briefing": b})
			return
		case errors.Is(err, cache.ErrMiss):
			s.metrics.observeCache("miss")
		default:
			s.metrics.observeCache("error")
			s.logger.Warn().Err(err).Str("key", key).Msg("briefing cache read failed")
		}
		c.Header("X-Cache", "miss")
	}

	b, err := s.svc.ComposeBriefing(ctx, merchantID, period)
	if err != nil {
		s.respondInsightsError(c, err)
		return
	}
	s.metrics.observeBriefing(b)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, b); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("briefing cache write failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "briefing": b})
}

func (s *Server) respondInsightsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, insights.ErrMerchantRequired):
		respondError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
	case errors.Is(err, insights.ErrInvalidPeriod):
		respondError(c, http.StatusBadRequest, errCodeInvalidPeriod, err.Error())
	case errors.Is(err, providers.ErrUnavailable):
		respondError(c, http.StatusServiceUnavailable, errCodeUnavailable, "metric source temporarily unavailable")
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("insights request failed")
		respondError(c, http.StatusInternalServerError, errCodeInternal, "internal error")
	}
}
