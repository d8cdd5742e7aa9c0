package httpapi

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kaching-analytics/internal/domain/metrics"
)

type sampleRequest struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// handleUpsertMetric 寫入單一指標的每日樣本；value 為 null 的日期略過。
func (s *Server) handleUpsertMetric(c *gin.Context) {
	merchantID := strings.TrimSpace(c.Param("merchantId"))
	metric, err := metrics.ParseMetricType(c.Param("metric"))
	if err != nil {
		respondError(c, http.StatusBadRequest, errCodeInvalidMetric, err.Error())
		return
	}

	var body []sampleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	samples := make([]metrics.MetricSample, 0, len(body))
	for _, r := range body {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			respondError(c, http.StatusBadRequest, errCodeBadRequest, "invalid date: "+r.Date)
			return
		}
		if r.Value == nil {
			continue
		}
		samples = append(samples, metrics.MetricSample{Date: d, Value: *r.Value})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })

	series := metrics.MetricSeries{MerchantID: merchantID, Metric: metric, Samples: samples}
	if err := series.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := s.store.UpsertSamples(ctx, merchantID, metric, samples); err != nil {
		s.logger.Error().Err(err).Str("merchant_id", merchantID).Str("metric", string(metric)).Msg("upsert samples failed")
		respondError(c, http.StatusInternalServerError, errCodeInternal, "failed to store samples")
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, merchantID); err != nil {
			s.logger.Warn().Err(err).Str("merchant_id", merchantID).Msg("briefing cache invalidation failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"merchantId": merchantID,
		"metric":     metric,
		"stored":     len(samples),
	})
}
