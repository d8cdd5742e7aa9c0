package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"kaching-analytics/internal/application/insights"
	"kaching-analytics/internal/domain/metrics"
	"kaching-analytics/internal/infrastructure/config"
)

// ErrUnavailable 表示斷路器開啟，指標來源暫停呼叫。
var ErrUnavailable = errors.New("metric provider unavailable")

// BreakerProvider 以斷路器包裝 MetricHistoryProvider，連續失敗達門檻後短路。
type BreakerProvider struct {
	next    insights.MetricHistoryProvider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider 建立帶斷路器的指標來源。
func NewBreakerProvider(name string, next insights.MetricHistoryProvider, cfg config.BreakerConfig, logger zerolog.Logger) *BreakerProvider {
	failures := cfg.MaxFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("metric provider breaker state changed")
		},
		// 呼叫端取消不算來源故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerProvider{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// GetMetricHistory 經由斷路器呼叫下游；開啟狀態回傳 ErrUnavailable。
func (p *BreakerProvider) GetMetricHistory(ctx context.Context, merchantID string, metric metrics.MetricType, days int) ([]metrics.MetricSample, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.next.GetMetricHistory(ctx, merchantID, metric, days)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	samples, _ := out.([]metrics.MetricSample)
	return samples, nil
}

// State 回傳斷路器目前狀態名稱，供健康檢查使用。
func (p *BreakerProvider) State() string {
	return p.breaker.State().String()
}
