package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

type fakeHistory struct {
	series map[metrics.MetricType][]metrics.MetricSample
	err    error
	days   map[metrics.MetricType]int
}

func (f *fakeHistory) GetMetricHistory(_ context.Context, merchantID string, metric metrics.MetricType, days int) ([]metrics.MetricSample, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.days == nil {
		f.days = make(map[metrics.MetricType]int)
	}
	f.days[metric] = days
	return f.series[metric], nil
}

func newTestService(h *fakeHistory) *Service {
	svc := NewService(h, Config{}, zerolog.Nop())
	svc.detector.now = fixedClock
	svc.detector.newID = seqID()
	svc.recommender.now = fixedClock
	svc.recommender.newID = seqID()
	svc.composer.now = fixedClock
	svc.composer.newID = seqID()
	return svc
}

func TestService_DetectAnomalies(t *testing.T) {
	h := &fakeHistory{series: map[metrics.MetricType][]metrics.MetricSample{
		metrics.MetricTransactions: daily(concat(repeat(100, 27), repeat(55, 3))...),
		metrics.MetricRevenue:      daily(repeat(10000, 30)...),
	}}
	svc := newTestService(h)

	got, err := svc.DetectAnomalies(context.Background(), "m1")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 30, h.days[metrics.MetricTransactions])
	assert.Len(t, h.days, len(metrics.AllMetrics()))

	// 客單價由營收 / 交易數推導，交易驟降使客單價上升。
	var sawAvg bool
	for _, a := range got {
		assert.Equal(t, "m1", a.MerchantID)
		if a.Metric == metrics.MetricAvgTransaction && a.Type == domain.AnomalySpike {
			sawAvg = true
		}
	}
	assert.True(t, sawAvg, "derived average transaction should spike: %+v", got)
}

func TestService_GenerateRecommendations(t *testing.T) {
	h := &fakeHistory{series: map[metrics.MetricType][]metrics.MetricSample{
		metrics.MetricCustomers:    daily(concat(repeat(100, 23), repeat(88, 7))...),
		metrics.MetricTransactions: daily(repeat(100, 30)...),
		metrics.MetricRevenue:      daily(repeat(10000, 30)...),
		metrics.MetricCashback:     daily(repeat(200, 30)...),
	}}
	svc := newTestService(h)

	got, err := svc.GenerateRecommendations(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RecommendationRetention, got[0].Type)
	assert.Equal(t, 60, h.days[metrics.MetricRevenue])
	_, askedAvg := h.days[metrics.MetricAvgTransaction]
	assert.False(t, askedAvg)
}

func TestService_ComposeBriefing(t *testing.T) {
	h := &fakeHistory{series: growthSeries()}
	svc := newTestService(h)

	b, err := svc.ComposeBriefing(context.Background(), "m1", domain.PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, "m1", b.MerchantID)
	assert.Equal(t, domain.PeriodWeekly, b.Period)
	assert.Equal(t, 60, h.days[metrics.MetricRevenue])

	_, err = svc.ComposeBriefing(context.Background(), "m1", domain.Period("yearly"))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestService_Errors(t *testing.T) {
	boom := errors.New("warehouse unavailable")
	svc := newTestService(&fakeHistory{err: boom})
	ctx := context.Background()

	_, err := svc.DetectAnomalies(ctx, "m1")
	assert.ErrorIs(t, err, boom)
	_, err = svc.GenerateRecommendations(ctx, "m1")
	assert.ErrorIs(t, err, boom)
	_, err = svc.ComposeBriefing(ctx, "m1", domain.PeriodDaily)
	assert.ErrorIs(t, err, boom)

	_, err = newTestService(&fakeHistory{}).DetectAnomalies(ctx, "")
	assert.ErrorIs(t, err, ErrMerchantRequired)
}

func TestService_EmptyHistory(t *testing.T) {
	svc := newTestService(&fakeHistory{})
	ctx := context.Background()

	anomalies, err := svc.DetectAnomalies(ctx, "m1")
	require.NoError(t, err)
	assert.NotNil(t, anomalies)
	assert.Empty(t, anomalies)

	recs, err := svc.GenerateRecommendations(ctx, "m1")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	b, err := svc.ComposeBriefing(ctx, "m1", domain.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 50.0, b.PerformanceScore)
}

func TestService_Deterministic(t *testing.T) {
	series := map[metrics.MetricType][]metrics.MetricSample{
		metrics.MetricTransactions: daily(concat(repeat(100, 23), repeat(88, 7))...),
		metrics.MetricRevenue:      daily(concat(repeat(10000, 23), repeat(8000, 7))...),
		metrics.MetricCustomers:    daily(repeat(80, 30)...),
		metrics.MetricCashback:     daily(repeat(300, 30)...),
	}
	first := NewService(&fakeHistory{series: series}, DefaultConfig(), zerolog.Nop())
	second := NewService(&fakeHistory{series: series}, DefaultConfig(), zerolog.Nop())
	ctx := context.Background()

	a1, err := first.DetectAnomalies(ctx, "m1")
	require.NoError(t, err)
	a2, err := second.DetectAnomalies(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, stripAnomalies(a1), stripAnomalies(a2))

	b1, err := first.ComposeBriefing(ctx, "m1", domain.PeriodWeekly)
	require.NoError(t, err)
	b2, err := second.ComposeBriefing(ctx, "m1", domain.PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, b1.Summary, b2.Summary)
	assert.Equal(t, b1.Metrics, b2.Metrics)
	assert.Equal(t, b1.Highlights, b2.Highlights)
	assert.Equal(t, b1.Alerts, b2.Alerts)
	assert.Equal(t, b1.PerformanceScore, b2.PerformanceScore)
}

func stripAnomalies(in []domain.Anomaly) []domain.Anomaly {
	out := make([]domain.Anomaly, len(in))
	for i, a := range in {
		a.ID = ""
		a.DetectedAt = time.Time{}
		out[i] = a
	}
	return out
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Anomaly: AnomalyConfig{SpikeThreshold: 55}}.WithDefaults()
	assert.Equal(t, 55.0, cfg.Anomaly.SpikeThreshold)
	assert.Equal(t, DefaultConfig().Anomaly.DropThreshold, cfg.Anomaly.DropThreshold)
	assert.Equal(t, DefaultConfig().Briefing, cfg.Briefing)
}
