package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

func TestKey_OrderIndependent(t *testing.T) {
	a := Key("m1", domain.PeriodDaily, []metrics.MetricType{metrics.MetricRevenue, metrics.MetricCashback})
	b := Key("m1", domain.PeriodDaily, []metrics.MetricType{metrics.MetricCashback, metrics.MetricRevenue})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "briefing:m1:daily:"))
	assert.NotEqual(t, a, Key("m1", domain.PeriodWeekly, []metrics.MetricType{metrics.MetricRevenue}))
}

func TestBriefingCache_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewBriefingCache(client, time.Minute)

	mock.ExpectGet("k").RedisNil()
	_, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBriefingCache_GetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewBriefingCache(client, time.Minute)

	want := domain.ExecutiveBriefing{MerchantID: "m1", Period: domain.PeriodDaily, PerformanceScore: 61.5, Summary: "ok"}
	data, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet("k").SetVal(string(data))

	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, want.MerchantID, got.MerchantID)
	assert.Equal(t, want.PerformanceScore, got.PerformanceScore)
	assert.Equal(t, want.Summary, got.Summary)
}

func TestBriefingCache_GetError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewBriefingCache(client, time.Minute)

	mock.ExpectGet("k").SetErr(errors.New("timeout"))
	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
}

func TestBriefingCache_Set(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewBriefingCache(client, 2*time.Minute)

	b := domain.ExecutiveBriefing{MerchantID: "m1", Period: domain.PeriodWeekly}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	mock.ExpectSet("k", data, 2*time.Minute).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "k", b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBriefingCache_Invalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewBriefingCache(client, time.Minute)

	mock.ExpectDel(
		Key("m1", domain.PeriodDaily, metrics.AllMetrics()),
		Key("m1", domain.PeriodWeekly, metrics.AllMetrics()),
	).SetVal(2)

	require.NoError(t, c.Invalidate(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
