package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kaching-analytics/internal/domain/metrics"
)

type seriesKey struct {
	merchantID string
	metric     metrics.MetricType
}

// Store 為記憶體指標儲存，未設定資料庫時使用；讀寫以 RWMutex 保護。
type Store struct {
	mu     sync.RWMutex
	series map[seriesKey]map[time.Time]float64 // date -> value
	now    func() time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		series: make(map[seriesKey]map[time.Time]float64),
		now:    time.Now,
	}
}

// GetMetricHistory 取近 days 天（含今日）的有限樣本，依日期遞增。
func (s *Store) GetMetricHistory(_ context.Context, merchantID string, metric metrics.MetricType, days int) ([]metrics.MetricSample, error) {
	since := metrics.DateOnly(s.now()).AddDate(0, 0, -days)

	s.mu.RLock()
	defer s.mu.RUnlock()
	byDate := s.series[seriesKey{merchantID, metric}]
	out := make([]metrics.MetricSample, 0, len(byDate))
	for d, v := range byDate {
		sample := metrics.MetricSample{Date: d, Value: v}
		if !d.After(since) || !sample.Finite() {
			continue
		}
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// UpsertSamples 寫入或覆寫同日樣本。
func (s *Store) UpsertSamples(_ context.Context, merchantID string, metric metrics.MetricType, samples []metrics.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seriesKey{merchantID, metric}
	byDate, ok := s.series[key]
	if !ok {
		byDate = make(map[time.Time]float64, len(samples))
		s.series[key] = byDate
	}
	for _, sample := range samples {
		byDate[metrics.DateOnly(sample.Date)] = sample.Value
	}
	return nil
}

// ListMerchants 回傳有資料的商家 ID（排序後）。
func (s *Store) ListMerchants(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range s.series {
		seen[k.merchantID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
