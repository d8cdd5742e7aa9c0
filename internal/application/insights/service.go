package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

// ErrMerchantRequired 表示未提供商家 ID。
var ErrMerchantRequired = errors.New("merchant id is required")

// MetricHistoryProvider 取得商家指標的歷史序列（遞增日期，已過濾 null）。
type MetricHistoryProvider interface {
	GetMetricHistory(ctx context.Context, merchantID string, metric metrics.MetricType, days int) ([]metrics.MetricSample, error)
}

// Service 串接 MetricHistoryProvider 與各分析元件，本身不保存跨呼叫狀態。
type Service struct {
	provider    MetricHistoryProvider
	cfg         Config
	detector    *AnomalyDetector
	recommender *RecommendationEngine
	composer    *BriefingComposer
	logger      zerolog.Logger
}

// NewService 建立 insights 服務；cfg 的零值欄位以預設門檻補齊。
func NewService(provider MetricHistoryProvider, cfg Config, logger zerolog.Logger) *Service {
	cfg = cfg.WithDefaults()
	recommender := NewRecommendationEngine(cfg.Recommendation)
	return &Service{
		provider:    provider,
		cfg:         cfg,
		detector:    NewAnomalyDetector(cfg.Anomaly),
		recommender: recommender,
		composer:    NewBriefingComposer(cfg, recommender),
		logger:      logger.With().Str("component", "insights").Logger(),
	}
}

// Config 回傳生效中的門檻設定。
func (s *Service) Config() Config {
	return s.cfg
}

// DetectAnomalies 取得近 HistoryDays 天的全部指標並偵測異常。
func (s *Service) DetectAnomalies(ctx context.Context, merchantID string) ([]domain.Anomaly, error) {
	series, err := s.fetch(ctx, merchantID, metrics.AllMetrics(), s.cfg.Anomaly.HistoryDays)
	if err != nil {
		return nil, err
	}
	return s.Detect(merchantID, series), nil
}

// Detect 對已取得的序列執行異常偵測；缺少客單價序列時由營收與交易數推導。
func (s *Service) Detect(merchantID string, series map[metrics.MetricType][]metrics.MetricSample) []domain.Anomaly {
	list := make([]metrics.MetricSeries, 0, len(series))
	for _, m := range metrics.AllMetrics() {
		samples := series[m]
		if m == metrics.MetricAvgTransaction && len(samples) == 0 {
			samples = DeriveAvgTransaction(series[metrics.MetricRevenue], series[metrics.MetricTransactions])
		}
		list = append(list, metrics.MetricSeries{MerchantID: merchantID, Metric: m, Samples: samples})
	}
	out := s.detector.Detect(merchantID, list)
	if out == nil {
		out = []domain.Anomaly{}
	}
	s.logger.Debug().Str("merchant_id", merchantID).Int("anomalies", len(out)).Msg("anomaly detection finished")
	return out
}

// GenerateRecommendations 取得近 60 天營收、交易、顧客與回饋資料並產生建議。
func (s *Service) GenerateRecommendations(ctx context.Context, merchantID string) ([]domain.Recommendation, error) {
	needed := []metrics.MetricType{
		metrics.MetricRevenue,
		metrics.MetricTransactions,
		metrics.MetricCustomers,
		metrics.MetricCashback,
	}
	series, err := s.fetch(ctx, merchantID, needed, s.cfg.Recommendation.HistoryDays)
	if err != nil {
		return nil, err
	}
	return s.Recommend(merchantID, series), nil
}

// Recommend 對已取得的序列產生建議。
func (s *Service) Recommend(merchantID string, series map[metrics.MetricType][]metrics.MetricSample) []domain.Recommendation {
	out := s.recommender.Generate(RecommendationInput{
		Revenue:      series[metrics.MetricRevenue],
		Transactions: series[metrics.MetricTransactions],
		Customers:    series[metrics.MetricCustomers],
		Cashback:     series[metrics.MetricCashback],
	})
	if out == nil {
		out = []domain.Recommendation{}
	}
	s.logger.Debug().Str("merchant_id", merchantID).Int("recommendations", len(out)).Msg("recommendations generated")
	return out
}

// Signals 回傳建議規則使用的訊號，供對話助理等外部元件作為上下文。
func (s *Service) Signals(ctx context.Context, merchantID string) (Signals, error) {
	series, err := s.fetch(ctx, merchantID, []metrics.MetricType{
		metrics.MetricRevenue,
		metrics.MetricTransactions,
		metrics.MetricCustomers,
		metrics.MetricCashback,
	}, s.cfg.Recommendation.HistoryDays)
	if err != nil {
		return Signals{}, err
	}
	return s.recommender.Signals(RecommendationInput{
		Revenue:      series[metrics.MetricRevenue],
		Transactions: series[metrics.MetricTransactions],
		Customers:    series[metrics.MetricCustomers],
		Cashback:     series[metrics.MetricCashback],
	}), nil
}

// ComposeBriefing 產出 daily / weekly 簡報。
func (s *Service) ComposeBriefing(ctx context.Context, merchantID string, period domain.Period) (domain.ExecutiveBriefing, error) {
	if period.Days() == 0 {
		return domain.ExecutiveBriefing{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	series, err := s.fetch(ctx, merchantID, metrics.AllMetrics(), s.BriefingHistoryDays(period))
	if err != nil {
		return domain.ExecutiveBriefing{}, err
	}
	return s.Compose(merchantID, period, series)
}

// Compose 對已取得的序列組裝簡報。
func (s *Service) Compose(merchantID string, period domain.Period, series map[metrics.MetricType][]metrics.MetricSample) (domain.ExecutiveBriefing, error) {
	b, err := s.composer.Compose(BriefingInput{MerchantID: merchantID, Period: period, Series: series})
	if err != nil {
		return b, err
	}
	s.logger.Debug().
		Str("merchant_id", merchantID).
		Str("period", string(period)).
		Float64("score", b.PerformanceScore).
		Int("alerts", len(b.Alerts)).
		Msg("briefing composed")
	return b, nil
}

// BriefingHistoryDays 回傳簡報所需的歷史天數。
func (s *Service) BriefingHistoryDays(period domain.Period) int {
	days := s.cfg.Recommendation.HistoryDays
	if s.cfg.Anomaly.HistoryDays > days {
		days = s.cfg.Anomaly.HistoryDays
	}
	if need := 2 * period.Days(); need > days {
		days = need
	}
	return days
}

// fetch 依序取得各指標；provider 錯誤原樣包裝後回傳。
func (s *Service) fetch(ctx context.Context, merchantID string, list []metrics.MetricType, days int) (map[metrics.MetricType][]metrics.MetricSample, error) {
	if merchantID == "" {
		return nil, ErrMerchantRequired
	}
	out := make(map[metrics.MetricType][]metrics.MetricSample, len(list))
	for _, m := range list {
		samples, err := s.provider.GetMetricHistory(ctx, merchantID, m, days)
		if err != nil {
			return nil, fmt.Errorf("get %s history: %w", m, err)
		}
		out[m] = samples
	}
	return out, nil
}
