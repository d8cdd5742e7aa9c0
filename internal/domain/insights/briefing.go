package insights

import (
	"fmt"
	"time"

	"kaching-analytics/internal/domain/metrics"
)

// Period 為簡報期間。
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// Days 回傳期間天數；不支援的期間回傳 0。
func (p Period) Days() int {
	switch p {
	case PeriodDaily:
		return 1
	case PeriodWeekly:
		return 7
	}
	return 0
}

// ParsePeriod 解析期間字串，空字串視為 daily。
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	}
	return "", fmt.Errorf("unsupported period: %q", s)
}

// Trend 為期間比較方向。
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MetricComparison 為本期與前一等長期間的比較。
type MetricComparison struct {
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Trend         Trend   `json:"trend"`
}

// BriefingMetrics 為簡報追蹤的五項指標。
type BriefingMetrics struct {
	Transactions        MetricComparison `json:"transactions"`
	Revenue             MetricComparison `json:"revenue"`
	Customers           MetricComparison `json:"customers"`
	Cashback            MetricComparison `json:"cashback"`
	AvgTransactionValue MetricComparison `json:"avgTransactionValue"`
}

// Get 依指標取得比較結果。
func (b BriefingMetrics) Get(m metrics.MetricType) MetricComparison {
	switch m {
	case metrics.MetricTransactions:
		return b.Transactions
	case metrics.MetricRevenue:
		return b.Revenue
	case metrics.MetricCustomers:
		return b.Customers
	case metrics.MetricCashback:
		return b.Cashback
	case metrics.MetricAvgTransaction:
		return b.AvgTransactionValue
	}
	return MetricComparison{}
}

// Set 依指標寫入比較結果。
func (b *BriefingMetrics) Set(m metrics.MetricType, c MetricComparison) {
	switch m {
	case metrics.MetricTransactions:
		b.Transactions = c
	case metrics.MetricRevenue:
		b.Revenue = c
	case metrics.MetricCustomers:
		b.Customers = c
	case metrics.MetricCashback:
		b.Cashback = c
	case metrics.MetricAvgTransaction:
		b.AvgTransactionValue = c
	}
}

// Sentiment 為重點摘要的情緒。
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Highlight 為簡報中的一則重點。
type Highlight struct {
	Title     string             `json:"title"`
	Detail    string             `json:"detail"`
	Sentiment Sentiment          `json:"sentiment"`
	Metric    metrics.MetricType `json:"metric,omitempty"`
}

// AlertSeverity 為簡報警示等級。
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert 由 high / critical 異常轉換而來。
type Alert struct {
	Metric      metrics.MetricType `json:"metric"`
	Severity    AlertSeverity      `json:"severity"`
	AnomalyType AnomalyType        `json:"anomalyType"`
	Message     string             `json:"message"`
}

// ExecutiveBriefing 聚合單一商家單一期間的報告。
type ExecutiveBriefing struct {
	MerchantID         string           `json:"merchantId"`
	Period             Period           `json:"period"`
	PeriodStart        time.Time        `json:"periodStart"`
	PeriodEnd          time.Time        `json:"periodEnd"`
	GeneratedAt        time.Time        `json:"generatedAt"`
	Metrics            BriefingMetrics  `json:"metrics"`
	Highlights         []Highlight      `json:"highlights"`
	Alerts             []Alert          `json:"alerts"`
	TopRecommendations []Recommendation `json:"topRecommendations"`
	PerformanceScore   float64          `json:"performanceScore"`
	Summary            string           `json:"summary"`
}
