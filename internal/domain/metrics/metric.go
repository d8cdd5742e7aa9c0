package metrics

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// MetricType 列舉商家每日追蹤的指標。
type MetricType string

const (
	MetricTransactions   MetricType = "transactions"
	MetricRevenue        MetricType = "revenue"
	MetricCustomers      MetricType = "customers"
	MetricCashback       MetricType = "cashback"
	MetricAvgTransaction MetricType = "avg_transaction"
)

// AllMetrics 回傳固定順序的全部指標。
func AllMetrics() []MetricType {
	return []MetricType{
		MetricTransactions,
		MetricRevenue,
		MetricCustomers,
		MetricCashback,
		MetricAvgTransaction,
	}
}

// Valid 檢查是否為支援的指標。
func (m MetricType) Valid() bool {
	switch m {
	case MetricTransactions, MetricRevenue, MetricCustomers, MetricCashback, MetricAvgTransaction:
		return true
	}
	return false
}

// Label 回傳描述文字使用的名稱。
func (m MetricType) Label() string {
	switch m {
	case MetricAvgTransaction:
		return "average transaction value"
	default:
		return string(m)
	}
}

// ParseMetricType 解析字串為指標，大小寫不敏感。
func ParseMetricType(s string) (MetricType, error) {
	m := MetricType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported metric: %q", s)
	}
	return m, nil
}

// MetricSample 為單日指標值，由外部 metric store 提供。
type MetricSample struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Finite 表示數值可用於統計（非 NaN / Inf）。
func (s MetricSample) Finite() bool {
	return !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

// MetricSeries 為單一商家、單一指標的遞增日期序列。
type MetricSeries struct {
	MerchantID string         `json:"merchantId"`
	Metric     MetricType     `json:"metric"`
	Samples    []MetricSample `json:"samples"`
}

// Len 回傳樣本數。
func (s MetricSeries) Len() int {
	return len(s.Samples)
}

// Last 回傳最後一筆樣本。
func (s MetricSeries) Last() (MetricSample, bool) {
	if len(s.Samples) == 0 {
		return MetricSample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// ValidationError 收集多個驗證失敗原因。
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("metric series validation failed: %v", e.Reasons)
}

// Validate 檢查序列是否符合 provider 契約：指標合法、日期遞增、日期必填。
// 非有限數值不在此處拒絕，由統計層過濾。
func (s MetricSeries) Validate() error {
	var reasons []string

	if s.MerchantID == "" {
		reasons = append(reasons, "merchant_id is required")
	}
	if !s.Metric.Valid() {
		reasons = append(reasons, "unsupported metric")
	}
	for i, sample := range s.Samples {
		if sample.Date.IsZero() {
			reasons = append(reasons, fmt.Sprintf("sample %d: date is required", i))
			continue
		}
		if i > 0 && !s.Samples[i-1].Date.Before(sample.Date) {
			reasons = append(reasons, fmt.Sprintf("sample %d: dates must be strictly ascending", i))
		}
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// IsValidationError 檢查錯誤是否為序列驗證錯誤。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DateOnly 將時間截斷為 UTC 當日零時。
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
