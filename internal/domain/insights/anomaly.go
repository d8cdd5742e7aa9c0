package insights

import (
	"time"

	"kaching-analytics/internal/domain/metrics"
)

// AnomalyType 列舉偵測到的異常類型。
type AnomalyType string

const (
	AnomalySpike          AnomalyType = "spike"
	AnomalyDrop           AnomalyType = "drop"
	AnomalyTrendChange    AnomalyType = "trend_change"
	AnomalyUnusualPattern AnomalyType = "unusual_pattern"
)

// Severity 為異常嚴重度。
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank 回傳嚴重度排序值，越大越嚴重。
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Anomaly 為單次偵測產生的異常，不需跨次保存。
type Anomaly struct {
	ID             string             `json:"id"`
	MerchantID     string             `json:"merchantId"`
	Metric         metrics.MetricType `json:"metric"`
	Type           AnomalyType        `json:"type"`
	Severity       Severity           `json:"severity"`
	Value          float64            `json:"value"`
	ExpectedValue  float64            `json:"expectedValue"`
	Deviation      float64            `json:"deviation"` // 百分比
	DetectedAt     time.Time          `json:"detectedAt"`
	Description    string             `json:"description"`
	Recommendation string             `json:"recommendation,omitempty"`
}
