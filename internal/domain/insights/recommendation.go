package insights

import (
	"time"

	"kaching-analytics/internal/domain/metrics"
)

// RecommendationType 列舉建議類別。
type RecommendationType string

const (
	RecommendationOptimization RecommendationType = "optimization"
	RecommendationRetention    RecommendationType = "retention"
	RecommendationGrowth       RecommendationType = "growth"
)

// Priority 為建議優先度。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Order 回傳排序值，high 最前。
func (p Priority) Order() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Impact 描述建議的預估影響。
type Impact struct {
	Metric          metrics.MetricType `json:"metric"`
	EstimatedChange float64            `json:"estimatedChange"` // 百分比
	Confidence      float64            `json:"confidence"`      // 0~1
}

// Recommendation 為每次呼叫重新產生的可執行建議。
type Recommendation struct {
	ID          string             `json:"id"`
	Type        RecommendationType `json:"type"`
	Priority    Priority           `json:"priority"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Impact      *Impact            `json:"impact,omitempty"`
	Action      string             `json:"action"`
	CreatedAt   time.Time          `json:"createdAt"`
}
