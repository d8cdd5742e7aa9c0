package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

// 各規則的預估影響（百分比）與信心值。
const (
	cashbackIncreaseLift       = 12.0
	cashbackIncreaseConfidence = 0.75
	cashbackReduceChange       = -10.0
	cashbackReduceConfidence   = 0.70
	retentionLift              = 15.0
	retentionConfidence        = 0.80
	growthLift                 = 20.0
	growthConfidence           = 0.65
	weekendLift                = 25.0
	weekendConfidence          = 0.70
	basketLift                 = 15.0
	basketConfidence           = 0.60
)

// RecommendationInput 為產生建議所需的歷史序列，通常為 60 天。
type RecommendationInput struct {
	Revenue      []metrics.MetricSample
	Transactions []metrics.MetricSample
	Customers    []metrics.MetricSample
	Cashback     []metrics.MetricSample
}

// Signals 為規則評估用的彙總訊號。趨勢為比例，CashbackRate 為百分比。
type Signals struct {
	RevenueTrend      float64 `json:"revenueTrend"`
	TransactionsTrend float64 `json:"transactionsTrend"`
	CustomersTrend    float64 `json:"customersTrend"`
	CashbackRate      float64 `json:"cashbackRate"`
	WeekdayAvg        float64 `json:"weekdayAvg"`
	WeekendAvg        float64 `json:"weekendAvg"`
	AvgTicket         float64 `json:"avgTicket"`
	HasWeekdays       bool    `json:"hasWeekdays"`
	HasWeekends       bool    `json:"hasWeekends"`
	HasTicket         bool    `json:"hasTicket"`
}

// RecommendationEngine 依趨勢訊號產生排序後的建議。
type RecommendationEngine struct {
	cfg   RecommendationConfig
	now   func() time.Time
	newID func() string
}

// NewRecommendationEngine 建立建議引擎。
func NewRecommendationEngine(cfg RecommendationConfig) *RecommendationEngine {
	return &RecommendationEngine{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Signals 計算趨勢、回饋率、平假日平均與客單價。
func (e *RecommendationEngine) Signals(in RecommendationInput) Signals {
	w := e.cfg.TrendWindow
	sig := Signals{
		RevenueTrend:      Trend(SeriesValues(in.Revenue), w, w),
		TransactionsTrend: Trend(SeriesValues(in.Transactions), w, w),
		CustomersTrend:    Trend(SeriesValues(in.Customers), w, w),
	}

	end := latestDate(in.Revenue, in.Transactions, in.Customers, in.Cashback)
	if !end.IsZero() {
		rateFrom := end.AddDate(0, 0, -e.cfg.RateWindowDays)
		revenue := windowSum(in.Revenue, rateFrom, end)
		sig.CashbackRate = safeDiv(windowSum(in.Cashback, rateFrom, end), revenue) * 100

		ticketFrom := end.AddDate(0, 0, -e.cfg.TicketWindowDays)
		txns := windowSum(in.Transactions, ticketFrom, end)
		if txns > 0 {
			sig.AvgTicket = windowSum(in.Revenue, ticketFrom, end) / txns
			sig.HasTicket = true
		}
	}

	txns := finiteSamples(in.Transactions)
	weekdays, weekends := filterDays(txns, false), filterDays(txns, true)
	sig.HasWeekdays, sig.HasWeekends = len(weekdays) > 0, len(weekends) > 0
	sig.WeekdayAvg = WeekdayAverage(txns)
	sig.WeekendAvg = WeekendAverage(txns)
	return sig
}

// Generate 評估全部規則，依優先度穩定排序後截取前 MaxResults 筆。
// 資料不足時趨勢為 0，規則自然不觸發。
func (e *RecommendationEngine) Generate(in RecommendationInput) []domain.Recommendation {
	return e.FromSignals(e.Signals(in))
}

// FromSignals 以已計算的訊號評估規則。
func (e *RecommendationEngine) FromSignals(sig Signals) []domain.Recommendation {
	cfg := e.cfg
	var out []domain.Recommendation

	if sig.TransactionsTrend < cfg.TransactionDeclineTrend {
		target := sig.CashbackRate + cfg.CashbackIncreaseStep
		out = append(out, e.build(domain.RecommendationOptimization, domain.PriorityHigh,
			"Increase cashback to recover transactions",
			fmt.Sprintf("Transactions are down %.1f%% versus the previous %d days. Raising cashback from %.2f%% to %.2f%% gives customers a reason to come back.",
				-sig.TransactionsTrend*100, cfg.TrendWindow, sig.CashbackRate, target),
			fmt.Sprintf("Raise the cashback rate by %.1f percentage points", cfg.CashbackIncreaseStep),
			metrics.MetricTransactions, cashbackIncreaseLift, cashbackIncreaseConfidence))
	}

	if sig.TransactionsTrend > cfg.TransactionSurgeTrend && sig.CashbackRate > cfg.HighCashbackRate {
		target := sig.CashbackRate - cfg.CashbackDecreaseStep
		if target < 0 {
			target = 0
		}
		out = append(out, e.build(domain.RecommendationOptimization, domain.PriorityMedium,
			"Optimize cashback spend",
			fmt.Sprintf("Transactions grew %.1f%% while cashback runs at %.2f%% of revenue. Demand is strong enough to trim the rate to %.2f%%.",
				sig.TransactionsTrend*100, sig.CashbackRate, target),
			fmt.Sprintf("Lower the cashback rate by %.1f percentage points", cfg.CashbackDecreaseStep),
			metrics.MetricCashback, cashbackReduceChange, cashbackReduceConfidence))
	}

	if sig.CustomersTrend < cfg.CustomerDeclineTrend {
		out = append(out, e.build(domain.RecommendationRetention, domain.PriorityHigh,
			"Customer retention at risk",
			fmt.Sprintf("Active customers fell %.1f%% versus the previous %d days.", -sig.CustomersTrend*100, cfg.TrendWindow),
			"Launch a loyalty bonus for returning customers",
			metrics.MetricCustomers, retentionLift, retentionConfidence))
	}

	if sig.RevenueTrend > cfg.GrowthRevenueTrend && sig.TransactionsTrend > cfg.GrowthTransactionTrend {
		out = append(out, e.build(domain.RecommendationGrowth, domain.PriorityMedium,
			"Build on growth momentum",
			fmt.Sprintf("Revenue is up %.1f%% and transactions up %.1f%%. This is a good window to widen the campaign.",
				sig.RevenueTrend*100, sig.TransactionsTrend*100),
			"Extend the campaign to new customer segments or locations",
			metrics.MetricRevenue, growthLift, growthConfidence))
	}

	if sig.HasWeekdays && sig.HasWeekends && sig.WeekendAvg < sig.WeekdayAvg*cfg.WeekendGapRatio {
		out = append(out, e.build(domain.RecommendationGrowth, domain.PriorityMedium,
			"Close the weekend gap",
			fmt.Sprintf("Weekend transactions average %.1f a day against %.1f on weekdays.", sig.WeekendAvg, sig.WeekdayAvg),
			"Run a weekend-only cashback boost",
			metrics.MetricTransactions, weekendLift, weekendConfidence))
	}

	if sig.HasTicket && sig.AvgTicket < cfg.MinAvgTicket {
		out = append(out, e.build(domain.RecommendationOptimization, domain.PriorityLow,
			"Encourage larger baskets",
			fmt.Sprintf("The average transaction over the last %d days is %.2f, below the %.2f target.",
				cfg.TicketWindowDays, sig.AvgTicket, cfg.MinAvgTicket),
			"Introduce tiered cashback that rewards larger purchases",
			metrics.MetricRevenue, basketLift, basketConfidence))
	}

	return rankRecommendations(out, cfg.MaxResults)
}

func (e *RecommendationEngine) build(typ domain.RecommendationType, prio domain.Priority, title, desc, action string, metric metrics.MetricType, change, confidence float64) domain.Recommendation {
	return domain.Recommendation{
		ID:          e.newID(),
		Type:        typ,
		Priority:    prio,
		Title:       title,
		Description: desc,
		Impact: &domain.Impact{
			Metric:          metric,
			EstimatedChange: change,
			Confidence:      confidence,
		},
		Action:    action,
		CreatedAt: e.now(),
	}
}

// rankRecommendations 依優先度穩定排序，同優先度保留規則評估順序。
func rankRecommendations(in []domain.Recommendation, limit int) []domain.Recommendation {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].Priority.Order() < in[j].Priority.Order()
	})
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}

// latestDate 回傳所有序列中最晚的樣本日期（截至當日）。
func latestDate(series ...[]metrics.MetricSample) time.Time {
	var latest time.Time
	for _, s := range series {
		for i := len(s) - 1; i >= 0; i-- {
			if !s[i].Finite() {
				continue
			}
			if d := metrics.DateOnly(s[i].Date); d.After(latest) {
				latest = d
			}
			break
		}
	}
	return latest
}
