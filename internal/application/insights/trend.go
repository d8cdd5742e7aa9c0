package insights

import (
	"math"
	"time"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

// TrendAnalyzer 計算日對日、週對週比率與期間比較。
type TrendAnalyzer struct {
	stableBand float64
}

// NewTrendAnalyzer 建立趨勢分析器；|changePercent| 小於 stableBand 視為持平。
func NewTrendAnalyzer(stableBand float64) *TrendAnalyzer {
	return &TrendAnalyzer{stableBand: stableBand}
}

// DayOverDay 回傳最後一日相對前一日的比率。
func (a *TrendAnalyzer) DayOverDay(values []float64) float64 {
	return Trend(values, 1, 1)
}

// WeekOverWeek 回傳最近 7 筆相對前 7 筆的比率。
func (a *TrendAnalyzer) WeekOverWeek(values []float64) float64 {
	return Trend(values, 7, 7)
}

// Compare 建立本期與前期比較。
func (a *TrendAnalyzer) Compare(current, previous float64) domain.MetricComparison {
	pct := percentChange(current, previous)
	trend := domain.TrendStable
	switch {
	case pct == 0 || math.Abs(pct) < a.stableBand:
	case pct > 0:
		trend = domain.TrendUp
	default:
		trend = domain.TrendDown
	}
	return domain.MetricComparison{
		Current:       current,
		Previous:      previous,
		Change:        current - previous,
		ChangePercent: pct,
		Trend:         trend,
	}
}

// ComparePeriod 加總 (end-days, end] 與其前一等長區間的樣本後比較。
func (a *TrendAnalyzer) ComparePeriod(samples []metrics.MetricSample, end time.Time, days int) domain.MetricComparison {
	cur, prev := periodSums(samples, end, days)
	return a.Compare(cur, prev)
}

// CompareRatio 以兩序列在各區間的總和比值比較，例如營收 / 交易數 = 客單價。
func (a *TrendAnalyzer) CompareRatio(num, den []metrics.MetricSample, end time.Time, days int) domain.MetricComparison {
	numCur, numPrev := periodSums(num, end, days)
	denCur, denPrev := periodSums(den, end, days)
	return a.Compare(safeDiv(numCur, denCur), safeDiv(numPrev, denPrev))
}

func periodSums(samples []metrics.MetricSample, end time.Time, days int) (float64, float64) {
	if days <= 0 {
		return 0, 0
	}
	end = metrics.DateOnly(end)
	curFrom := end.AddDate(0, 0, -days)
	prevFrom := curFrom.AddDate(0, 0, -days)
	return windowSum(samples, curFrom, end), windowSum(samples, prevFrom, curFrom)
}

// windowSum 加總日期落在 (from, to] 的有限樣本。
func windowSum(samples []metrics.MetricSample, from, to time.Time) float64 {
	total := 0.0
	for _, s := range samples {
		if !s.Finite() {
			continue
		}
		d := metrics.DateOnly(s.Date)
		if d.After(from) && !d.After(to) {
			total += s.Value
		}
	}
	return total
}

// percentChange 前期為 0 時：本期也為 0 回傳 0，否則依本期正負回傳 ±100。
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		switch {
		case current > 0:
			return 100
		case current < 0:
			return -100
		}
		return 0
	}
	return (current - previous) / math.Abs(previous) * 100
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
