package insights

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

// ErrInvalidPeriod 表示不支援的簡報期間。
var ErrInvalidPeriod = errors.New("invalid briefing period")

// BriefingInput 為組裝簡報所需的資料，Series 以指標為鍵。
type BriefingInput struct {
	MerchantID string
	Period     domain.Period
	Series     map[metrics.MetricType][]metrics.MetricSample
}

// BriefingComposer 組裝期間比較、警示、建議與績效分數。
type BriefingComposer struct {
	cfg         Config
	trends      *TrendAnalyzer
	recommender *RecommendationEngine
	now         func() time.Time
	newID       func() string
}

// NewBriefingComposer 建立簡報組裝器。
func NewBriefingComposer(cfg Config, recommender *RecommendationEngine) *BriefingComposer {
	return &BriefingComposer{
		cfg:         cfg,
		trends:      NewTrendAnalyzer(cfg.Briefing.StableBand),
		recommender: recommender,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Compose 產出單一商家、單一期間的簡報。沒有資料時回傳中性簡報（分數 50）。
func (c *BriefingComposer) Compose(in BriefingInput) (domain.ExecutiveBriefing, error) {
	days := in.Period.Days()
	if days == 0 {
		return domain.ExecutiveBriefing{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, in.Period)
	}

	revenue := in.Series[metrics.MetricRevenue]
	txns := in.Series[metrics.MetricTransactions]
	customers := in.Series[metrics.MetricCustomers]
	cashback := in.Series[metrics.MetricCashback]

	end := latestDate(revenue, txns, customers, cashback, in.Series[metrics.MetricAvgTransaction])
	hasData := !end.IsZero()
	if !hasData {
		end = metrics.DateOnly(c.now())
	}

	out := domain.ExecutiveBriefing{
		MerchantID:         in.MerchantID,
		Period:             in.Period,
		PeriodStart:        end.AddDate(0, 0, -(days - 1)),
		PeriodEnd:          end,
		GeneratedAt:        c.now(),
		Highlights:         []domain.Highlight{},
		Alerts:             []domain.Alert{},
		TopRecommendations: []domain.Recommendation{},
	}

	out.Metrics.Transactions = c.trends.ComparePeriod(txns, end, days)
	out.Metrics.Revenue = c.trends.ComparePeriod(revenue, end, days)
	out.Metrics.Customers = c.trends.ComparePeriod(customers, end, days)
	out.Metrics.Cashback = c.trends.ComparePeriod(cashback, end, days)
	out.Metrics.AvgTransactionValue = c.trends.CompareRatio(revenue, txns, end, days)

	if hasData {
		out.Alerts = c.alerts(in, days)

		recs := c.recommender.Generate(RecommendationInput{
			Revenue:      revenue,
			Transactions: txns,
			Customers:    customers,
			Cashback:     cashback,
		})
		if n := c.cfg.Briefing.MaxRecommendations; len(recs) > n {
			recs = recs[:n]
		}
		if recs != nil {
			out.TopRecommendations = recs
		}
	}

	out.PerformanceScore = c.Score(out.Metrics, out.Alerts)
	if hasData {
		out.Highlights = c.highlights(in.Period, out.Metrics, out.TopRecommendations)
	}
	out.Summary = summarize(out, hasData)
	return out, nil
}

// alerts 以期間長度作為近期窗口執行異常偵測，只保留 high / critical。
func (c *BriefingComposer) alerts(in BriefingInput, days int) []domain.Alert {
	cfg := c.cfg.Anomaly
	if days > cfg.RecentDays {
		cfg.RecentDays = days
	}
	detector := NewAnomalyDetector(cfg)
	detector.now = c.now
	detector.newID = c.newID

	var series []metrics.MetricSeries
	for _, m := range metrics.AllMetrics() {
		samples := in.Series[m]
		if m == metrics.MetricAvgTransaction && len(samples) == 0 {
			samples = DeriveAvgTransaction(in.Series[metrics.MetricRevenue], in.Series[metrics.MetricTransactions])
		}
		series = append(series, metrics.MetricSeries{MerchantID: in.MerchantID, Metric: m, Samples: samples})
	}

	out := []domain.Alert{}
	for _, a := range detector.Detect(in.MerchantID, series) {
		var sev domain.AlertSeverity
		switch a.Severity {
		case domain.SeverityCritical:
			sev = domain.AlertCritical
		case domain.SeverityHigh:
			sev = domain.AlertWarning
		default:
			continue
		}
		out = append(out, domain.Alert{
			Metric:      a.Metric,
			Severity:    sev,
			AnomalyType: a.Type,
			Message:     a.Description,
		})
	}
	return out
}

// Score 從中性分數出發，依各指標變化加減分，再依警示扣分，最後限制在 [0, 100]。
// 現金回饋支出的方向相反：回饋下降為加分。
func (c *BriefingComposer) Score(m domain.BriefingMetrics, alerts []domain.Alert) float64 {
	b := c.cfg.Briefing
	score := b.BaseScore
	for _, metric := range metrics.AllMetrics() {
		pct := clamp(m.Get(metric).ChangePercent, -b.ChangeCap, b.ChangeCap)
		score += b.MetricWeight * pct / b.ChangeCap * metricDirection(metric)
	}
	for _, a := range alerts {
		switch a.Severity {
		case domain.AlertCritical:
			score -= b.CriticalPenalty
		case domain.AlertWarning:
			score -= b.WarningPenalty
		}
	}
	score = clamp(score, 0, 100)
	return math.Round(score*10) / 10
}

type signal struct {
	metric metrics.MetricType
	cmp    domain.MetricComparison
	value  float64
}

func (c *BriefingComposer) highlights(period domain.Period, m domain.BriefingMetrics, recs []domain.Recommendation) []domain.Highlight {
	b := c.cfg.Briefing
	signals := make([]signal, 0, 5)
	for _, metric := range metrics.AllMetrics() {
		cmp := m.Get(metric)
		v := 0.0
		if cmp.Trend != domain.TrendStable {
			v = cmp.ChangePercent * metricDirection(metric)
		}
		signals = append(signals, signal{metric: metric, cmp: cmp, value: v})
	}

	used := make(map[metrics.MetricType]bool)
	out := make([]domain.Highlight, 0, b.MaxHighlights)

	best, worst := -1, -1
	for i, s := range signals {
		if s.value > 0 && (best < 0 || s.value > signals[best].value) {
			best = i
		}
		if s.value < 0 && (worst < 0 || s.value < signals[worst].value) {
			worst = i
		}
	}
	for _, i := range []int{best, worst} {
		if i < 0 {
			continue
		}
		out = append(out, metricHighlight(period, signals[i]))
		used[signals[i].metric] = true
	}

	for _, r := range recs {
		if r.Type != domain.RecommendationGrowth || len(out) >= b.MaxHighlights {
			continue
		}
		h := domain.Highlight{Title: r.Title, Detail: r.Description, Sentiment: domain.SentimentPositive}
		if r.Impact != nil {
			h.Metric = r.Impact.Metric
		}
		out = append(out, h)
	}

	rest := make([]signal, 0, len(signals))
	for _, s := range signals {
		if !used[s.metric] {
			rest = append(rest, s)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return math.Abs(rest[i].value) > math.Abs(rest[j].value)
	})
	for _, s := range rest {
		if len(out) >= b.MinHighlights {
			break
		}
		out = append(out, metricHighlight(period, s))
	}
	return out
}

func metricHighlight(period domain.Period, s signal) domain.Highlight {
	label := capitalize(s.metric.Label())
	window := periodNoun(period)
	h := domain.Highlight{Metric: s.metric}
	switch {
	case s.cmp.Trend == domain.TrendStable:
		h.Title = fmt.Sprintf("%s held steady", label)
		h.Sentiment = domain.SentimentNeutral
	default:
		h.Title = fmt.Sprintf("%s %s %.1f%%", label, s.cmp.Trend, math.Abs(s.cmp.ChangePercent))
		h.Sentiment = domain.SentimentPositive
		if s.value < 0 {
			h.Sentiment = domain.SentimentNegative
		}
	}
	h.Detail = fmt.Sprintf("%s was %.2f this %s against %.2f the previous %s", label, s.cmp.Current, window, s.cmp.Previous, window)
	return h
}

func summarize(b domain.ExecutiveBriefing, hasData bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Performance score %.0f/100 (%s) for the %s ending %s.",
		b.PerformanceScore, scoreBracket(b.PerformanceScore), periodNoun(b.Period), b.PeriodEnd.Format("2006-01-02"))
	if !hasData {
		sb.WriteString(" No activity recorded for this period.")
		return sb.String()
	}

	var parts []string
	for _, h := range b.Highlights {
		if len(parts) == 2 {
			break
		}
		parts = append(parts, h.Title)
	}
	if len(parts) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(parts, "; "))
		sb.WriteString(".")
	}
	switch n := len(b.Alerts); n {
	case 0:
	case 1:
		sb.WriteString(" 1 alert needs attention.")
	default:
		fmt.Fprintf(&sb, " %d alerts need attention.", n)
	}
	return sb.String()
}

func scoreBracket(score float64) string {
	switch {
	case score >= 70:
		return "strong"
	case score >= 50:
		return "steady"
	case score >= 30:
		return "softening"
	}
	return "needs attention"
}

func periodNoun(p domain.Period) string {
	if p == domain.PeriodWeekly {
		return "week"
	}
	return "day"
}

// metricDirection 回傳 1 表示越高越好，-1 表示越低越好。
func metricDirection(m metrics.MetricType) float64 {
	if m == metrics.MetricCashback {
		return -1
	}
	return 1
}

// DeriveAvgTransaction 以同日營收 / 交易數推導客單價序列，交易數為 0 的日期略過。
func DeriveAvgTransaction(revenue, transactions []metrics.MetricSample) []metrics.MetricSample {
	byDate := make(map[time.Time]float64, len(transactions))
	for _, t := range transactions {
		if t.Finite() {
			byDate[metrics.DateOnly(t.Date)] = t.Value
		}
	}
	out := make([]metrics.MetricSample, 0, len(revenue))
	for _, r := range revenue {
		if !r.Finite() {
			continue
		}
		n, ok := byDate[metrics.DateOnly(r.Date)]
		if !ok || n == 0 {
			continue
		}
		out = append(out, metrics.MetricSample{Date: r.Date, Value: r.Value / n})
	}
	return out
}
