package insights

// SeverityBands 以 |deviation|（百分比）切分嚴重度：< Medium 為 low，依序往上。
type SeverityBands struct {
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// AnomalyConfig 為異常偵測門檻，百分比單位。
type AnomalyConfig struct {
	HistoryDays          int           `yaml:"history_days"`
	BaselineDays         int           `yaml:"baseline_days"`
	RecentDays           int           `yaml:"recent_days"`
	TrendWindow          int           `yaml:"trend_window"`
	SpikeThreshold       float64       `yaml:"spike_threshold"`
	DropThreshold        float64       `yaml:"drop_threshold"`
	TrendChangeThreshold float64       `yaml:"trend_change_threshold"`
	UnusualThreshold     float64       `yaml:"unusual_threshold"`
	SeasonalTolerance    float64       `yaml:"seasonal_tolerance"`
	Severity             SeverityBands `yaml:"severity"`
}

// RecommendationConfig 為建議規則門檻。趨勢門檻為比例（-0.05 即 -5%），
// 現金回饋率與客單價門檻為百分比與金額。
type RecommendationConfig struct {
	HistoryDays             int     `yaml:"history_days"`
	TrendWindow             int     `yaml:"trend_window"`
	RateWindowDays          int     `yaml:"rate_window_days"`
	TicketWindowDays        int     `yaml:"ticket_window_days"`
	MaxResults              int     `yaml:"max_results"`
	TransactionDeclineTrend float64 `yaml:"transaction_decline_trend"`
	TransactionSurgeTrend   float64 `yaml:"transaction_surge_trend"`
	HighCashbackRate        float64 `yaml:"high_cashback_rate"`
	CustomerDeclineTrend    float64 `yaml:"customer_decline_trend"`
	GrowthRevenueTrend      float64 `yaml:"growth_revenue_trend"`
	GrowthTransactionTrend  float64 `yaml:"growth_transaction_trend"`
	WeekendGapRatio         float64 `yaml:"weekend_gap_ratio"`
	MinAvgTicket            float64 `yaml:"min_avg_ticket"`
	CashbackIncreaseStep    float64 `yaml:"cashback_increase_step"`
	CashbackDecreaseStep    float64 `yaml:"cashback_decrease_step"`
}

// BriefingConfig 為簡報評分與組裝參數。
type BriefingConfig struct {
	StableBand         float64 `yaml:"stable_band"`
	BaseScore          float64 `yaml:"base_score"`
	MetricWeight       float64 `yaml:"metric_weight"`
	ChangeCap          float64 `yaml:"change_cap"`
	CriticalPenalty    float64 `yaml:"critical_penalty"`
	WarningPenalty     float64 `yaml:"warning_penalty"`
	MaxRecommendations int     `yaml:"max_recommendations"`
	MinHighlights      int     `yaml:"min_highlights"`
	MaxHighlights      int     `yaml:"max_highlights"`
}

// Config 集中所有可調整的門檻，於建構時注入。
type Config struct {
	Anomaly        AnomalyConfig        `yaml:"anomaly"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Briefing       BriefingConfig       `yaml:"briefing"`
}

// DefaultConfig 回傳預設門檻。
func DefaultConfig() Config {
	return Config{
		Anomaly: AnomalyConfig{
			HistoryDays:          30,
			BaselineDays:         14,
			RecentDays:           1,
			TrendWindow:          7,
			SpikeThreshold:       40,
			DropThreshold:        40,
			TrendChangeThreshold: 10,
			UnusualThreshold:     20,
			SeasonalTolerance:    20,
			Severity: SeverityBands{
				Medium:   20,
				High:     40,
				Critical: 70,
			},
		},
		Recommendation: RecommendationConfig{
			HistoryDays:             60,
			TrendWindow:             7,
			RateWindowDays:          7,
			TicketWindowDays:        14,
			MaxResults:              5,
			TransactionDeclineTrend: -0.05,
			TransactionSurgeTrend:   0.10,
			HighCashbackRate:        3,
			CustomerDeclineTrend:    -0.08,
			GrowthRevenueTrend:      0.05,
			GrowthTransactionTrend:  0.05,
			WeekendGapRatio:         0.6,
			MinAvgTicket:            50,
			CashbackIncreaseStep:    0.5,
			CashbackDecreaseStep:    0.3,
		},
		Briefing: BriefingConfig{
			StableBand:         2,
			BaseScore:          50,
			MetricWeight:       8,
			ChangeCap:          25,
			CriticalPenalty:    10,
			WarningPenalty:     4,
			MaxRecommendations: 3,
			MinHighlights:      3,
			MaxHighlights:      5,
		},
	}
}

// WithDefaults 以預設值補齊零值欄位。
func (c Config) WithDefaults() Config {
	d := DefaultConfig()

	a := &c.Anomaly
	setInt(&a.HistoryDays, d.Anomaly.HistoryDays)
	setInt(&a.BaselineDays, d.Anomaly.BaselineDays)
	setInt(&a.RecentDays, d.Anomaly.RecentDays)
	setInt(&a.TrendWindow, d.Anomaly.TrendWindow)
	setFloat(&a.SpikeThreshold, d.Anomaly.SpikeThreshold)
	setFloat(&a.DropThreshold, d.Anomaly.DropThreshold)
	setFloat(&a.TrendChangeThreshold, d.Anomaly.TrendChangeThreshold)
	setFloat(&a.UnusualThreshold, d.Anomaly.UnusualThreshold)
	setFloat(&a.SeasonalTolerance, d.Anomaly.SeasonalTolerance)
	setFloat(&a.Severity.Medium, d.Anomaly.Severity.Medium)
	setFloat(&a.Severity.High, d.Anomaly.Severity.High)
	setFloat(&a.Severity.Critical, d.Anomaly.Severity.Critical)

	r := &c.Recommendation
	setInt(&r.HistoryDays, d.Recommendation.HistoryDays)
	setInt(&r.TrendWindow, d.Recommendation.TrendWindow)
	setInt(&r.RateWindowDays, d.Recommendation.RateWindowDays)
	setInt(&r.TicketWindowDays, d.Recommendation.TicketWindowDays)
	setInt(&r.MaxResults, d.Recommendation.MaxResults)
	setFloat(&r.TransactionDeclineTrend, d.Recommendation.TransactionDeclineTrend)
	setFloat(&r.TransactionSurgeTrend, d.Recommendation.TransactionSurgeTrend)
	setFloat(&r.HighCashbackRate, d.Recommendation.HighCashbackRate)
	setFloat(&r.CustomerDeclineTrend, d.Recommendation.CustomerDeclineTrend)
	setFloat(&r.GrowthRevenueTrend, d.Recommendation.GrowthRevenueTrend)
	setFloat(&r.GrowthTransactionTrend, d.Recommendation.GrowthTransactionTrend)
	setFloat(&r.WeekendGapRatio, d.Recommendation.WeekendGapRatio)
	setFloat(&r.MinAvgTicket, d.Recommendation.MinAvgTicket)
	setFloat(&r.CashbackIncreaseStep, d.Recommendation.CashbackIncreaseStep)
	setFloat(&r.CashbackDecreaseStep, d.Recommendation.CashbackDecreaseStep)

	b := &c.Briefing
	setFloat(&b.StableBand, d.Briefing.StableBand)
	setFloat(&b.BaseScore, d.Briefing.BaseScore)
	setFloat(&b.MetricWeight, d.Briefing.MetricWeight)
	setFloat(&b.ChangeCap, d.Briefing.ChangeCap)
	setFloat(&b.CriticalPenalty, d.Briefing.CriticalPenalty)
	setFloat(&b.WarningPenalty, d.Briefing.WarningPenalty)
	setInt(&b.MaxRecommendations, d.Briefing.MaxRecommendations)
	setInt(&b.MinHighlights, d.Briefing.MinHighlights)
	setInt(&b.MaxHighlights, d.Briefing.MaxHighlights)

	return c
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}
