package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
)

// AnomalyDetector 比較最新值與基準平均，輸出帶嚴重度的異常。
type AnomalyDetector struct {
	cfg   AnomalyConfig
	now   func() time.Time
	newID func() string
}

// NewAnomalyDetector 建立異常偵測器。
func NewAnomalyDetector(cfg AnomalyConfig) *AnomalyDetector {
	return &AnomalyDetector{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Detect 依序偵測每條序列，並對相同 (metric, type) 只保留最嚴重的一筆。
func (d *AnomalyDetector) Detect(merchantID string, series []metrics.MetricSeries) []domain.Anomaly {
	var out []domain.Anomaly
	for _, s := range series {
		out = append(out, d.DetectSeries(merchantID, s.Metric, s.Samples)...)
	}
	return dedupeAnomalies(out)
}

// DetectSeries 偵測單一指標。空序列或單點序列回傳 nil。
func (d *AnomalyDetector) DetectSeries(merchantID string, metric metrics.MetricType, samples []metrics.MetricSample) []domain.Anomaly {
	clean := finiteSamples(samples)
	n := len(clean)
	if n < 2 {
		return nil
	}

	recent := d.cfg.RecentDays
	if recent <= 0 {
		recent = 1
	}
	if recent > n-1 {
		recent = n - 1
	}
	baseStart := n - recent - d.cfg.BaselineDays
	if baseStart < 0 {
		baseStart = 0
	}
	baseline := clean[baseStart : n-recent]
	actual := Mean(SeriesValues(clean[n-recent:]))
	expected := Mean(SeriesValues(baseline))
	deviation := 0.0
	if expected != 0 {
		deviation = (actual - expected) / math.Abs(expected) * 100
	}

	var out []domain.Anomaly
	outlier := false
	switch {
	case deviation >= d.cfg.SpikeThreshold:
		out = append(out, d.build(merchantID, metric, domain.AnomalySpike, actual, expected, deviation))
		outlier = true
	case deviation <= -d.cfg.DropThreshold:
		out = append(out, d.build(merchantID, metric, domain.AnomalyDrop, actual, expected, deviation))
		outlier = true
	}

	if a, ok := d.trendChange(merchantID, metric, SeriesValues(clean)); ok {
		out = append(out, a)
		outlier = true
	}

	if !outlier && math.Abs(deviation) >= d.cfg.UnusualThreshold && !d.explainedBySeasonality(clean[n-1], baseline) {
		out = append(out, d.build(merchantID, metric, domain.AnomalyUnusualPattern, actual, expected, deviation))
	}
	return out
}

// trendChange 短期趨勢與前一期趨勢方向不同，且短期幅度超過門檻時成立。
// 前一期趨勢需要完整的 2*window+1 筆資料，不足時不判斷。
func (d *AnomalyDetector) trendChange(merchantID string, metric metrics.MetricType, values []float64) (domain.Anomaly, bool) {
	w := d.cfg.TrendWindow
	n := len(values)
	if w <= 0 || n < 2*w+1 {
		return domain.Anomaly{}, false
	}
	short := Trend(values, w, w) * 100
	prior := Trend(values[:n-w], w, w) * 100
	if math.Abs(short) < d.cfg.TrendChangeThreshold || sign(short) == sign(prior) {
		return domain.Anomaly{}, false
	}

	recentAvg := Mean(values[n-w:])
	prevStart := n - 2*w
	baseAvg := Mean(values[prevStart : n-w])
	a := d.build(merchantID, metric, domain.AnomalyTrendChange, recentAvg, baseAvg, short)
	a.Description = fmt.Sprintf("%s trend turned %s: the last %d days averaged %.2f, %s%.1f%% versus the %d days before, after a %s prior period",
		capitalize(metric.Label()), direction(short), w, recentAvg, signPrefix(short), short, w, priorWord(prior))
	return a, true
}

// explainedBySeasonality 最新值與基準期間同星期幾的平均相差在容忍範圍內時，視為週期性。
func (d *AnomalyDetector) explainedBySeasonality(latest metrics.MetricSample, baseline []metrics.MetricSample) bool {
	var same []float64
	wd := latest.Date.Weekday()
	for _, s := range baseline {
		if s.Date.Weekday() == wd {
			same = append(same, s.Value)
		}
	}
	if len(same) == 0 {
		return false
	}
	avg := Mean(same)
	if avg == 0 {
		return false
	}
	return math.Abs(latest.Value-avg)/math.Abs(avg)*100 <= d.cfg.SeasonalTolerance
}

func (d *AnomalyDetector) build(merchantID string, metric metrics.MetricType, typ domain.AnomalyType, value, expected, deviation float64) domain.Anomaly {
	sev := d.Severity(deviation)
	a := domain.Anomaly{
		ID:            d.newID(),
		MerchantID:    merchantID,
		Metric:        metric,
		Type:          typ,
		Severity:      sev,
		Value:         value,
		ExpectedValue: expected,
		Deviation:     deviation,
		DetectedAt:    d.now(),
		Description:   describeAnomaly(metric, typ, value, expected, deviation),
	}
	if sev == domain.SeverityHigh || sev == domain.SeverityCritical {
		a.Recommendation = anomalyRecommendation(metric, typ)
	}
	return a
}

// Severity 依 |deviation| 分級，門檻遞增所以嚴重度不會隨幅度變大而下降。
func (d *AnomalyDetector) Severity(deviation float64) domain.Severity {
	abs := math.Abs(deviation)
	bands := d.cfg.Severity
	switch {
	case abs >= bands.Critical:
		return domain.SeverityCritical
	case abs >= bands.High:
		return domain.SeverityHigh
	case abs >= bands.Medium:
		return domain.SeverityMedium
	}
	return domain.SeverityLow
}

func describeAnomaly(metric metrics.MetricType, typ domain.AnomalyType, value, expected, deviation float64) string {
	label := capitalize(metric.Label())
	switch typ {
	case domain.AnomalySpike:
		return fmt.Sprintf("%s spiked to %.2f, %.1f%% above the expected %.2f", label, value, deviation, expected)
	case domain.AnomalyDrop:
		return fmt.Sprintf("%s dropped to %.2f, %.1f%% below the expected %.2f", label, value, -deviation, expected)
	}
	return fmt.Sprintf("%s was %.2f, %s%.1f%% %s the expected %.2f and not explained by the usual weekday pattern",
		label, value, signPrefix(deviation), deviation, aboveBelow(deviation), expected)
}

func anomalyRecommendation(metric metrics.MetricType, typ domain.AnomalyType) string {
	label := metric.Label()
	switch typ {
	case domain.AnomalySpike:
		return fmt.Sprintf("Confirm the jump in %s is genuine and check that the cashback budget covers the extra volume.", label)
	case domain.AnomalyDrop:
		return fmt.Sprintf("Investigate the fall in %s: check campaign status, terminal connectivity and recent cashback changes.", label)
	case domain.AnomalyTrendChange:
		return fmt.Sprintf("Review campaign changes made around the turn in %s and adjust offers before the new direction settles.", label)
	}
	return fmt.Sprintf("Look for one-off events or data issues behind the unusual %s reading.", label)
}

func dedupeAnomalies(in []domain.Anomaly) []domain.Anomaly {
	if len(in) == 0 {
		return in
	}
	type key struct {
		metric metrics.MetricType
		typ    domain.AnomalyType
	}
	index := make(map[key]int, len(in))
	out := make([]domain.Anomaly, 0, len(in))
	for _, a := range in {
		k := key{a.Metric, a.Type}
		if i, ok := index[k]; ok {
			if a.Severity.Rank() > out[i].Severity.Rank() {
				out[i] = a
			}
			continue
		}
		index[k] = len(out)
		out = append(out, a)
	}
	return out
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func direction(v float64) string {
	if v < 0 {
		return "down"
	}
	return "up"
}

func priorWord(v float64) string {
	switch sign(v) {
	case 1:
		return "rising"
	case -1:
		return "falling"
	}
	return "flat"
}

func aboveBelow(v float64) string {
	if v < 0 {
		return "below"
	}
	return "above"
}

func signPrefix(v float64) string {
	if v > 0 {
		return "+"
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
