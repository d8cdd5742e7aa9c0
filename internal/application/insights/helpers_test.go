package insights

import (
	"strconv"
	"time"

	"kaching-analytics/internal/domain/metrics"
)

// 2024-01-01 為星期一。
var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func daily(values ...float64) []metrics.MetricSample {
	out := make([]metrics.MetricSample, len(values))
	for i, v := range values {
		out[i] = metrics.MetricSample{Date: day0.AddDate(0, 0, i), Value: v}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// weekly 依星期產生 n 天資料：平日 weekday、週末 weekend。
func weekly(n int, weekday, weekend float64) []metrics.MetricSample {
	out := make([]metrics.MetricSample, n)
	for i := range out {
		d := day0.AddDate(0, 0, i)
		v := weekday
		if isWeekend(d) {
			v = weekend
		}
		out[i] = metrics.MetricSample{Date: d, Value: v}
	}
	return out
}

func scale(samples []metrics.MetricSample, k float64) []metrics.MetricSample {
	out := make([]metrics.MetricSample, len(samples))
	for i, s := range samples {
		out[i] = metrics.MetricSample{Date: s.Date, Value: s.Value * k}
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
}

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}
