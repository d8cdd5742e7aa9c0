package insights

import (
	"math"
	"time"

	"kaching-analytics/internal/domain/metrics"
)

// Clean drops NaN and ±Inf values. Negative values are kept as-is.
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SeriesValues extracts the finite values of samples in order.
func SeriesValues(samples []metrics.MetricSample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Finite() {
			out = append(out, s.Value)
		}
	}
	return out
}

// Sum adds all finite values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range Clean(values) {
		total += v
	}
	return total
}

// Mean returns 0 on an empty input.
func Mean(values []float64) float64 {
	v := Clean(values)
	if len(v) == 0 {
		return 0
	}
	return Sum(v) / float64(len(v))
}

// StdDev is the sample standard deviation (n-1); 0 when fewer than two values.
func StdDev(values []float64) float64 {
	v := Clean(values)
	if len(v) < 2 {
		return 0
	}
	avg := Mean(v)
	var sumSq float64
	for _, x := range v {
		d := x - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(v)-1))
}

// Trend compares the mean of the last recent values with the mean of the baseline
// values right before them, as a ratio of the baseline magnitude. With fewer than
// recent+baseline points the baseline shrinks to whatever precedes the recent window.
// Returns 0 when there are fewer than recent+1 points or the baseline mean is 0.
func Trend(values []float64, recent, baseline int) float64 {
	v := Clean(values)
	n := len(v)
	if recent <= 0 || baseline <= 0 || n < recent+1 {
		return 0
	}
	start := n - recent - baseline
	if start < 0 {
		start = 0
	}
	baseAvg := Mean(v[start : n-recent])
	if baseAvg == 0 {
		return 0
	}
	return (Mean(v[n-recent:]) - baseAvg) / math.Abs(baseAvg)
}

// WeekdayAverage averages finite samples dated Monday to Friday.
func WeekdayAverage(samples []metrics.MetricSample) float64 {
	return Mean(SeriesValues(filterDays(samples, false)))
}

// WeekendAverage averages finite samples dated Saturday or Sunday.
func WeekendAverage(samples []metrics.MetricSample) float64 {
	return Mean(SeriesValues(filterDays(samples, true)))
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func filterDays(samples []metrics.MetricSample, weekend bool) []metrics.MetricSample {
	out := make([]metrics.MetricSample, 0, len(samples))
	for _, s := range samples {
		if isWeekend(s.Date) == weekend {
			out = append(out, s)
		}
	}
	return out
}

func finiteSamples(samples []metrics.MetricSample) []metrics.MetricSample {
	out := make([]metrics.MetricSample, 0, len(samples))
	for _, s := range samples {
		if s.Finite() {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
