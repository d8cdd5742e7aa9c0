package insights

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanAndSum(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Fatalf("mean of empty = %v", got)
	}
	vals := []float64{1, 2, math.NaN(), 3, math.Inf(1)}
	if got := Sum(vals); got != 6 {
		t.Fatalf("sum = %v, want 6", got)
	}
	if got := Mean(vals); got != 2 {
		t.Fatalf("mean = %v, want 2", got)
	}
}

func TestStdDevUsesSampleVariance(t *testing.T) {
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if !approx(got, want) {
		t.Fatalf("stddev = %v, want %v", got, want)
	}
	if StdDev([]float64{5}) != 0 {
		t.Fatalf("single value should have zero stddev")
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		recent   int
		baseline int
		want     float64
	}{
		{"too short", []float64{100}, 1, 1, 0},
		{"zero baseline", []float64{0, 0, 5}, 1, 2, 0},
		{"day over day", []float64{100, 110}, 1, 1, 0.1},
		{"week over week", concat(repeat(100, 7), repeat(120, 7)), 7, 7, 0.2},
		{"shrunk baseline", concat(repeat(100, 3), repeat(50, 7)), 7, 7, -0.5},
		{"negative baseline", []float64{-100, -50}, 1, 1, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.values, tt.recent, tt.baseline); !approx(got, tt.want) {
				t.Fatalf("trend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekdayWeekendAverage(t *testing.T) {
	samples := weekly(14, 120, 50)
	if got := WeekdayAverage(samples); got != 120 {
		t.Fatalf("weekday avg = %v", got)
	}
	if got := WeekendAverage(samples); got != 50 {
		t.Fatalf("weekend avg = %v", got)
	}
	if got := WeekendAverage(daily(1, 2, 3)); got != 0 {
		t.Fatalf("no weekend samples should average 0, got %v", got)
	}
}

func TestClean(t *testing.T) {
	got := Clean([]float64{-1, math.NaN(), math.Inf(-1), 2})
	if len(got) != 2 || got[0] != -1 || got[1] != 2 {
		t.Fatalf("clean = %v", got)
	}
}
