package stats

import (
	"math"
	"testing"

	"github.com/agentsettlement/settlebench/bench/internal/testutil"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single value p05", []float64{100}, 0.05, 100},
		{"single value p95", []float64{100}, 0.95, 100},
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"median even interpolates", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p95 interpolates", []float64{10, 20, 30, 40, 50}, 0.95, 48},
		{"p05 interpolates", []float64{10, 20, 30, 40, 50}, 0.05, 12},
		{"clamped low", []float64{1, 2}, -1, 1},
		{"clamped high", []float64{1, 2}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertFloat64Equal(t, "percentile", tt.want, Percentile(tt.values, tt.p), 1e-12)
		})
	}
}

func TestPercentile_DoesNotSortInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Percentile(in, 0.5)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestSampleStdDev(t *testing.T) {
	if got := SampleStdDev([]float64{42}); got != 0 {
		t.Errorf("SampleStdDev(single) = %v, want 0", got)
	}
	if got := SampleStdDev(nil); got != 0 {
		t.Errorf("SampleStdDev(nil) = %v, want 0", got)
	}
	// n-1 denominator: variance of {2,4,4,4,5,5,7,9} is 32/7.
	testutil.AssertFloat64Equal(t, "stddev", math.Sqrt(32.0/7), SampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestRound(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{55.5555, 1, 55.6},
		{2.25, 1, 2.3},
		{-2.25, 1, -2.3},
		{66.666666, 2, 66.67},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.decimals); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1, 0); got != 0 {
		t.Errorf("Percent(1, 0) = %v, want 0", got)
	}
	testutil.AssertFloat64Equal(t, "percent", 25, Percent(1, 4), 1e-12)
}

func TestNewDistribution(t *testing.T) {
	if d := NewDistribution(nil); d != (Distribution{}) {
		t.Errorf("NewDistribution(nil) = %+v, want zero", d)
	}

	d := NewDistribution([]float64{50, 10, 30, 20, 40})
	if d.Count != 5 {
		t.Errorf("Count = %d, want 5", d.Count)
	}
	testutil.AssertFloat64Equal(t, "mean", 30, d.Mean, 1e-12)
	testutil.AssertFloat64Equal(t, "p05", 12, d.P05, 1e-12)
	testutil.AssertFloat64Equal(t, "p50", 30, d.P50, 1e-12)
	testutil.AssertFloat64Equal(t, "p95", 48, d.P95, 1e-12)

	r := NewDistribution([]float64{1, 2}).Rounded(1)
	if r.StdDev != 0.7 {
		t.Errorf("Rounded StdDev = %v, want 0.7", r.StdDev)
	}
}
