// Package stats holds the small numeric helpers shared by scoring and
// bootstrap aggregation. All functions are pure and safe for empty input.
package stats

import (
	"math"
	"sort"
)

// Percent returns 100*part/total, or 0 when total is 0.
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Round rounds v to the given number of decimals, halves away from zero.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev returns the n-1 standard deviation; 0 when n <= 1.
func SampleStdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	avg := Mean(values)
	ss := 0.0
	for _, v := range values {
		ss += (v - avg) * (v - avg)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// Percentile returns the p-quantile (p in [0,1], clamped) using linear
// interpolation between order statistics. Input need not be sorted and is
// not modified. Empty input yields 0; a single value is returned for every p.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	p = math.Max(0, math.Min(1, p))
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Distribution captures the statistical summary of one metric across
// bootstrap trials.
type Distribution struct {
	Mean   float64
	StdDev float64
	P05    float64
	P50    float64
	P95    float64
	Count  int
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean:   Mean(values),
		StdDev: SampleStdDev(values),
		P05:    percentileSorted(sorted, 0.05),
		P50:    percentileSorted(sorted, 0.50),
		P95:    percentileSorted(sorted, 0.95),
		Count:  len(values),
	}
}

// Rounded returns a copy with every statistic rounded to decimals.
func (d Distribution) Rounded(decimals int) Distribution {
	return Distribution{
		Mean:   Round(d.Mean, decimals),
		StdDev: Round(d.StdDev, decimals),
		P05:    Round(d.P05, decimals),
		P50:    Round(d.P50, decimals),
		P95:    Round(d.P95, decimals),
		Count:  d.Count,
	}
}
