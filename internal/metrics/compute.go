// Package metrics summarises factor columns: moments, percentiles and
// path statistics of the running sum.
package metrics

import (
	"math"
	"sort"

	"altcoin-leadlag/internal/domain"
)

// summarize computes the summary of values, which are in date order.
func summarize(column string, values []float64, missing int) domain.ColumnSummary {
	n := len(values)
	s := domain.ColumnSummary{Column: column, Count: n, Missing: missing}
	if n == 0 {
		return s
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean = computeMean(values)
	s.Stddev = computeStddev(values, s.Mean)
	s.Min = sorted[0]
	s.P10 = computePercentile(sorted, 0.10)
	s.Median = computePercentile(sorted, 0.50)
	s.P90 = computePercentile(sorted, 0.90)
	s.Max = sorted[n-1]
	s.PositiveShare = computePositiveShare(values)
	s.MaxDrawdown = computeMaxDrawdown(values)
	s.MaxNegativeStreak = computeMaxNegativeStreak(values)
	return s
}

func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation between closest ranks.
// sorted must be ascending; p is in [0, 1].
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func computePositiveShare(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	pos := 0
	for _, v := range values {
		if v > 0 {
			pos++
		}
	}
	return float64(pos) / float64(len(values))
}

// computeMaxDrawdown returns MAX(peak - trough) of the running sum, peak starting at 0.
// values must be in date order.
func computeMaxDrawdown(values []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, v := range values {
		cumulative += v
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeMaxNegativeStreak finds the longest streak of values <= 0.
func computeMaxNegativeStreak(values []float64) int {
	maxStreak := 0
	current := 0
	for _, v := range values {
		if v <= 0 {
			current++
			if current > maxStreak {
				maxStreak = current
			}
		} else {
			current = 0
		}
	}
	return maxStreak
}
