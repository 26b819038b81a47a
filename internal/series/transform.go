// Package series provides column transforms over aligned float64 series.
// Undefined values are represented as NaN and propagate through every transform.
package series

import "math"

// NaN returns the undefined marker.
func NaN() float64 { return math.NaN() }

// Defined reports whether v is a finite value.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Ratio divides num by den elementwise.
// A zero or undefined denominator yields an undefined value.
func Ratio(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		if i >= len(den) || !Defined(num[i]) || !Defined(den[i]) || den[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out
}

// PctChange returns x[t]/x[t-1] - 1. The first value is always undefined,
// as is any value whose predecessor is undefined or zero.
func PctChange(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		prev := x[i-1]
		if !Defined(prev) || !Defined(x[i]) || prev == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i]/prev - 1
	}
	return out
}

// Diff returns x[t] - x[t-1]; the first value is undefined.
func Diff(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i == 0 || !Defined(x[i]) || !Defined(x[i-1]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i] - x[i-1]
	}
	return out
}

// RollingMean returns the simple moving average over a trailing window.
// The first window-1 values are undefined, as is any window containing an undefined value.
func RollingMean(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = math.NaN()
		if window <= 0 || i < window-1 {
			continue
		}
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if !Defined(x[j]) {
				ok = false
				break
			}
			sum += x[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// Shift moves values k periods forward (k > 0 lags the series).
// Vacated positions are undefined.
func Shift(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		j := i - k
		if j < 0 || j >= len(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[j]
	}
	return out
}

// FillUndefined replaces undefined values with v.
func FillUndefined(x []float64, v float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if Defined(x[i]) {
			out[i] = x[i]
		} else {
			out[i] = v
		}
	}
	return out
}

// CountDefined returns the number of defined values in x.
func CountDefined(x []float64) int {
	n := 0
	for _, v := range x {
		if Defined(v) {
			n++
		}
	}
	return n
}

// Ptr converts a value to a nullable pointer: nil when undefined.
func Ptr(v float64) *float64 {
	if !Defined(v) {
		return nil
	}
	return &v
}

// FromPtr converts a nullable pointer back to a value, NaN when nil.
func FromPtr(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
