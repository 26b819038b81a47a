package modeling

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/series"
)

// CorrelationMatrix holds pairwise Pearson correlations.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64 // Values[i][j] = corr(Columns[i], Columns[j]); NaN when undefined
}

// At returns the correlation of columns a and b.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// Correlations computes the Pearson correlation of every column pair, using
// the rows where both columns are defined.
func Correlations(rows []domain.FactorRow, columns []string) (*CorrelationMatrix, error) {
	data, err := Columns(rows, columns)
	if err != nil {
		return nil, err
	}

	m := &CorrelationMatrix{
		Columns: append([]string(nil), columns...),
		Values:  make([][]float64, len(columns)),
	}
	for i := range columns {
		m.Values[i] = make([]float64, len(columns))
	}
	for i, a := range columns {
		for j := i; j < len(columns); j++ {
			x, y := pairwise(data[a], data[columns[j]])
			v := pearson(x, y)
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m, nil
}

// RollingPoint is one value of a rolling statistic.
type RollingPoint struct {
	Date  time.Time
	Value *float64 // nil until the window is full or when undefined
}

// RollingCorrelation computes the Pearson correlation of columns a and b over
// a trailing window. A window containing an undefined value yields nil.
func RollingCorrelation(rows []domain.FactorRow, a, b string, window int) ([]RollingPoint, error) {
	if window < 2 {
		return nil, fmt.Errorf("rolling window must be at least 2, got %d", window)
	}
	data, err := Columns(rows, []string{a, b})
	if err != nil {
		return nil, err
	}
	x, y := data[a], data[b]

	out := make([]RollingPoint, len(rows))
	for i := range rows {
		out[i].Date = rows[i].Date
		if i+1 < window {
			continue
		}
		wx, wy := x[i+1-window:i+1], y[i+1-window:i+1]
		if series.CountDefined(wx) < window || series.CountDefined(wy) < window {
			continue
		}
		out[i].Value = series.Ptr(pearson(wx, wy))
	}
	return out, nil
}

func pairwise(a, b []float64) ([]float64, []float64) {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if series.Defined(a[i]) && series.Defined(b[i]) {
			x = append(x, a[i])
			y = append(y, b[i])
		}
	}
	return x, y
}

// pearson is NaN for fewer than two points or a constant series.
func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
