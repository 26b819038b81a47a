package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"altcoin-leadlag/internal/domain"
)

// Table is a set of equally long columns sharing one time index.
type Table struct {
	Index   []time.Time
	Columns map[string][]float64
}

// Column returns the named column or nil.
func (t *Table) Column(name string) []float64 {
	return t.Columns[name]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Index)
}

// DayOf truncates t to midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BucketOf returns the resampling bucket label for t.
// Daily buckets are the calendar day; weekly buckets are labelled by the Sunday ending the week.
func BucketOf(t time.Time, freq domain.Frequency) time.Time {
	day := DayOf(t)
	if freq != domain.FrequencyWeekly {
		return day
	}
	offset := (7 - int(day.Weekday())) % 7
	return day.AddDate(0, 0, offset)
}

// Dedupe sorts observations by time and keeps the last value for duplicate timestamps.
func Dedupe(obs []domain.Observation) []domain.Observation {
	sorted := make([]domain.Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := make([]domain.Observation, 0, len(sorted))
	for _, o := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(o.Time) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}

// InnerJoin aligns named series on identical timestamps.
// Only timestamps present in every series are kept.
func InnerJoin(named map[string][]domain.Observation) *Table {
	counts := make(map[int64]int)
	values := make(map[string]map[int64]float64, len(named))
	for name, obs := range named {
		byTs := make(map[int64]float64, len(obs))
		for _, o := range Dedupe(obs) {
			byTs[o.Time.UnixNano()] = o.Value
		}
		for ts := range byTs {
			counts[ts]++
		}
		values[name] = byTs
	}

	var stamps []int64
	for ts, c := range counts {
		if c == len(named) {
			stamps = append(stamps, ts)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	t := &Table{
		Index:   make([]time.Time, len(stamps)),
		Columns: make(map[string][]float64, len(named)),
	}
	for i, ts := range stamps {
		t.Index[i] = time.Unix(0, ts).UTC()
	}
	for name, byTs := range values {
		col := make([]float64, len(stamps))
		for i, ts := range stamps {
			col[i] = byTs[ts]
		}
		t.Columns[name] = col
	}
	return t
}

// LeftJoinByDay adds a column to t by matching calendar days (UTC).
// Rows without a matching day get an undefined value.
func (t *Table) LeftJoinByDay(name string, obs []domain.Observation) {
	byDay := make(map[time.Time]float64, len(obs))
	for _, o := range Dedupe(obs) {
		byDay[DayOf(o.Time)] = o.Value
	}
	col := make([]float64, len(t.Index))
	for i, ts := range t.Index {
		if v, ok := byDay[DayOf(ts)]; ok {
			col[i] = v
		} else {
			col[i] = math.NaN()
		}
	}
	t.Columns[name] = col
}

// Resample buckets rows to freq, taking the last defined value of each column
// within a bucket. The result index is strictly increasing.
func (t *Table) Resample(freq domain.Frequency) (*Table, error) {
	if !freq.Valid() {
		return nil, fmt.Errorf("unsupported frequency %q", freq)
	}

	out := &Table{Columns: make(map[string][]float64, len(t.Columns))}
	for name := range t.Columns {
		out.Columns[name] = nil
	}

	bucketRow := -1
	var current time.Time
	for i, ts := range t.Index {
		b := BucketOf(ts, freq)
		if bucketRow < 0 || !b.Equal(current) {
			current = b
			bucketRow++
			out.Index = append(out.Index, b)
			for name := range out.Columns {
				out.Columns[name] = append(out.Columns[name], math.NaN())
			}
		}
		for name, col := range t.Columns {
			if Defined(col[i]) {
				out.Columns[name][bucketRow] = col[i]
			}
		}
	}
	return out, nil
}

// DropUndefined removes rows where any of the given columns is undefined.
// With no columns given, every column is checked.
func (t *Table) DropUndefined(columns ...string) *Table {
	if len(columns) == 0 {
		for name := range t.Columns {
			columns = append(columns, name)
		}
	}

	keep := make([]int, 0, len(t.Index))
	for i := range t.Index {
		ok := true
		for _, name := range columns {
			col, exists := t.Columns[name]
			if !exists || !Defined(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	out := &Table{
		Index:   make([]time.Time, len(keep)),
		Columns: make(map[string][]float64, len(t.Columns)),
	}
	for j, i := range keep {
		out.Index[j] = t.Index[i]
	}
	for name, col := range t.Columns {
		c := make([]float64, len(keep))
		for j, i := range keep {
			c[j] = col[i]
		}
		out.Columns[name] = c
	}
	return out
}
