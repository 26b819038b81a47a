package acquisition

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altcoin-leadlag/internal/cache"
	"altcoin-leadlag/internal/domain"
)

type fakeMarket struct {
	caps  map[string][]domain.Observation
	total []domain.Observation
	calls atomic.Int32
	err   error
}

func (f *fakeMarket) MarketCapRange(_ context.Context, coinID string, _, _ time.Time) ([]domain.Observation, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.caps[coinID], nil
}

func (f *fakeMarket) GlobalMarketCapRange(_ context.Context, _, _ time.Time) ([]domain.Observation, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.total, nil
}

type fakeMacro struct {
	rets []domain.Observation
}

func (f *fakeMacro) Returns(_ context.Context, _, _ time.Time) ([]domain.Observation, error) {
	return f.rets, nil
}

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday

// fixture builds 14 daily points. ETH is missing on Jan 14 and the macro proxy
// only trades on weekdays.
func fixture() (*fakeMarket, *fakeMacro) {
	m := &fakeMarket{caps: map[string][]domain.Observation{}}
	macro := &fakeMacro{}
	for i := 0; i < 14; i++ {
		d := jan1.AddDate(0, 0, i)
		m.caps["bitcoin"] = append(m.caps["bitcoin"], domain.Observation{Time: d, Value: 100 + float64(i)})
		if i != 13 {
			m.caps["ethereum"] = append(m.caps["ethereum"], domain.Observation{Time: d, Value: 50})
		}
		// global chart points arrive a few minutes past midnight
		m.total = append(m.total, domain.Observation{Time: d.Add(5 * time.Minute), Value: 300 + float64(i)})
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			macro.rets = append(macro.rets, domain.Observation{Time: d.Add(14 * time.Hour), Value: float64(i) / 100})
		}
	}
	return m, macro
}

func TestBuild_WeeklyAlignment(t *testing.T) {
	market, macro := fixture()
	b := NewBuilder(market, macro, nil, nil, nil)

	rows, err := b.Build(context.Background(), Params{Start: jan1, End: jan1.AddDate(0, 0, 13), Frequency: domain.FrequencyWeekly})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Week ending Sun Jan 7: last day is i=6.
	first := rows[0]
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 106.0, first.BTCCap)
	assert.Equal(t, 50.0, first.ETHCap)
	assert.Equal(t, 306.0, first.TotalCap)
	assert.Equal(t, 150.0, first.OthersCap)
	assert.InDelta(t, 106.0/306.0, first.BTCDom, 1e-12)
	assert.InDelta(t, 50.0/306.0, first.ETHDom, 1e-12)
	// Friday Jan 5 is the last macro value of the week.
	assert.InDelta(t, 0.04, first.MacroReturn, 1e-12)

	// Week ending Sun Jan 14: ETH missing on the 14th, so the 13th is last.
	second := rows[1]
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, 112.0, second.BTCCap)
	assert.Equal(t, 312.0, second.TotalCap)
	assert.InDelta(t, 0.11, second.MacroReturn, 1e-12)
}

func TestBuild_DailyDropsDaysWithoutMacro(t *testing.T) {
	market, macro := fixture()
	b := NewBuilder(market, macro, nil, nil, nil)

	rows, err := b.Build(context.Background(), Params{Start: jan1, End: jan1.AddDate(0, 0, 13), Frequency: domain.FrequencyDaily})
	require.NoError(t, err)

	// 13 common days minus 3 weekend days (6, 7, 13 Jan).
	require.Len(t, rows, 10)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].Date.After(rows[i-1].Date), "dates must be strictly increasing")
	}
	for _, r := range rows {
		wd := r.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}

func TestBuild_UsesRawCache(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	market, macro := fixture()
	b := NewBuilder(market, macro, store, nil, nil)
	params := Params{Start: jan1, End: jan1.AddDate(0, 0, 13), Frequency: domain.FrequencyWeekly}

	first, err := b.Build(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int32(3), market.calls.Load())

	market.err = errors.New("provider down")
	second, err := b.Build(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(3), market.calls.Load(), "second build should not hit the provider")
}

func TestBuild_FetchErrorAborts(t *testing.T) {
	market, macro := fixture()
	market.err = errors.New("429")
	b := NewBuilder(market, macro, nil, nil, nil)

	_, err := b.Build(context.Background(), Params{Start: jan1, End: jan1.AddDate(0, 0, 13), Frequency: domain.FrequencyWeekly})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

type blockingMacro struct{}

func (blockingMacro) Returns(ctx context.Context, _, _ time.Time) ([]domain.Observation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBuild_FetchErrorCancelsOtherSeries(t *testing.T) {
	market, _ := fixture()
	market.err = errors.New("503")
	b := NewBuilder(market, blockingMacro{}, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := b.Build(ctx, Params{Start: jan1, End: jan1.AddDate(0, 0, 13), Frequency: domain.FrequencyWeekly})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.NoError(t, ctx.Err(), "build must return before the caller's deadline")
}

func TestBuild_NoOverlap(t *testing.T) {
	market, macro := fixture()
	market.caps["ethereum"] = nil
	b := NewBuilder(market, macro, nil, nil, nil)

	_, err := b.Build(context.Background(), Params{Start: jan1, End: jan1.AddDate(0, 0, 13), Frequency: domain.FrequencyWeekly})
	assert.ErrorIs(t, err, ErrEmptyMaster)
}
