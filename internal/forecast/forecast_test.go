package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

// fakeSales is an in-memory SalesRepository for forecaster tests.
type fakeSales struct {
	daily  []domain.SalesDaily
	hourly map[[2]int][]domain.SalesHourly // key: {hour, dayOfWeek}
	anyDay map[int][]domain.SalesHourly    // key: hour
}

func (f *fakeSales) GetDailyHistory(_ context.Context, _, _ int64, from, to time.Time) ([]domain.SalesDaily, error) {
	var out []domain.SalesDaily
	for _, s := range f.daily {
		if !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSales) GetDailySold(_ context.Context, _, _ int64, date time.Time) (float64, error) {
	for _, s := range f.daily {
		if s.Date.Equal(date) {
			return s.QtySold, nil
		}
	}
	return 0, nil
}

func (f *fakeSales) GetHourlySamples(_ context.Context, _, _ int64, hour, dayOfWeek, limit int) ([]domain.SalesHourly, error) {
	samples := f.hourly[[2]int{hour, dayOfWeek}]
	if len(samples) > limit {
		samples = samples[:limit]
	}
	return samples, nil
}

func (f *fakeSales) GetHourlySamplesAnyDay(_ context.Context, _, _ int64, hour, limit int) ([]domain.SalesHourly, error) {
	samples := f.anyDay[hour]
	if len(samples) > limit {
		samples = samples[:limit]
	}
	return samples, nil
}

// dailyHistory builds n consecutive days of sales ending the day before asOf.
func dailyHistory(asOf time.Time, n int, qty func(date time.Time) float64) []domain.SalesDaily {
	var out []domain.SalesDaily
	for i := n; i >= 1; i-- {
		date := asOf.AddDate(0, 0, -i)
		out = append(out, domain.SalesDaily{Date: date, QtySold: qty(date)})
	}
	return out
}

var asOf = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC) // a Friday

func newForecaster(sales *fakeSales) *Forecaster {
	return NewForecaster(sales, config.DefaultEngineConfig().Forecast)
}

func TestDemandEmptyHistory(t *testing.T) {
	for _, window := range []int{7, 28, 90} {
		cfg := config.DefaultEngineConfig().Forecast
		cfg.WindowDays = window

		f := NewForecaster(&fakeSales{}, cfg)
		fc, err := f.Demand(context.Background(), 1, 1, asOf)
		require.NoError(t, err)

		assert.Zero(t, fc.DailyDemand, "window %d", window)
		assert.Zero(t, fc.DemandStd, "window %d", window)
		assert.Equal(t, ConfidenceLow, fc.Confidence, "window %d", window)
	}
}

func TestWeightedAverageConstant(t *testing.T) {
	values := []float64{7, 7, 7, 7, 7, 7, 7}
	for _, decay := range []float64{0.5, 0.9, 0.95, 0.99} {
		assert.InDelta(t, 7.0, weightedAverage(values, decay), 1e-9, "decay %v", decay)
	}
}

func TestDemandWeekdayWeekendSplit(t *testing.T) {
	sales := &fakeSales{daily: dailyHistory(asOf, 28, func(date time.Time) float64 {
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return 14
		}
		return 7
	})}

	f := newForecaster(sales)
	fc, err := f.Demand(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	assert.InDelta(t, 7.0, fc.WeekdayAvg, 1e-9)
	assert.InDelta(t, 14.0, fc.WeekendAvg, 1e-9)
	// (7*5 + 14*2) / 7 = 9
	assert.InDelta(t, 9.0, fc.DailyDemand, 1e-9)
	assert.Equal(t, ConfidenceHigh, fc.Confidence)
	assert.Equal(t, 28, fc.DataPoints)
}

func TestDataConfidenceThresholds(t *testing.T) {
	cases := []struct {
		samples int
		want    Confidence
	}{
		{28, ConfidenceHigh},
		{23, ConfidenceHigh}, // >= 80% of 28
		{22, ConfidenceMedium},
		{14, ConfidenceMedium}, // >= 50% of 28
		{13, ConfidenceLow},
		{1, ConfidenceLow},
	}
	f := newForecaster(&fakeSales{})
	for _, tc := range cases {
		assert.Equal(t, tc.want, f.dataConfidence(tc.samples), "%d samples", tc.samples)
	}
}

func TestDaysOfCoverSentinel(t *testing.T) {
	f := newForecaster(&fakeSales{})
	for _, onHand := range []float64{0, 1, 500, 100000} {
		assert.Equal(t, 999.0, f.DaysOfCover(DemandForecast{DailyDemand: 0.05}, onHand))
	}
	assert.InDelta(t, 20.0, f.DaysOfCover(DemandForecast{DailyDemand: 5}, 100), 1e-9)
}

func TestStockoutDate(t *testing.T) {
	f := newForecaster(&fakeSales{})

	d := f.StockoutDate(DemandForecast{DailyDemand: 5}, 12, asOf)
	require.NotNil(t, d)
	assert.Equal(t, asOf.AddDate(0, 0, 2), *d)

	assert.Nil(t, f.StockoutDate(DemandForecast{DailyDemand: 0.01}, 12, asOf))
}

func TestReorder(t *testing.T) {
	f := newForecaster(&fakeSales{})
	plan := f.Reorder(DemandForecast{DailyDemand: 5, DemandStd: 2})

	// safety = 5*2 + 2*1.65 = 13.3; reorder = 5*3 + 13.3 = 28.3
	assert.Equal(t, 13.0, plan.SafetyStock)
	assert.Equal(t, 28.0, plan.ReorderPoint)
	assert.Equal(t, 70.0, plan.OrderQty)
	assert.Equal(t, 3, plan.LeadTimeDays)
}

func TestNextNDays(t *testing.T) {
	f := newForecaster(&fakeSales{})
	fc := DemandForecast{WeekdayAvg: 7, WeekendAvg: 14}

	// asOf is a Friday, so the projection starts Saturday.
	days := f.NextNDays(fc, asOf, 4)
	require.Len(t, days, 4)

	assert.True(t, days[0].IsWeekend)
	assert.Equal(t, 14.0, days[0].PredictedDemand)
	assert.True(t, days[1].IsWeekend)
	assert.False(t, days[2].IsWeekend)
	assert.Equal(t, 7.0, days[2].PredictedDemand)
	assert.False(t, days[3].IsWeekend)
}

func TestPopulationStd(t *testing.T) {
	assert.Zero(t, populationStd(nil))
	assert.Zero(t, populationStd([]float64{5}))
	assert.InDelta(t, 2.0, populationStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}
