package prep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
)

type fakeSKUs struct {
	skus []domain.SKU
}

func (f *fakeSKUs) GetByID(_ context.Context, id int64) (*domain.SKU, error) {
	for i := range f.skus {
		if f.skus[i].ID == id {
			return &f.skus[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSKUs) ListAll(context.Context) ([]domain.SKU, error) { return f.skus, nil }

func (f *fakeSKUs) ListByCategories(_ context.Context, categories []string, _ int) ([]domain.SKU, error) {
	var out []domain.SKU
	for _, sku := range f.skus {
		for _, c := range categories {
			if sku.Category == c {
				out = append(out, sku)
				break
			}
		}
	}
	return out, nil
}

type fakeInventory struct {
	onHand map[int64]int // skuID -> latest on hand (single-store tests)
}

func (f *fakeInventory) GetOnHand(context.Context, int64, int64, time.Time) (int, bool, error) {
	return 0, false, nil
}

func (f *fakeInventory) GetLatestOnHand(_ context.Context, _, skuID int64) (int, bool, error) {
	qty, ok := f.onHand[skuID]
	return qty, ok, nil
}

func (f *fakeInventory) ListActivePairs(context.Context, time.Time) ([]domain.StorePair, error) {
	return nil, nil
}

// fakeSales serves constant per-hour samples per SKU through the any-day
// fallback path.
type fakeSales struct {
	hourlyQty map[int64]float64 // skuID -> constant qty per hour
}

func (f *fakeSales) GetDailyHistory(context.Context, int64, int64, time.Time, time.Time) ([]domain.SalesDaily, error) {
	return nil, nil
}

func (f *fakeSales) GetDailySold(context.Context, int64, int64, time.Time) (float64, error) {
	return 0, nil
}

func (f *fakeSales) GetHourlySamples(context.Context, int64, int64, int, int, int) ([]domain.SalesHourly, error) {
	return nil, nil
}

func (f *fakeSales) GetHourlySamplesAnyDay(_ context.Context, _, skuID int64, _, limit int) ([]domain.SalesHourly, error) {
	qty, ok := f.hourlyQty[skuID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.SalesHourly, limit)
	for i := range out {
		out[i] = domain.SalesHourly{SKUID: skuID, QtySold: qty}
	}
	return out, nil
}

type fixture struct {
	skus      *fakeSKUs
	inventory *fakeInventory
	sales     *fakeSales
	generator *Generator
}

func newFixture() *fixture {
	cfg := config.DefaultEngineConfig()
	f := &fixture{
		skus:      &fakeSKUs{},
		inventory: &fakeInventory{onHand: map[int64]int{}},
		sales:     &fakeSales{hourlyQty: map[int64]float64{}},
	}
	hourly := forecast.NewHourlyForecaster(f.sales, forecast.NoopCache{}, cfg.Hourly)
	f.generator = NewGenerator(f.skus, f.inventory, hourly, cfg.Prep)
	return f
}

func (f *fixture) addSKU(id int64, name, category string, onHand int, hourlyDemand float64) {
	f.skus.skus = append(f.skus.skus, domain.SKU{ID: id, Name: name, Category: category})
	f.inventory.onHand[id] = onHand
	f.sales.hourlyQty[id] = hourlyDemand
}

func at(hour int) time.Time {
	return time.Date(2024, 6, 14, hour, 0, 0, 0, time.UTC)
}

func TestScheduleEmitsBeforeStockout(t *testing.T) {
	f := newFixture()
	// 25 on hand, 10 sold per hour starting at 8: the walk crosses zero at
	// hour 10, so prep is due at 8:30.
	f.addSKU(1, "Chicken Breast", "Proteins", 25, 10)

	recs, err := f.generator.Schedule(context.Background(), 1, at(8))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, int64(1), rec.SKUID)
	assert.Equal(t, PriorityHigh, rec.Priority)
	assert.Equal(t, time.Date(2024, 6, 14, 8, 30, 0, 0, time.UTC), rec.PrepTime)
	assert.Equal(t, domain.PrepPending, rec.Status)
	assert.Contains(t, rec.Reason, "Will run out at 10:30 AM")
	assert.Contains(t, rec.Reason, "Prep by 8:30 AM")

	// Quantity covers hours 10 and 11 (lunch-buffered) plus 10%:
	// (10 + 11.5) * 1.1 = 23.65, truncated.
	assert.Equal(t, 23, rec.QtyToPrep)
}

func TestScheduleCriticalDuringPeak(t *testing.T) {
	f := newFixture()
	// 30 on hand from 10:00: hours 10, 11, 12 take 10 + 11.5 + 11.5, so
	// the stockout lands mid-lunch.
	f.addSKU(1, "Salsa Verde", "Salsas & Sauces", 30, 10)

	recs, err := f.generator.Schedule(context.Background(), 1, at(10))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, PriorityCritical, recs[0].Priority)
	assert.Contains(t, recs[0].Reason, "during lunch rush")
	assert.Contains(t, recs[0].Reason, "Prep immediately")
}

func TestScheduleSkipsHighOnHand(t *testing.T) {
	f := newFixture()
	f.addSKU(1, "Chicken Breast", "Proteins", 150, 10)

	recs, err := f.generator.Schedule(context.Background(), 1, at(8))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestScheduleSkipsNonCriticalCategories(t *testing.T) {
	f := newFixture()
	f.addSKU(1, "Paper Napkins", "Supplies", 5, 10)

	recs, err := f.generator.Schedule(context.Background(), 1, at(8))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestScheduleSkipsClosedPrepWindow(t *testing.T) {
	f := newFixture()
	// Stockout lands in the current hour, so the prep time is already past.
	f.addSKU(1, "Chicken Breast", "Proteins", 5, 10)

	recs, err := f.generator.Schedule(context.Background(), 1, at(9))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestScheduleSkipsNoPredictedStockout(t *testing.T) {
	f := newFixture()
	f.addSKU(1, "Pico de Gallo", "Produce", 90, 1)

	recs, err := f.generator.Schedule(context.Background(), 1, at(8))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestScheduleSortedByPrepTime(t *testing.T) {
	f := newFixture()
	f.addSKU(1, "Chicken Breast", "Proteins", 60, 10) // runs out later
	f.addSKU(2, "Guacamole", "Produce", 30, 10)       // runs out sooner

	recs, err := f.generator.Schedule(context.Background(), 1, at(8))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, int64(2), recs[0].SKUID)
	assert.Equal(t, int64(1), recs[1].SKUID)
	assert.True(t, recs[0].PrepTime.Before(recs[1].PrepTime))
}

func TestScheduleMissingOnHandTreatedAsZero(t *testing.T) {
	f := newFixture()
	f.skus.skus = append(f.skus.skus, domain.SKU{ID: 1, Name: "Carnitas", Category: "Proteins"})
	f.sales.hourlyQty[1] = 10

	recs, err := f.generator.Schedule(context.Background(), 1, at(8))
	require.NoError(t, err)
	// Zero on hand stocks out in the first walked hour; the prep window is
	// already closed, so nothing is emitted.
	assert.Empty(t, recs)
}
