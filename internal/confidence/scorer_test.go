package confidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/anomaly"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type fakeEvents struct {
	events []domain.AnomalyEvent
}

func (f *fakeEvents) ExistsForDate(context.Context, int64, int64, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeEvents) ListSince(_ context.Context, storeID, skuID int64, since time.Time) ([]domain.AnomalyEvent, error) {
	var out []domain.AnomalyEvent
	for _, e := range f.events {
		if e.StoreID == storeID && e.SKUID == skuID && !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) SaveAll(_ context.Context, events []domain.AnomalyEvent) error {
	f.events = append(f.events, events...)
	return nil
}

type fakeCounts struct {
	latest *domain.CycleCount
}

func (f *fakeCounts) GetLatest(context.Context, int64, int64) (*domain.CycleCount, error) {
	return f.latest, nil
}

type fakeSKUs struct {
	skus map[int64]*domain.SKU
}

func (f *fakeSKUs) GetByID(_ context.Context, id int64) (*domain.SKU, error) {
	sku, ok := f.skus[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sku, nil
}

func (f *fakeSKUs) ListAll(context.Context) ([]domain.SKU, error) { return nil, nil }

func (f *fakeSKUs) ListByCategories(context.Context, []string, int) ([]domain.SKU, error) {
	return nil, nil
}

var asOf = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	events *fakeEvents
	counts *fakeCounts
	skus   *fakeSKUs
	scorer *Scorer
}

func newFixture(perishable bool) *fixture {
	f := &fixture{
		events: &fakeEvents{},
		counts: &fakeCounts{},
		skus: &fakeSKUs{skus: map[int64]*domain.SKU{
			1: {ID: 1, Name: "Chicken Breast", Category: "Proteins", Price: 8.5, IsPerishable: perishable},
		}},
	}
	cfg := config.DefaultEngineConfig()
	detector := anomaly.NewDetector(nil, nil, nil, nil, f.events, cfg.Anomaly)
	f.scorer = NewScorer(f.events, f.counts, f.skus, detector, cfg.Confidence)
	return f
}

func (f *fixture) addEvents(n int, residual float64) {
	for i := 0; i < n; i++ {
		f.events.events = append(f.events.events, domain.AnomalyEvent{
			StoreID: 1, SKUID: 1, Date: asOf.AddDate(0, 0, -i), Residual: residual,
		})
	}
}

func (f *fixture) countedDaysAgo(days int) {
	f.counts.latest = &domain.CycleCount{StoreID: 1, SKUID: 1, Date: asOf.AddDate(0, 0, -days)}
}

func TestScoreCleanHistory(t *testing.T) {
	f := newFixture(false)
	f.countedDaysAgo(0)

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	assert.Equal(t, 100.0, score.Score)
	assert.Equal(t, "A", score.Grade)
	assert.Zero(t, score.AnomalyCount)
	require.NotNil(t, score.DaysSinceCount)
	assert.Zero(t, *score.DaysSinceCount)
	assert.False(t, score.HasSystematicPattern)
}

func TestScoreNeverCounted(t *testing.T) {
	f := newFixture(false)

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	assert.Equal(t, 70.0, score.Score)
	assert.Equal(t, "C", score.Grade)
	assert.Nil(t, score.DaysSinceCount)
}

func TestScoreNeverCountedPerishable(t *testing.T) {
	f := newFixture(true)

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	assert.Equal(t, 60.0, score.Score)
	assert.Equal(t, "D", score.Grade)
}

func TestScoreStalenessIsCapped(t *testing.T) {
	f := newFixture(false)
	f.countedDaysAgo(100) // 100 * 0.3 = 30, capped at 20

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	assert.Equal(t, 80.0, score.Score)
	assert.Equal(t, "B", score.Grade)
	require.NotNil(t, score.DaysSinceCount)
	assert.Equal(t, 100, *score.DaysSinceCount)

	// Staleness and never-counted are mutually exclusive.
	for _, d := range score.Deductions {
		assert.NotContains(t, d.Reason, "Never counted")
	}
}

func TestScorePerishableRecentCountAvoidsPenalty(t *testing.T) {
	f := newFixture(true)
	f.countedDaysAgo(5)

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	// 5 days of staleness costs 1.5; no perishable penalty under 7 days.
	assert.Equal(t, 98.5, score.Score)
	for _, d := range score.Deductions {
		assert.NotContains(t, d.Reason, "Perishable")
	}
}

func TestScoreAnomalyDeductions(t *testing.T) {
	f := newFixture(false)
	f.countedDaysAgo(0)
	f.addEvents(4, -10)

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	// Frequency 4*5=20; magnitude 40*0.5=20 (at cap); fresh count adds 0;
	// all-negative history also trips the shrink pattern for 15 more.
	assert.Equal(t, 45.0, score.Score)
	assert.Equal(t, "F", score.Grade)
	assert.Equal(t, 4, score.AnomalyCount)
	assert.True(t, score.HasSystematicPattern)
}

func TestScoreClampsAtZero(t *testing.T) {
	f := newFixture(true) // never counted
	f.addEvents(20, -30)

	score, err := f.scorer.Score(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	// Caps: frequency 30, magnitude 20, never counted 30, perishable 10,
	// shrink 15. Raw total exceeds 100, score clamps to 0.
	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, "F", score.Grade)
	assert.True(t, score.HasSystematicPattern)
}

func TestScoreUnknownSKU(t *testing.T) {
	f := newFixture(false)

	_, err := f.scorer.Score(context.Background(), 1, 99, asOf)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGradeFor(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {90, "A"},
		{89.9, "B"}, {80, "B"},
		{79, "C"}, {70, "C"},
		{65, "D"}, {60, "D"},
		{59.9, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GradeFor(tc.score), "score %v", tc.score)
	}
}

func TestCountPriority(t *testing.T) {
	high, label := CountPriority(Score{Score: 40}, 250, 8, true)
	assert.Equal(t, "High", label)
	assert.InDelta(t, 0.96, high, 1e-9)

	medium, label := CountPriority(Score{Score: 50}, 500, 2, false)
	assert.Equal(t, "Medium", label)
	assert.InDelta(t, 0.6, medium, 1e-9)

	low, label := CountPriority(Score{Score: 95}, 10, 10, false)
	assert.Equal(t, "Low", label)
	assert.InDelta(t, 0.06, low, 1e-9)
}
