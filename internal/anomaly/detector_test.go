package anomaly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type snapshotKey struct {
	storeID, skuID int64
	date           string
}

func key(storeID, skuID int64, date time.Time) snapshotKey {
	return snapshotKey{storeID, skuID, date.Format("2006-01-02")}
}

type fakeInventory struct {
	snapshots map[snapshotKey]int
	pairs     []domain.StorePair
}

func (f *fakeInventory) GetOnHand(_ context.Context, storeID, skuID int64, date time.Time) (int, bool, error) {
	qty, ok := f.snapshots[key(storeID, skuID, date)]
	return qty, ok, nil
}

func (f *fakeInventory) GetLatestOnHand(context.Context, int64, int64) (int, bool, error) {
	return 0, false, nil
}

func (f *fakeInventory) ListActivePairs(context.Context, time.Time) ([]domain.StorePair, error) {
	return f.pairs, nil
}

type fakeSales struct {
	sold map[snapshotKey]float64
}

func (f *fakeSales) GetDailySold(_ context.Context, storeID, skuID int64, date time.Time) (float64, error) {
	return f.sold[key(storeID, skuID, date)], nil
}

func (f *fakeSales) GetDailyHistory(context.Context, int64, int64, time.Time, time.Time) ([]domain.SalesDaily, error) {
	return nil, nil
}

func (f *fakeSales) GetHourlySamples(context.Context, int64, int64, int, int, int) ([]domain.SalesHourly, error) {
	return nil, nil
}

func (f *fakeSales) GetHourlySamplesAnyDay(context.Context, int64, int64, int, int) ([]domain.SalesHourly, error) {
	return nil, nil
}

type fakeReceipts struct {
	received map[snapshotKey]float64
}

func (f *fakeReceipts) GetReceived(_ context.Context, storeID, skuID int64, date time.Time) (float64, error) {
	return f.received[key(storeID, skuID, date)], nil
}

type fakeTransfers struct {
	in  map[snapshotKey]float64
	out map[snapshotKey]float64
}

func (f *fakeTransfers) SumReceivedInto(_ context.Context, toStoreID, skuID int64, date time.Time) (float64, error) {
	return f.in[key(toStoreID, skuID, date)], nil
}

func (f *fakeTransfers) SumOutboundCreated(_ context.Context, fromStoreID, skuID int64, date time.Time) (float64, error) {
	return f.out[key(fromStoreID, skuID, date)], nil
}

func (f *fakeTransfers) Create(context.Context, *domain.Transfer) (int64, error) {
	return 0, nil
}

type fakeEvents struct {
	events []domain.AnomalyEvent
}

func (f *fakeEvents) ExistsForDate(_ context.Context, storeID, skuID int64, date time.Time) (bool, error) {
	for _, e := range f.events {
		if e.StoreID == storeID && e.SKUID == skuID && e.Date.Format("2006-01-02") == date.Format("2006-01-02") {
			return true, nil
		}
	}
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

var scanDate = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	inventory *fakeInventory
	sales     *fakeSales
	receipts  *fakeReceipts
	transfers *fakeTransfers
	events    *fakeEvents
	detector  *Detector
}

func newFixture() *fixture {
	f := &fixture{
		inventory: &fakeInventory{snapshots: map[snapshotKey]int{}},
		sales:     &fakeSales{sold: map[snapshotKey]float64{}},
		receipts:  &fakeReceipts{received: map[snapshotKey]float64{}},
		transfers: &fakeTransfers{in: map[snapshotKey]float64{}, out: map[snapshotKey]float64{}},
		events:    &fakeEvents{},
	}
	f.detector = NewDetector(f.inventory, f.sales, f.receipts, f.transfers, f.events, config.DefaultEngineConfig().Anomaly)
	return f
}

func (f *fixture) setDay(storeID, skuID int64, yesterday, today int) {
	f.inventory.snapshots[key(storeID, skuID, scanDate.AddDate(0, 0, -1))] = yesterday
	f.inventory.snapshots[key(storeID, skuID, scanDate)] = today
}

func TestClassifySeverity(t *testing.T) {
	cases := []struct {
		residual float64
		want     string
	}{
		{-25, SeverityCritical},
		{-20, SeverityHigh}, // strict bound: -20 is not < -20
		{-17, SeverityHigh},
		{-15, SeverityMedium},
		{-12, SeverityMedium},
		{-10, SeverityLow},
		{-6, SeverityLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifySeverity(tc.residual), "residual %v", tc.residual)
	}
}

func TestDetectThresholdIsStrict(t *testing.T) {
	f := newFixture()
	// Actual -15 vs expected -10: residual exactly -5 does not cross the
	// strict threshold.
	f.setDay(1, 1, 100, 85)
	f.sales.sold[key(1, 1, scanDate)] = 10

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	assert.Nil(t, finding)
}

func TestDetectMissingSnapshot(t *testing.T) {
	f := newFixture()
	f.inventory.snapshots[key(1, 1, scanDate)] = 50 // no yesterday snapshot

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	assert.Nil(t, finding)
}

func TestDetectShrinkDuringSales(t *testing.T) {
	f := newFixture()
	f.setDay(1, 1, 100, 82)
	f.sales.sold[key(1, 1, scanDate)] = 10

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	require.NotNil(t, finding)

	assert.Equal(t, -8.0, finding.Residual)
	assert.Equal(t, SeverityLow, finding.Severity)
	assert.Contains(t, finding.Explanation, "Possible shrink, unrecorded sales, or theft")
	assert.Contains(t, finding.Explanation, "Missing 8 units")
}

func TestDetectReceivingError(t *testing.T) {
	f := newFixture()
	// 20 received, inventory only rose by 8.
	f.setDay(1, 1, 100, 108)
	f.receipts.received[key(1, 1, scanDate)] = 20

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	require.NotNil(t, finding)

	assert.Equal(t, -12.0, finding.Residual)
	assert.Equal(t, SeverityMedium, finding.Severity)
	assert.Contains(t, finding.Explanation, "Possible receiving error")
	assert.Contains(t, finding.Explanation, "Expected +20 units from shipment")
}

func TestDetectTransferDiscrepancy(t *testing.T) {
	f := newFixture()
	// 15 transferred in, inventory only rose by 4.
	f.setDay(1, 1, 100, 104)
	f.transfers.in[key(1, 1, scanDate)] = 15

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	require.NotNil(t, finding)

	assert.Equal(t, -11.0, finding.Residual)
	assert.Contains(t, finding.Explanation, "Transfer discrepancy of 11 units")
}

func TestDetectUnexplainedDrop(t *testing.T) {
	f := newFixture()
	f.setDay(1, 1, 100, 90)

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	require.NotNil(t, finding)

	assert.Equal(t, -10.0, finding.Residual)
	assert.Equal(t, SeverityLow, finding.Severity)
	assert.Contains(t, finding.Explanation, "no recorded transactions")
}

func TestDetectCriticalResidual(t *testing.T) {
	f := newFixture()
	f.setDay(1, 1, 100, 75)

	finding, err := f.detector.Detect(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	require.NotNil(t, finding)
	assert.Equal(t, SeverityCritical, finding.Severity)
}

func TestFindPatterns(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		residual := -8.0
		if i >= 7 {
			residual = 3.0
		}
		f.events.events = append(f.events.events, domain.AnomalyEvent{
			StoreID:  1,
			SKUID:    1,
			Date:     scanDate.AddDate(0, 0, -i),
			Residual: residual,
		})
	}

	pattern, err := f.detector.FindPatterns(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)

	assert.True(t, pattern.HasPattern)
	assert.Equal(t, PatternSystematicShrink, pattern.PatternType)
	assert.Equal(t, 10, pattern.Frequency)
	assert.Equal(t, 0.7, pattern.NegativeRatio)
	assert.Equal(t, 56.0, pattern.TotalLoss)
}

func TestFindPatternsBelowRatio(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		residual := 3.0
		if i < 5 {
			residual = -8.0
		}
		f.events.events = append(f.events.events, domain.AnomalyEvent{
			StoreID:  1,
			SKUID:    1,
			Date:     scanDate.AddDate(0, 0, -i),
			Residual: residual,
		})
	}

	pattern, err := f.detector.FindPatterns(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	assert.False(t, pattern.HasPattern)
	assert.Empty(t, pattern.PatternType)
}

func TestFindPatternsNoEvents(t *testing.T) {
	f := newFixture()
	pattern, err := f.detector.FindPatterns(context.Background(), 1, 1, scanDate)
	require.NoError(t, err)
	assert.False(t, pattern.HasPattern)
	assert.Zero(t, pattern.Frequency)
}

func TestScanIsIdempotent(t *testing.T) {
	f := newFixture()
	f.inventory.pairs = []domain.StorePair{{StoreID: 1, SKUID: 1}}
	f.setDay(1, 1, 100, 90)

	events, findings, err := f.detector.Scan(context.Background(), scanDate)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, findings, 1)
	assert.Equal(t, int64(1), events[0].StoreID)
	assert.Equal(t, -10.0, events[0].Residual)

	// Persist and rescan: the recorded key must be skipped.
	require.NoError(t, f.events.SaveAll(context.Background(), events))

	again, _, err := f.detector.Scan(context.Background(), scanDate)
	require.NoError(t, err)
	assert.Empty(t, again)
}
