// backend-go/internal/anomaly/detector.go
package anomaly

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// Severity labels ordered from worst to mildest.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// severityRules is the ordered classification table: the first rule whose
// strict upper bound the residual falls below wins.
var severityRules = []struct {
	Below    float64
	Severity string
}{
	{-20, SeverityCritical},
	{-15, SeverityHigh},
	{-10, SeverityMedium},
}

// ClassifySeverity maps a residual to a severity label. Residuals at or
// above every bound (but still past the anomaly threshold) are low.
func ClassifySeverity(residual float64) string {
	for _, rule := range severityRules {
		if residual < rule.Below {
			return rule.Severity
		}
	}
	return SeverityLow
}

// Finding is one reconciled anomaly for a store/SKU/date.
type Finding struct {
	StoreID       int64   `json:"store_id"`
	SKUID         int64   `json:"sku_id"`
	Date          string  `json:"date"`
	Residual      float64 `json:"residual"`
	Severity      string  `json:"severity"`
	Explanation   string  `json:"explanation"`
	ExpectedDelta float64 `json:"expected_delta"`
	ActualDelta   float64 `json:"actual_delta"`
	Receipts      float64 `json:"receipts"`
	Sales         float64 `json:"sales"`
	TransfersIn   float64 `json:"transfers_in"`
	TransfersOut  float64 `json:"transfers_out"`
}

// Pattern summarizes recurring anomaly behavior over a trailing window.
type Pattern struct {
	HasPattern    bool    `json:"has_pattern"`
	PatternType   string  `json:"pattern_type,omitempty"`
	Frequency     int     `json:"frequency"`
	TotalLoss     float64 `json:"total_loss"`
	NegativeRatio float64 `json:"negative_ratio"`
}

// PatternSystematicShrink names the recurring negative-residual pattern.
const PatternSystematicShrink = "systematic_shrink"

// Detector reconciles expected against actual daily inventory change and
// explains the unexplained part.
type Detector struct {
	inventory repository.InventoryRepository
	sales     repository.SalesRepository
	receipts  repository.ReceiptRepository
	transfers repository.TransferRepository
	events    repository.AnomalyRepository
	cfg       config.AnomalyConfig
}

func NewDetector(
	inventory repository.InventoryRepository,
	sales repository.SalesRepository,
	receipts repository.ReceiptRepository,
	transfers repository.TransferRepository,
	events repository.AnomalyRepository,
	cfg config.AnomalyConfig,
) *Detector {
	return &Detector{
		inventory: inventory,
		sales:     sales,
		receipts:  receipts,
		transfers: transfers,
		events:    events,
		cfg:       cfg,
	}
}

// Detect reconciles one store/SKU/date. It returns nil when either snapshot
// is missing (no determination possible) or when the residual does not cross
// the anomaly threshold (strict less-than).
func (d *Detector) Detect(ctx context.Context, storeID, skuID int64, date time.Time) (*Finding, error) {
	today, foundToday, err := d.inventory.GetOnHand(ctx, storeID, skuID, date)
	if err != nil {
		return nil, fmt.Errorf("anomaly: today snapshot: %w", err)
	}
	yesterday, foundYesterday, err := d.inventory.GetOnHand(ctx, storeID, skuID, date.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("anomaly: yesterday snapshot: %w", err)
	}
	if !foundToday || !foundYesterday {
		return nil, nil
	}

	actualDelta := float64(today - yesterday)

	received, err := d.receipts.GetReceived(ctx, storeID, skuID, date)
	if err != nil {
		return nil, fmt.Errorf("anomaly: receipts: %w", err)
	}
	sold, err := d.sales.GetDailySold(ctx, storeID, skuID, date)
	if err != nil {
		return nil, fmt.Errorf("anomaly: sales: %w", err)
	}
	transfersIn, err := d.transfers.SumReceivedInto(ctx, storeID, skuID, date)
	if err != nil {
		return nil, fmt.Errorf("anomaly: transfers in: %w", err)
	}
	transfersOut, err := d.transfers.SumOutboundCreated(ctx, storeID, skuID, date)
	if err != nil {
		return nil, fmt.Errorf("anomaly: transfers out: %w", err)
	}

	expectedDelta := received - sold + transfersIn - transfersOut
	residual := actualDelta - expectedDelta

	if residual >= d.cfg.Threshold {
		return nil, nil
	}

	finding := &Finding{
		StoreID:       storeID,
		SKUID:         skuID,
		Date:          date.Format("2006-01-02"),
		Residual:      math.Round(residual*100) / 100,
		ExpectedDelta: expectedDelta,
		ActualDelta:   actualDelta,
		Receipts:      received,
		Sales:         sold,
		TransfersIn:   transfersIn,
		TransfersOut:  transfersOut,
	}
	finding.Severity = ClassifySeverity(residual)
	finding.Explanation = explain(finding)
	return finding, nil
}

// explainCutoff gates the specific explanation rules; findings past it get
// one of the targeted phrasings, everything else the generic fallback.
const explainCutoff = -5

// explain picks the first matching phrasing from the ordered rule cascade.
// Every phrasing carries the numeric magnitude of the discrepancy.
func explain(f *Finding) string {
	missing := math.Abs(f.Residual)

	switch {
	case f.Receipts > 0 && f.Residual < explainCutoff:
		return fmt.Sprintf(
			"Expected +%.0f units from shipment, but inventory only increased by %.0f units. Possible receiving error, damage, or theft during receiving. Missing %.0f units.",
			f.Receipts, f.ActualDelta, missing)
	case f.Sales > 0 && f.Residual < explainCutoff:
		return fmt.Sprintf(
			"Expected -%.0f units from sales, but inventory dropped by %.0f units. Possible shrink, unrecorded sales, or theft. Missing %.0f units.",
			f.Sales, math.Abs(f.ActualDelta), missing)
	case (f.TransfersIn > 0 || f.TransfersOut > 0) && f.Residual < explainCutoff:
		return fmt.Sprintf(
			"Expected change of %+.0f units from transfers, but actual change was %+.0f. Transfer discrepancy of %.0f units.",
			f.ExpectedDelta, f.ActualDelta, missing)
	case f.Receipts == 0 && f.Sales == 0 && f.Residual < explainCutoff:
		return fmt.Sprintf(
			"Inventory dropped by %.0f units with no recorded transactions. Likely theft, damage, or system error.",
			missing)
	default:
		return fmt.Sprintf(
			"Unexplained inventory change of %.0f units. Expected %+.0f, actual %+.0f.",
			f.Residual, f.ExpectedDelta, f.ActualDelta)
	}
}

// FindPatterns checks recorded anomaly history for systematic shrink: the
// pattern is flagged when the negative-residual fraction reaches the
// configured ratio over the trailing window.
func (d *Detector) FindPatterns(ctx context.Context, storeID, skuID int64, asOf time.Time) (Pattern, error) {
	since := asOf.AddDate(0, 0, -d.cfg.PatternWindowDays)
	events, err := d.events.ListSince(ctx, storeID, skuID, since)
	if err != nil {
		return Pattern{}, fmt.Errorf("anomaly: list events: %w", err)
	}
	if len(events) == 0 {
		return Pattern{}, nil
	}

	var negatives int
	var totalLoss float64
	for _, e := range events {
		if e.Residual < 0 {
			negatives++
			totalLoss += math.Abs(e.Residual)
		}
	}

	ratio := float64(negatives) / float64(len(events))
	pattern := Pattern{
		Frequency:     len(events),
		TotalLoss:     math.Round(totalLoss*100) / 100,
		NegativeRatio: math.Round(ratio*100) / 100,
	}
	if float64(negatives) >= float64(len(events))*d.cfg.ShrinkRatio {
		pattern.HasPattern = true
		pattern.PatternType = PatternSystematicShrink
	}
	return pattern, nil
}

// pairResult carries one store/SKU pair's new findings back from a scan
// worker, keyed by the pair's position so output order stays stable.
type pairResult struct {
	events   []domain.AnomalyEvent
	findings []Finding
}

// Scan reconciles every active store/SKU pair over the trailing scan window
// and returns the new events to persist. Keys already recorded for a date
// are skipped, so re-running a scan never duplicates records. Pairs are
// reconciled by a small worker pool since each one issues its own snapshot
// and movement queries.
func (d *Detector) Scan(ctx context.Context, asOf time.Time) ([]domain.AnomalyEvent, []Finding, error) {
	since := asOf.AddDate(0, 0, -d.cfg.ScanDaysBack)
	pairs, err := d.inventory.ListActivePairs(ctx, since)
	if err != nil {
		return nil, nil, fmt.Errorf("anomaly: active pairs: %w", err)
	}

	workerCount := d.cfg.ScanWorkers
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(pairs) {
		workerCount = len(pairs)
	}

	results := make([]pairResult, len(pairs))
	jobChan := make(chan int, len(pairs))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				res, err := d.scanPair(ctx, pairs[idx], asOf)
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					continue
				}
				results[idx] = res
			}
		}()
	}

	for idx := range pairs {
		jobChan <- idx
	}
	close(jobChan)
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, nil, err
	}

	var events []domain.AnomalyEvent
	var findings []Finding
	for _, res := range results {
		events = append(events, res.events...)
		findings = append(findings, res.findings...)
	}
	return events, findings, nil
}

func (d *Detector) scanPair(ctx context.Context, pair domain.StorePair, asOf time.Time) (pairResult, error) {
	var res pairResult
	for offset := 0; offset < d.cfg.ScanDaysBack; offset++ {
		checkDate := asOf.AddDate(0, 0, -offset)

		finding, err := d.Detect(ctx, pair.StoreID, pair.SKUID, checkDate)
		if err != nil {
			return pairResult{}, err
		}
		if finding == nil {
			continue
		}

		exists, err := d.events.ExistsForDate(ctx, pair.StoreID, pair.SKUID, checkDate)
		if err != nil {
			return pairResult{}, fmt.Errorf("anomaly: existence check: %w", err)
		}
		if exists {
			continue
		}

		res.events = append(res.events, domain.AnomalyEvent{
			StoreID:     pair.StoreID,
			SKUID:       pair.SKUID,
			Date:        checkDate,
			Residual:    finding.Residual,
			Severity:    finding.Severity,
			Explanation: finding.Explanation,
		})
		res.findings = append(res.findings, *finding)
	}
	return res, nil
}
