// backend-go/internal/prep/schedule.go
package prep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// Priority labels for prep recommendations.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
)

// Generator derives preparation timing and quantities from predicted
// intraday stockouts of critical items.
type Generator struct {
	skus      repository.SKURepository
	inventory repository.InventoryRepository
	hourly    *forecast.HourlyForecaster
	cfg       config.PrepConfig
}

func NewGenerator(
	skus repository.SKURepository,
	inventory repository.InventoryRepository,
	hourly *forecast.HourlyForecaster,
	cfg config.PrepConfig,
) *Generator {
	return &Generator{skus: skus, inventory: inventory, hourly: hourly, cfg: cfg}
}

// Schedule builds the prep recommendations for a store as of now, sorted by
// ascending prep time. Only items whose prep window is still open are
// emitted.
func (g *Generator) Schedule(ctx context.Context, storeID int64, now time.Time) ([]domain.PrepRecommendation, error) {
	skus, err := g.skus.ListByCategories(ctx, g.cfg.CriticalCategories, 0)
	if err != nil {
		return nil, fmt.Errorf("prep: list critical skus: %w", err)
	}

	var recs []domain.PrepRecommendation
	for _, sku := range skus {
		onHandQty, found, err := g.inventory.GetLatestOnHand(ctx, storeID, sku.ID)
		if err != nil {
			return nil, fmt.Errorf("prep: on hand for sku %d: %w", sku.ID, err)
		}
		if !found {
			onHandQty = 0
		}
		onHand := float64(onHandQty)

		// Plenty on hand; not worth walking the forecast.
		if onHand > g.cfg.SkipOnHandAbove {
			continue
		}

		pred, err := g.hourly.PredictStockout(ctx, storeID, sku.ID, onHand, -1, now)
		if err != nil {
			return nil, err
		}
		if !pred.WillStockout {
			continue
		}

		prepTime := pred.StockoutTime.Add(-time.Duration(g.cfg.LeadTimeHours) * time.Hour)
		if !prepTime.After(now) {
			continue
		}

		qty, err := g.prepQuantity(ctx, storeID, sku.ID, pred.StockoutHour, now)
		if err != nil {
			return nil, err
		}

		priority := PriorityHigh
		var reason string
		if pred.IsDuringPeak {
			priority = PriorityCritical
			reason = fmt.Sprintf("Will run out at %s during %s rush. Prep immediately!",
				pred.StockoutTime.Format("3:04 PM"), pred.PeakPeriod)
		} else {
			reason = fmt.Sprintf("Will run out at %s. Prep by %s.",
				pred.StockoutTime.Format("3:04 PM"), prepTime.Format("3:04 PM"))
		}

		recs = append(recs, domain.PrepRecommendation{
			StoreID:   storeID,
			SKUID:     sku.ID,
			SKUName:   sku.Name,
			Category:  sku.Category,
			PrepTime:  prepTime,
			QtyToPrep: qty,
			Reason:    reason,
			Priority:  priority,
			Status:    domain.PrepPending,
			CreatedAt: now,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PrepTime.Before(recs[j].PrepTime)
	})
	return recs, nil
}

// prepQuantity covers the configured hours of demand following the predicted
// stockout hour, plus the buffer factor.
func (g *Generator) prepQuantity(ctx context.Context, storeID, skuID int64, stockoutHour int, now time.Time) (int, error) {
	dayOfWeek := forecast.DayOfWeek(now)

	end := stockoutHour + g.cfg.CoverHours
	if end > 24 {
		end = 24
	}

	var total float64
	for hour := stockoutHour; hour < end; hour++ {
		fc, err := g.hourly.Forecast(ctx, storeID, skuID, hour, dayOfWeek)
		if err != nil {
			return 0, err
		}
		total += fc.PredictedDemand
	}
	return int(total * g.cfg.BufferFactor), nil
}
