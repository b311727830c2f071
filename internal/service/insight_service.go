package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// ItemHealth bundles the demand estimate and the derived health metrics for
// one store/SKU.
type ItemHealth struct {
	StoreID      int64                      `json:"store_id"`
	SKUID        int64                      `json:"sku_id"`
	SKUName      string                     `json:"sku_name"`
	OnHand       float64                    `json:"on_hand"`
	Forecast     forecast.DemandForecast    `json:"forecast"`
	DaysOfCover  float64                    `json:"days_of_cover"`
	StockoutDate *time.Time                 `json:"stockout_date,omitempty"`
	Reorder      forecast.ReorderPlan       `json:"reorder"`
	Projection   []forecast.DailyProjection `json:"projection"`
}

// PeakStatus reports where now sits relative to the next rush, plus the
// critical items predicted to run out before close.
type PeakStatus struct {
	Summary forecast.PeakSummary `json:"summary"`
	AtRisk  []AtRiskItem         `json:"at_risk_items"`
}

// AtRiskItem is a critical-category SKU with a predicted intraday stockout.
type AtRiskItem struct {
	SKUID      int64                       `json:"sku_id"`
	SKUName    string                      `json:"sku_name"`
	Category   string                      `json:"category"`
	OnHand     float64                     `json:"on_hand"`
	Prediction forecast.StockoutPrediction `json:"prediction"`
}

// InsightService answers forecast and health questions for the API and CLI.
type InsightService struct {
	forecaster *forecast.Forecaster
	hourly     *forecast.HourlyForecaster
	inventory  repository.InventoryRepository
	skus       repository.SKURepository
	categories []string
}

func NewInsightService(
	forecaster *forecast.Forecaster,
	hourly *forecast.HourlyForecaster,
	inventory repository.InventoryRepository,
	skus repository.SKURepository,
	criticalCategories []string,
) *InsightService {
	return &InsightService{
		forecaster: forecaster,
		hourly:     hourly,
		inventory:  inventory,
		skus:       skus,
		categories: criticalCategories,
	}
}

// ItemHealth computes the full daily health picture for one store/SKU.
func (s *InsightService) ItemHealth(ctx context.Context, storeID, skuID int64, asOf time.Time) (*ItemHealth, error) {
	sku, err := s.skus.GetByID(ctx, skuID)
	if err != nil {
		return nil, fmt.Errorf("insight: sku %d: %w", skuID, err)
	}

	onHandQty, found, err := s.inventory.GetLatestOnHand(ctx, storeID, skuID)
	if err != nil {
		return nil, fmt.Errorf("insight: on hand: %w", err)
	}
	if !found {
		onHandQty = 0
	}
	onHand := float64(onHandQty)

	fc, err := s.forecaster.Demand(ctx, storeID, skuID, asOf)
	if err != nil {
		return nil, err
	}

	return &ItemHealth{
		StoreID:      storeID,
		SKUID:        skuID,
		SKUName:      sku.Name,
		OnHand:       onHand,
		Forecast:     fc,
		DaysOfCover:  s.forecaster.DaysOfCover(fc, onHand),
		StockoutDate: s.forecaster.StockoutDate(fc, onHand, asOf),
		Reorder:      s.forecaster.Reorder(fc),
		Projection:   s.forecaster.NextNDays(fc, asOf, 7),
	}, nil
}

// HourlyCurve returns the per-hour demand curve for a date.
func (s *InsightService) HourlyCurve(ctx context.Context, storeID, skuID int64, date time.Time) ([]forecast.HourSlot, error) {
	return s.hourly.DayForecast(ctx, storeID, skuID, date)
}

// HourForecast predicts demand for one hour and day of week.
func (s *InsightService) HourForecast(ctx context.Context, storeID, skuID int64, hour, dayOfWeek int) (forecast.HourlyForecast, error) {
	return s.hourly.Forecast(ctx, storeID, skuID, hour, dayOfWeek)
}

// Stockout runs the intraday stockout walk from the current hour.
func (s *InsightService) Stockout(ctx context.Context, storeID, skuID int64, now time.Time) (forecast.StockoutPrediction, error) {
	onHandQty, found, err := s.inventory.GetLatestOnHand(ctx, storeID, skuID)
	if err != nil {
		return forecast.StockoutPrediction{}, fmt.Errorf("insight: on hand: %w", err)
	}
	if !found {
		onHandQty = 0
	}
	return s.hourly.PredictStockout(ctx, storeID, skuID, float64(onHandQty), -1, now)
}

// PeakStatus summarizes the next rush and the critical items at risk of
// running out before close.
func (s *InsightService) PeakStatus(ctx context.Context, storeID int64, now time.Time) (*PeakStatus, error) {
	status := &PeakStatus{Summary: forecast.Peaks(now)}

	skus, err := s.skus.ListByCategories(ctx, s.categories, 0)
	if err != nil {
		return nil, fmt.Errorf("insight: critical skus: %w", err)
	}

	for _, sku := range skus {
		onHandQty, found, err := s.inventory.GetLatestOnHand(ctx, storeID, sku.ID)
		if err != nil {
			return nil, fmt.Errorf("insight: on hand for sku %d: %w", sku.ID, err)
		}
		if !found {
			onHandQty = 0
		}

		pred, err := s.hourly.PredictStockout(ctx, storeID, sku.ID, float64(onHandQty), -1, now)
		if err != nil {
			return nil, err
		}
		if !pred.WillStockout {
			continue
		}

		status.AtRisk = append(status.AtRisk, AtRiskItem{
			SKUID:      sku.ID,
			SKUName:    sku.Name,
			Category:   sku.Category,
			OnHand:     float64(onHandQty),
			Prediction: pred,
		})
	}
	return status, nil
}
