// backend-go/internal/forecast/forecast.go
package forecast

import (
	"context"
	"math"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// Confidence tags how much history backs an estimate.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// DemandForecast is the daily demand estimate for a store/SKU.
type DemandForecast struct {
	DailyDemand float64    `json:"daily_demand"`
	DemandStd   float64    `json:"demand_std"`
	WeekdayAvg  float64    `json:"weekday_avg"`
	WeekendAvg  float64    `json:"weekend_avg"`
	Confidence  Confidence `json:"confidence"`
	DataPoints  int        `json:"data_points"`
}

// ReorderPlan sizes replenishment for a store/SKU.
type ReorderPlan struct {
	ReorderPoint float64 `json:"reorder_point"`
	OrderQty     float64 `json:"order_qty"`
	SafetyStock  float64 `json:"safety_stock"`
	LeadTimeDays int     `json:"lead_time_days"`
}

// DailyProjection is one day of a forward demand projection.
type DailyProjection struct {
	Date            time.Time `json:"date"`
	PredictedDemand float64   `json:"predicted_demand"`
	IsWeekend       bool      `json:"is_weekend"`
}

// serviceLevelZ is the one-sided 95% service-level factor applied to demand
// variability when sizing safety stock.
const serviceLevelZ = 1.65

// Forecaster estimates daily demand from trailing sales history, split into
// weekday and weekend patterns.
type Forecaster struct {
	sales repository.SalesRepository
	cfg   config.ForecastConfig
}

func NewForecaster(sales repository.SalesRepository, cfg config.ForecastConfig) *Forecaster {
	return &Forecaster{sales: sales, cfg: cfg}
}

// Demand computes the weighted-average demand estimate as of a date.
// Empty history yields zero demand with low confidence, never an error.
func (f *Forecaster) Demand(ctx context.Context, storeID, skuID int64, asOf time.Time) (DemandForecast, error) {
	from := asOf.AddDate(0, 0, -f.cfg.WindowDays)
	history, err := f.sales.GetDailyHistory(ctx, storeID, skuID, from, asOf)
	if err != nil {
		return DemandForecast{}, err
	}

	if len(history) == 0 {
		return DemandForecast{Confidence: ConfidenceLow}, nil
	}

	// Bucket most-recent-first so the i-th sample carries weight decay^i.
	var weekday, weekend []float64
	for i := len(history) - 1; i >= 0; i-- {
		s := history[i]
		if s.IsWeekend() {
			weekend = append(weekend, s.QtySold)
		} else {
			weekday = append(weekday, s.QtySold)
		}
	}

	weekdayAvg := weightedAverage(weekday, f.cfg.Decay)
	weekendAvg := weightedAverage(weekend, f.cfg.Decay)

	// Overall average weighted by frequency: 5 weekdays, 2 weekend days.
	var daily float64
	if weekdayAvg > 0 || weekendAvg > 0 {
		daily = (weekdayAvg*5 + weekendAvg*2) / 7
	}

	all := make([]float64, 0, len(history))
	for _, s := range history {
		all = append(all, s.QtySold)
	}

	return DemandForecast{
		DailyDemand: roundTo(daily, 2),
		DemandStd:   roundTo(populationStd(all), 2),
		WeekdayAvg:  roundTo(weekdayAvg, 2),
		WeekendAvg:  roundTo(weekendAvg, 2),
		Confidence:  f.dataConfidence(len(history)),
		DataPoints:  len(history),
	}, nil
}

func (f *Forecaster) dataConfidence(samples int) Confidence {
	window := float64(f.cfg.WindowDays)
	switch {
	case float64(samples) >= window*0.8:
		return ConfidenceHigh
	case float64(samples) >= window*0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MeasurableDemand reports whether the estimate clears the demand floor
// that guards every ratio computation.
func (f *Forecaster) MeasurableDemand(fc DemandForecast) bool {
	return fc.DailyDemand >= f.cfg.MinDailyDemand
}

// DaysOfCover returns on-hand divided by daily demand. Demand below the
// configured floor counts as no measurable demand and yields the sentinel.
func (f *Forecaster) DaysOfCover(fc DemandForecast, onHand float64) float64 {
	if fc.DailyDemand < f.cfg.MinDailyDemand {
		return f.cfg.MaxDaysOfCover
	}
	return roundTo(onHand/fc.DailyDemand, 2)
}

// StockoutDate projects the date inventory runs out, or nil when demand is
// too low to measure.
func (f *Forecaster) StockoutDate(fc DemandForecast, onHand float64, asOf time.Time) *time.Time {
	cover := f.DaysOfCover(fc, onHand)
	if cover >= f.cfg.MaxDaysOfCover {
		return nil
	}
	d := asOf.AddDate(0, 0, int(cover))
	return &d
}

// Reorder sizes the reorder point and order quantity from a demand estimate.
func (f *Forecaster) Reorder(fc DemandForecast) ReorderPlan {
	safetyStock := fc.DailyDemand*float64(f.cfg.SafetyStockDays) + fc.DemandStd*serviceLevelZ
	return ReorderPlan{
		ReorderPoint: roundTo(fc.DailyDemand*float64(f.cfg.LeadTimeDays)+safetyStock, 0),
		OrderQty:     roundTo(fc.DailyDemand*float64(f.cfg.OrderCoverDays), 0),
		SafetyStock:  roundTo(safetyStock, 0),
		LeadTimeDays: f.cfg.LeadTimeDays,
	}
}

// NextNDays projects per-day demand for the n days following asOf using the
// weekday/weekend split.
func (f *Forecaster) NextNDays(fc DemandForecast, asOf time.Time, n int) []DailyProjection {
	out := make([]DailyProjection, 0, n)
	for i := 1; i <= n; i++ {
		day := asOf.AddDate(0, 0, i)
		wd := day.Weekday()
		isWeekend := wd == time.Saturday || wd == time.Sunday
		demand := fc.WeekdayAvg
		if isWeekend {
			demand = fc.WeekendAvg
		}
		out = append(out, DailyProjection{
			Date:            day,
			PredictedDemand: roundTo(demand, 1),
			IsWeekend:       isWeekend,
		})
	}
	return out
}

// weightedAverage computes an exponentially decayed average over values
// ordered most-recent-first: the i-th value carries weight decay^i.
func weightedAverage(values []float64, decay float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var weightedSum, weightSum float64
	weight := 1.0
	for _, v := range values {
		weightedSum += v * weight
		weightSum += weight
		weight *= decay
	}

	if weightSum <= 0 {
		return 0
	}
	return weightedSum / weightSum
}

// populationStd is the population standard deviation of the raw samples,
// used as the variability input to safety stock.
func populationStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
