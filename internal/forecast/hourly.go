// backend-go/internal/forecast/hourly.go
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// Fixed peak periods for quick-service operations.
var (
	LunchHours  = []int{11, 12, 13}
	DinnerHours = []int{17, 18, 19}
)

// IsPeakHour reports whether an hour falls in a lunch or dinner rush.
func IsPeakHour(hour int) bool {
	return PeakPeriodName(hour) != ""
}

// PeakPeriodName returns "lunch", "dinner" or "".
func PeakPeriodName(hour int) string {
	for _, h := range LunchHours {
		if h == hour {
			return "lunch"
		}
	}
	for _, h := range DinnerHours {
		if h == hour {
			return "dinner"
		}
	}
	return ""
}

// DayOfWeek converts Go's Sunday-based weekday to the Monday=0 convention
// carried by hourly sales observations.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// HourlyForecast is the demand estimate for one hour of one day of week.
type HourlyForecast struct {
	PredictedDemand float64    `json:"predicted_demand"`
	Confidence      Confidence `json:"confidence"`
	IsPeakHour      bool       `json:"is_peak_hour"`
	PeakPeriod      string     `json:"peak_period,omitempty"`
	DataPoints      int        `json:"data_points"`
}

// StockoutPrediction reports when a running hourly walk exhausts inventory.
type StockoutPrediction struct {
	WillStockout     bool       `json:"will_stockout"`
	StockoutHour     int        `json:"stockout_hour,omitempty"`
	StockoutTime     *time.Time `json:"stockout_time,omitempty"`
	HoursUntil       int        `json:"hours_until_stockout"`
	IsDuringPeak     bool       `json:"is_during_peak"`
	PeakPeriod       string     `json:"peak_period,omitempty"`
	Severity         string     `json:"severity,omitempty"`
	Deficit          float64    `json:"deficit,omitempty"`
	RemainingAtClose float64    `json:"remaining_at_close"`
}

// HourSlot is one hour of a day-level forecast curve.
type HourSlot struct {
	Hour            int        `json:"hour"`
	PredictedDemand float64    `json:"predicted_demand"`
	IsPeakHour      bool       `json:"is_peak_hour"`
	PeakPeriod      string     `json:"peak_period,omitempty"`
	Confidence      Confidence `json:"confidence"`
}

// PeakSummary describes where the evaluation instant sits relative to the
// next rush period.
type PeakSummary struct {
	CurrentHour      int    `json:"current_hour"`
	NextPeakPeriod   string `json:"next_peak_period"`
	NextPeakHour     int    `json:"next_peak_hour"`
	HoursUntilPeak   int    `json:"hours_until_peak"`
	MinutesUntilPeak int    `json:"minutes_until_peak"`
	IsCurrentlyPeak  bool   `json:"is_currently_peak"`
}

// HourlyForecaster estimates per-hour demand from hourly sales history,
// with a peak-hour buffer and an injected result cache.
type HourlyForecaster struct {
	sales repository.SalesRepository
	cache Cache
	cfg   config.HourlyConfig
}

// NewHourlyForecaster builds a forecaster. A nil cache gets an in-memory TTL
// cache sized from the config.
func NewHourlyForecaster(sales repository.SalesRepository, cache Cache, cfg config.HourlyConfig) *HourlyForecaster {
	if cache == nil {
		cache = NewMemoryCache(cfg.CacheTTL)
	}
	return &HourlyForecaster{sales: sales, cache: cache, cfg: cfg}
}

// Forecast predicts demand for a store/SKU at a target hour and day of week.
// Zero history yields a zero estimate with low confidence.
func (h *HourlyForecaster) Forecast(ctx context.Context, storeID, skuID int64, targetHour, targetDayOfWeek int) (HourlyForecast, error) {
	key := fmt.Sprintf("hourly:%d:%d:%d:%d", storeID, skuID, targetHour, targetDayOfWeek)
	if cached, ok := h.cache.Get(ctx, key); ok {
		return cached, nil
	}

	samples, err := h.sales.GetHourlySamples(ctx, storeID, skuID, targetHour, targetDayOfWeek, h.cfg.LookbackWeeks)
	if err != nil {
		return HourlyForecast{}, err
	}
	if len(samples) == 0 {
		// Fallback: same hour, any day of week.
		samples, err = h.sales.GetHourlySamplesAnyDay(ctx, storeID, skuID, targetHour, h.cfg.LookbackWeeks)
		if err != nil {
			return HourlyForecast{}, err
		}
	}

	result := HourlyForecast{
		Confidence: ConfidenceLow,
		IsPeakHour: IsPeakHour(targetHour),
		PeakPeriod: PeakPeriodName(targetHour),
	}

	if len(samples) > 0 {
		values := make([]float64, len(samples)) // samples arrive most recent first
		for i, s := range samples {
			values[i] = s.QtySold
		}
		predicted := weightedAverage(values, h.cfg.Decay)

		if result.IsPeakHour && predicted > 0 {
			predicted *= h.cfg.PeakBuffer
		}

		result.PredictedDemand = roundTo(predicted, 1)
		result.DataPoints = len(samples)
		result.Confidence = hourlyConfidence(len(samples))
	}

	h.cache.Set(ctx, key, result)
	return result, nil
}

func hourlyConfidence(samples int) Confidence {
	switch {
	case samples >= 6:
		return ConfidenceHigh
	case samples >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PredictStockout walks forward hour by hour from startHour (or the current
// hour when startHour is negative), subtracting each hour's forecast from the
// on-hand quantity, and reports the first hour the counter reaches zero.
func (h *HourlyForecaster) PredictStockout(ctx context.Context, storeID, skuID int64, onHand float64, startHour int, now time.Time) (StockoutPrediction, error) {
	currentHour := startHour
	if currentHour < 0 {
		currentHour = now.Hour()
	}
	dayOfWeek := DayOfWeek(now)

	remaining := onHand
	for hour := currentHour; hour < h.cfg.CloseHour; hour++ {
		fc, err := h.Forecast(ctx, storeID, skuID, hour, dayOfWeek)
		if err != nil {
			return StockoutPrediction{}, err
		}

		remaining -= fc.PredictedDemand
		if remaining <= 0 {
			stockoutAt := time.Date(now.Year(), now.Month(), now.Day(), hour, 30, 0, 0, now.Location())
			severity := "high"
			if fc.IsPeakHour {
				severity = "critical"
			}
			return StockoutPrediction{
				WillStockout: true,
				StockoutHour: hour,
				StockoutTime: &stockoutAt,
				HoursUntil:   hour - currentHour,
				IsDuringPeak: fc.IsPeakHour,
				PeakPeriod:   fc.PeakPeriod,
				Severity:     severity,
				Deficit:      roundTo(-remaining, 1),
			}, nil
		}
	}

	return StockoutPrediction{RemainingAtClose: roundTo(remaining, 1)}, nil
}

// DayForecast returns the hourly demand curve for a date across operating
// hours.
func (h *HourlyForecaster) DayForecast(ctx context.Context, storeID, skuID int64, date time.Time) ([]HourSlot, error) {
	dayOfWeek := DayOfWeek(date)
	slots := make([]HourSlot, 0, h.cfg.CloseHour-h.cfg.OpenHour)

	for hour := h.cfg.OpenHour; hour < h.cfg.CloseHour; hour++ {
		fc, err := h.Forecast(ctx, storeID, skuID, hour, dayOfWeek)
		if err != nil {
			return nil, err
		}
		slots = append(slots, HourSlot{
			Hour:            hour,
			PredictedDemand: fc.PredictedDemand,
			IsPeakHour:      fc.IsPeakHour,
			PeakPeriod:      fc.PeakPeriod,
			Confidence:      fc.Confidence,
		})
	}
	return slots, nil
}

// Peaks locates the evaluation instant relative to the lunch/dinner rushes.
func Peaks(now time.Time) PeakSummary {
	hour := now.Hour()

	var period string
	var peakHour, until int
	switch {
	case hour < 11:
		period, peakHour, until = "lunch", 11, 11-hour
	case hour < 14:
		period, peakHour, until = "lunch", hour, 0
	case hour < 17:
		period, peakHour, until = "dinner", 17, 17-hour
	case hour < 20:
		period, peakHour, until = "dinner", hour, 0
	default:
		// Past dinner: next peak is tomorrow's lunch.
		period, peakHour, until = "lunch", 11, 24-hour+11
	}

	return PeakSummary{
		CurrentHour:      hour,
		NextPeakPeriod:   period,
		NextPeakHour:     peakHour,
		HoursUntilPeak:   until,
		MinutesUntilPeak: until * 60,
		IsCurrentlyPeak:  until == 0,
	}
}
