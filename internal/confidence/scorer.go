// backend-go/internal/confidence/scorer.go
package confidence

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/anomaly"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// Deduction is one itemized score penalty, retained for audit display.
type Deduction struct {
	Reason string  `json:"reason"`
	Points float64 `json:"points"`
}

// Score is the inventory-accuracy confidence result for a store/SKU. It is
// recomputed on demand and never persisted.
type Score struct {
	Score                float64     `json:"score"`
	Grade                string      `json:"grade"`
	Deductions           []Deduction `json:"deductions"`
	AnomalyCount         int         `json:"anomaly_count"`
	DaysSinceCount       *int        `json:"days_since_count,omitempty"`
	HasSystematicPattern bool        `json:"has_systematic_pattern"`
}

// gradeRules is the ordered score-to-grade table; the first floor the score
// reaches wins, anything lower is an F.
var gradeRules = []struct {
	AtLeast float64
	Grade   string
}{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

// GradeFor maps a clamped score to its letter grade.
func GradeFor(score float64) string {
	for _, rule := range gradeRules {
		if score >= rule.AtLeast {
			return rule.Grade
		}
	}
	return "F"
}

// Scorer computes a multi-factor deduction model over anomaly history and
// physical count staleness.
type Scorer struct {
	events   repository.AnomalyRepository
	counts   repository.CycleCountRepository
	skus     repository.SKURepository
	detector *anomaly.Detector
	cfg      config.ConfidenceConfig
}

func NewScorer(
	events repository.AnomalyRepository,
	counts repository.CycleCountRepository,
	skus repository.SKURepository,
	detector *anomaly.Detector,
	cfg config.ConfidenceConfig,
) *Scorer {
	return &Scorer{events: events, counts: counts, skus: skus, detector: detector, cfg: cfg}
}

// Score starts at 100 and applies the ordered, independently capped
// deductions, clamping the result to [0, 100].
func (s *Scorer) Score(ctx context.Context, storeID, skuID int64, asOf time.Time) (Score, error) {
	sku, err := s.skus.GetByID(ctx, skuID)
	if err != nil {
		return Score{}, fmt.Errorf("confidence: sku %d: %w", skuID, err)
	}

	score := 100.0
	var deductions []Deduction
	deduct := func(points float64, reason string) {
		score -= points
		deductions = append(deductions, Deduction{Reason: reason, Points: points})
	}

	// 1. Anomaly frequency over the trailing window.
	since := asOf.AddDate(0, 0, -s.cfg.AnomalyWindowDays)
	events, err := s.events.ListSince(ctx, storeID, skuID, since)
	if err != nil {
		return Score{}, fmt.Errorf("confidence: anomaly history: %w", err)
	}
	if len(events) > 0 {
		points := math.Min(float64(len(events))*s.cfg.FreqPointsPerEvent, s.cfg.FreqCap)
		deduct(points, fmt.Sprintf("Anomaly frequency: -%.0f (%d events in %d days)",
			points, len(events), s.cfg.AnomalyWindowDays))

		// 2. Anomaly magnitude over the same window.
		var totalResidual float64
		for _, e := range events {
			totalResidual += math.Abs(e.Residual)
		}
		points = math.Min(totalResidual*s.cfg.MagnitudeFactor, s.cfg.MagnitudeCap)
		deduct(points, fmt.Sprintf("Anomaly magnitude: -%.0f (%.0f units lost)", points, totalResidual))
	}

	// 3. Staleness of the last physical count, or a flat penalty when the
	// pair has never been counted.
	lastCount, err := s.counts.GetLatest(ctx, storeID, skuID)
	if err != nil {
		return Score{}, fmt.Errorf("confidence: cycle counts: %w", err)
	}
	var daysSinceCount *int
	if lastCount != nil {
		days := int(asOf.Sub(lastCount.Date).Hours() / 24)
		daysSinceCount = &days
		points := math.Min(float64(days)*s.cfg.StalenessPerDay, s.cfg.StalenessCap)
		deduct(points, fmt.Sprintf("Days since count: -%.0f (%d days)", points, days))
	} else {
		deduct(s.cfg.NeverCountedPoints, fmt.Sprintf("Never counted: -%.0f", s.cfg.NeverCountedPoints))
	}

	// 4. Perishable items lose accuracy quickly without a fresh count.
	if sku.IsPerishable {
		if lastCount == nil || *daysSinceCount > s.cfg.PerishableMaxAge {
			deduct(s.cfg.PerishablePoints,
				fmt.Sprintf("Perishable without recent count: -%.0f", s.cfg.PerishablePoints))
		}
	}

	// 5. Systematic shrink pattern.
	pattern, err := s.detector.FindPatterns(ctx, storeID, skuID, asOf)
	if err != nil {
		return Score{}, err
	}
	if pattern.HasPattern {
		deduct(s.cfg.ShrinkPoints, fmt.Sprintf("Systematic shrink pattern: -%.0f (%.0f%% negative)",
			s.cfg.ShrinkPoints, pattern.NegativeRatio*100))
	}

	final := math.Max(0, math.Min(100, score))
	return Score{
		Score:                math.Round(final*10) / 10,
		Grade:                GradeFor(final),
		Deductions:           deductions,
		AnomalyCount:         len(events),
		DaysSinceCount:       daysSinceCount,
		HasSystematicPattern: pattern.HasPattern,
	}, nil
}

// CountPriority weighs how soon a store/SKU should be cycle counted: low
// confidence, high on-hand value and perishability all raise the priority.
func CountPriority(score Score, onHand float64, price float64, isPerishable bool) (float64, string) {
	confidenceFactor := (100 - score.Score) / 100
	valueFactor := math.Min(onHand*price/1000, 1.0)
	perishableFactor := 0.0
	if isPerishable {
		perishableFactor = 0.3
	}

	priority := confidenceFactor*0.6 + valueFactor*0.3 + perishableFactor
	priority = math.Round(priority*1000) / 1000

	switch {
	case priority > 0.7:
		return priority, "High"
	case priority > 0.4:
		return priority, "Medium"
	default:
		return priority, "Low"
	}
}
