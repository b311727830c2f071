package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/anomaly"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// Investigation is the full anomaly picture for one store/SKU/date.
type Investigation struct {
	Finding *anomaly.Finding `json:"finding,omitempty"`
	Pattern anomaly.Pattern  `json:"pattern"`
}

// AnomalyService runs scans and persists their output.
type AnomalyService struct {
	detector *anomaly.Detector
	events   repository.AnomalyRepository
}

func NewAnomalyService(detector *anomaly.Detector, events repository.AnomalyRepository) *AnomalyService {
	return &AnomalyService{detector: detector, events: events}
}

// Scan reconciles every active store/SKU pair and persists the new events
// atomically. A failed save persists nothing.
func (s *AnomalyService) Scan(ctx context.Context, asOf time.Time) ([]anomaly.Finding, error) {
	events, findings, err := s.detector.Scan(ctx, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.events.SaveAll(ctx, events); err != nil {
		return nil, err
	}

	log.Info().
		Int("new_events", len(events)).
		Time("as_of", asOf).
		Msg("anomaly scan completed")
	return findings, nil
}

// Investigate reconciles a single store/SKU/date on demand and checks the
// pair's trailing history for a shrink pattern. Nothing is persisted.
func (s *AnomalyService) Investigate(ctx context.Context, storeID, skuID int64, date time.Time) (*Investigation, error) {
	finding, err := s.detector.Detect(ctx, storeID, skuID, date)
	if err != nil {
		return nil, err
	}

	pattern, err := s.detector.FindPatterns(ctx, storeID, skuID, date)
	if err != nil {
		return nil, err
	}

	return &Investigation{Finding: finding, Pattern: pattern}, nil
}

// History lists the recorded events for a store/SKU over the trailing days.
func (s *AnomalyService) History(ctx context.Context, storeID, skuID int64, days int, asOf time.Time) ([]domain.AnomalyEvent, error) {
	return s.events.ListSince(ctx, storeID, skuID, asOf.AddDate(0, 0, -days))
}
