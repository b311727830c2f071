package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/prep"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// PrepService regenerates and persists a store's prep schedule.
type PrepService struct {
	generator *prep.Generator
	repo      repository.PrepRepository
}

func NewPrepService(generator *prep.Generator, repo repository.PrepRepository) *PrepService {
	return &PrepService{generator: generator, repo: repo}
}

// Generate builds the schedule for a store as of now and replaces the day's
// pending recommendations with it.
func (s *PrepService) Generate(ctx context.Context, storeID int64, now time.Time) ([]domain.PrepRecommendation, error) {
	recs, err := s.generator.Schedule(ctx, storeID, now)
	if err != nil {
		return nil, err
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.repo.ReplacePendingForDay(ctx, storeID, day, recs); err != nil {
		return nil, fmt.Errorf("prep: replace pending: %w", err)
	}

	log.Info().
		Int64("store_id", storeID).
		Int("recommendations", len(recs)).
		Msg("prep schedule generated")
	return recs, nil
}
