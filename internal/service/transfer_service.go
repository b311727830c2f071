package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/transfer"
)

// PassResult is the output of one optimizer run.
type PassResult struct {
	Recommendations []domain.TransferRecommendation `json:"recommendations"`
	Summary         transfer.OpportunitySummary     `json:"summary"`
}

// TransferService runs optimizer passes and manages the recommendation
// review lifecycle.
type TransferService struct {
	optimizer       *transfer.Optimizer
	recommendations repository.RecommendationRepository
	transfers       repository.TransferRepository
}

func NewTransferService(
	optimizer *transfer.Optimizer,
	recommendations repository.RecommendationRepository,
	transfers repository.TransferRepository,
) *TransferService {
	return &TransferService{
		optimizer:       optimizer,
		recommendations: recommendations,
		transfers:       transfers,
	}
}

// RunPass executes one optimizer pass and supersedes the previous pending
// recommendations with its output.
func (s *TransferService) RunPass(ctx context.Context, asOf time.Time) (*PassResult, error) {
	recs, err := s.optimizer.Pass(ctx, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.recommendations.ReplacePending(ctx, recs); err != nil {
		return nil, fmt.Errorf("transfer: replace pending: %w", err)
	}

	summary := transfer.Summarize(recs)
	log.Info().
		Int("recommendations", summary.TotalOpportunities).
		Int("high_urgency", summary.HighUrgency).
		Int("total_units", summary.TotalUnits).
		Msg("transfer pass completed")

	return &PassResult{Recommendations: recs, Summary: summary}, nil
}

// Accept marks a pending recommendation accepted and opens a transfer draft
// for it. The draft then moves through the normal transfer lifecycle.
func (s *TransferService) Accept(ctx context.Context, id int64, now time.Time) (*domain.Transfer, error) {
	rec, err := s.recommendations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.RecommendationPending {
		return nil, fmt.Errorf("recommendation %d is %s: %w", id, rec.Status, domain.ErrInvalidTransition)
	}

	if err := s.recommendations.UpdateStatus(ctx, id, domain.RecommendationAccepted); err != nil {
		return nil, err
	}

	draft := &domain.Transfer{
		FromStoreID: rec.FromStoreID,
		ToStoreID:   rec.ToStoreID,
		SKUID:       rec.SKUID,
		Qty:         float64(rec.Qty),
		Status:      domain.TransferDraft,
		CreatedAt:   now,
	}
	if _, err := s.transfers.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("transfer: create draft: %w", err)
	}

	log.Info().
		Int64("recommendation_id", id).
		Int64("transfer_id", draft.ID).
		Msg("recommendation accepted")
	return draft, nil
}

// Reject marks a pending recommendation rejected.
func (s *TransferService) Reject(ctx context.Context, id int64) error {
	rec, err := s.recommendations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != domain.RecommendationPending {
		return fmt.Errorf("recommendation %d is %s: %w", id, rec.Status, domain.ErrInvalidTransition)
	}
	return s.recommendations.UpdateStatus(ctx, id, domain.RecommendationRejected)
}
