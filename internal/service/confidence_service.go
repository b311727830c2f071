package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/confidence"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// CountCandidate is one store/SKU ranked for cycle counting.
type CountCandidate struct {
	SKUID         int64            `json:"sku_id"`
	SKUName       string           `json:"sku_name"`
	Category      string           `json:"category"`
	OnHand        float64          `json:"on_hand"`
	Confidence    confidence.Score `json:"confidence"`
	Priority      float64          `json:"priority"`
	PriorityLabel string           `json:"priority_label"`
}

// ConfidenceService exposes confidence scoring and count prioritization.
type ConfidenceService struct {
	scorer    *confidence.Scorer
	skus      repository.SKURepository
	inventory repository.InventoryRepository
}

func NewConfidenceService(
	scorer *confidence.Scorer,
	skus repository.SKURepository,
	inventory repository.InventoryRepository,
) *ConfidenceService {
	return &ConfidenceService{scorer: scorer, skus: skus, inventory: inventory}
}

// Score computes the confidence score for one store/SKU.
func (s *ConfidenceService) Score(ctx context.Context, storeID, skuID int64, asOf time.Time) (confidence.Score, error) {
	return s.scorer.Score(ctx, storeID, skuID, asOf)
}

// LowConfidenceItem pairs a SKU with a below-threshold confidence score.
type LowConfidenceItem struct {
	SKUID      int64            `json:"sku_id"`
	SKUName    string           `json:"sku_name"`
	Category   string           `json:"category"`
	Confidence confidence.Score `json:"confidence"`
}

// LowConfidenceItems returns every stocked SKU whose confidence score falls
// below threshold, worst first.
func (s *ConfidenceService) LowConfidenceItems(ctx context.Context, storeID int64, threshold float64, asOf time.Time) ([]LowConfidenceItem, error) {
	skus, err := s.skus.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("confidence: list skus: %w", err)
	}

	items := make([]LowConfidenceItem, 0)
	for _, sku := range skus {
		_, found, err := s.inventory.GetLatestOnHand(ctx, storeID, sku.ID)
		if err != nil {
			return nil, fmt.Errorf("confidence: on hand for sku %d: %w", sku.ID, err)
		}
		if !found {
			continue
		}

		score, err := s.scorer.Score(ctx, storeID, sku.ID, asOf)
		if err != nil {
			return nil, err
		}
		if score.Score >= threshold {
			continue
		}
		items = append(items, LowConfidenceItem{
			SKUID:      sku.ID,
			SKUName:    sku.Name,
			Category:   sku.Category,
			Confidence: score,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Confidence.Score != items[j].Confidence.Score {
			return items[i].Confidence.Score < items[j].Confidence.Score
		}
		return items[i].SKUID < items[j].SKUID
	})
	return items, nil
}

// CountPriorities scores every SKU at a store and returns them ranked by
// descending count priority, so the store manager counts the riskiest items
// first.
func (s *ConfidenceService) CountPriorities(ctx context.Context, storeID int64, asOf time.Time) ([]CountCandidate, error) {
	skus, err := s.skus.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("confidence: list skus: %w", err)
	}

	candidates := make([]CountCandidate, 0, len(skus))
	for _, sku := range skus {
		onHandQty, found, err := s.inventory.GetLatestOnHand(ctx, storeID, sku.ID)
		if err != nil {
			return nil, fmt.Errorf("confidence: on hand for sku %d: %w", sku.ID, err)
		}
		if !found {
			continue
		}
		onHand := float64(onHandQty)

		score, err := s.scorer.Score(ctx, storeID, sku.ID, asOf)
		if err != nil {
			return nil, err
		}

		priority, label := confidence.CountPriority(score, onHand, sku.Price, sku.IsPerishable)
		candidates = append(candidates, CountCandidate{
			SKUID:         sku.ID,
			SKUName:       sku.Name,
			Category:      sku.Category,
			OnHand:        onHand,
			Confidence:    score,
			Priority:      priority,
			PriorityLabel: label,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].SKUID < candidates[j].SKUID
	})
	return candidates, nil
}
