// backend-go/internal/transfer/optimizer.go
package transfer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/forecast"
	"github.com/shelfwatch/shelfwatch/backend-go/internal/repository"
)

// urgencyRules is the ordered step function from days-of-cover to urgency.
// The first bound the cover fits under wins; anything above the last bound
// gets the floor value.
var urgencyRules = []struct {
	MaxCover float64
	Urgency  float64
}{
	{0, 1.0},
	{3, 0.9},
	{7, 0.7},
	{14, 0.5},
}

const urgencyFloor = 0.3

// UrgencyFor maps a receiver's days-of-cover to a [0,1] urgency score.
func UrgencyFor(daysOfCover float64) float64 {
	for _, rule := range urgencyRules {
		if daysOfCover <= rule.MaxCover {
			return rule.Urgency
		}
	}
	return urgencyFloor
}

// receiver is a location short of its target cover for one SKU.
type receiver struct {
	store       domain.Store
	need        float64
	urgency     float64
	daysOfCover float64
	onHand      float64
	dailyDemand float64
}

// donor is a location holding more than target plus buffer for one SKU.
type donor struct {
	store       domain.Store
	surplus     float64
	daysOfCover float64
	onHand      float64
	dailyDemand float64
}

// allocationState carries the remaining donor surplus and receiver need
// through one greedy matching pass. Each pass builds its own state from the
// read snapshot; allocate returns an updated copy, so a pass is a single
// forward fold with no backtracking and no shared mutable structure.
type allocationState struct {
	donors    []donor
	receivers []receiver
}

// allocate applies a transfer of qty from the donor at dIdx to the receiver
// at rIdx and returns the updated state.
func (st allocationState) allocate(rIdx, dIdx int, qty float64) allocationState {
	next := allocationState{
		donors:    append([]donor(nil), st.donors...),
		receivers: append([]receiver(nil), st.receivers...),
	}
	next.donors[dIdx].surplus -= qty
	next.donors[dIdx].onHand -= qty
	next.receivers[rIdx].need -= qty
	return next
}

// Optimizer matches surplus stock to urgent deficits across locations,
// weighing donors by surplus and proximity.
type Optimizer struct {
	stores     repository.StoreRepository
	skus       repository.SKURepository
	inventory  repository.InventoryRepository
	distances  repository.DistanceRepository
	forecaster *forecast.Forecaster
	cfg        config.TransferConfig
}

func NewOptimizer(
	stores repository.StoreRepository,
	skus repository.SKURepository,
	inventory repository.InventoryRepository,
	distances repository.DistanceRepository,
	forecaster *forecast.Forecaster,
	cfg config.TransferConfig,
) *Optimizer {
	return &Optimizer{
		stores:     stores,
		skus:       skus,
		inventory:  inventory,
		distances:  distances,
		forecaster: forecaster,
		cfg:        cfg,
	}
}

// Pass evaluates every tracked SKU across all locations and returns the
// recommended transfers, sorted by descending urgency. The pass is
// deterministic for an unchanged snapshot.
func (o *Optimizer) Pass(ctx context.Context, asOf time.Time) ([]domain.TransferRecommendation, error) {
	stores, err := o.stores.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("transfer: list stores: %w", err)
	}
	skus, err := o.skus.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("transfer: list skus: %w", err)
	}

	var recommendations []domain.TransferRecommendation
	for _, sku := range skus {
		state, err := o.classify(ctx, stores, sku.ID, asOf)
		if err != nil {
			return nil, err
		}

		recs, err := o.match(ctx, state, sku, asOf)
		if err != nil {
			return nil, err
		}
		recommendations = append(recommendations, recs...)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].UrgencyScore > recommendations[j].UrgencyScore
	})
	return recommendations, nil
}

// classify splits the locations into receivers and donors for one SKU using
// each location's own demand forecast.
func (o *Optimizer) classify(ctx context.Context, stores []domain.Store, skuID int64, asOf time.Time) (allocationState, error) {
	var state allocationState

	for _, store := range stores {
		onHandQty, found, err := o.inventory.GetLatestOnHand(ctx, store.ID, skuID)
		if err != nil {
			return allocationState{}, fmt.Errorf("transfer: on hand for store %d: %w", store.ID, err)
		}
		if !found {
			continue
		}
		onHand := float64(onHandQty)

		fc, err := o.forecaster.Demand(ctx, store.ID, skuID, asOf)
		if err != nil {
			return allocationState{}, err
		}
		if !o.forecaster.MeasurableDemand(fc) {
			continue
		}

		target := fc.DailyDemand * float64(o.cfg.TargetCoverDays)
		buffer := fc.DailyDemand * float64(o.cfg.SafetyBufferDays)
		need := math.Max(0, target-onHand)
		surplus := math.Max(0, onHand-(target+buffer))
		daysOfCover := o.forecaster.DaysOfCover(fc, onHand)

		if need > 0 {
			urgency := UrgencyFor(daysOfCover)
			if urgency >= o.cfg.MinUrgency {
				state.receivers = append(state.receivers, receiver{
					store:       store,
					need:        need,
					urgency:     urgency,
					daysOfCover: daysOfCover,
					onHand:      onHand,
					dailyDemand: fc.DailyDemand,
				})
			}
		}
		if surplus > 0 {
			state.donors = append(state.donors, donor{
				store:       store,
				surplus:     surplus,
				daysOfCover: daysOfCover,
				onHand:      onHand,
				dailyDemand: fc.DailyDemand,
			})
		}
	}

	// Highest urgency first; store ID breaks ties so a pass over an
	// unchanged snapshot is reproducible.
	sort.SliceStable(state.receivers, func(i, j int) bool {
		if state.receivers[i].urgency != state.receivers[j].urgency {
			return state.receivers[i].urgency > state.receivers[j].urgency
		}
		return state.receivers[i].store.ID < state.receivers[j].store.ID
	})
	return state, nil
}

// match folds the allocation state over the receivers in urgency order. A
// donor drained by an earlier receiver is unavailable to later ones.
func (o *Optimizer) match(ctx context.Context, state allocationState, sku domain.SKU, asOf time.Time) ([]domain.TransferRecommendation, error) {
	var recs []domain.TransferRecommendation

	for rIdx := range state.receivers {
		rcv := state.receivers[rIdx]
		if rcv.need <= 0 {
			continue
		}

		dIdx, dist, err := o.bestDonor(ctx, state.donors, rcv.store.ID)
		if err != nil {
			return nil, err
		}
		if dIdx < 0 {
			continue
		}
		dnr := state.donors[dIdx]

		qty := math.Floor(math.Min(rcv.need, math.Min(dnr.surplus, float64(o.cfg.MaxSupplyDays)*rcv.dailyDemand)))
		if qty < 1 {
			continue
		}

		receiverAfter := (rcv.onHand + qty) / rcv.dailyDemand
		donorAfter := (dnr.onHand - qty) / dnr.dailyDemand

		rationale := fmt.Sprintf(
			"Receiver (%s) will stock out in %.1f days. Donor (%s) has %.1f days excess. "+
				"Transfer %.0f units prevents stockout. After transfer: receiver %.1f days, donor %.1f days.",
			rcv.store.Name, rcv.daysOfCover, dnr.store.Name, dnr.daysOfCover,
			qty, receiverAfter, donorAfter)

		rec := domain.TransferRecommendation{
			FromStoreID:   dnr.store.ID,
			ToStoreID:     rcv.store.ID,
			SKUID:         sku.ID,
			Qty:           int(qty),
			UrgencyScore:  rcv.urgency,
			Rationale:     rationale,
			Status:        domain.RecommendationPending,
			CreatedAt:     asOf,
			FromStoreName: dnr.store.Name,
			ToStoreName:   rcv.store.Name,
			SKUName:       sku.Name,
		}
		if dist != nil {
			rec.DistanceKM = &dist.DistanceKM
			rec.TransferCost = &dist.TransferCost
		}
		recs = append(recs, rec)

		state = state.allocate(rIdx, dIdx, qty)
	}
	return recs, nil
}

// bestDonor picks the donor maximizing surplus / (1 + distance/100) among
// donors with remaining surplus. Unknown distances are penalized with the
// configured default rather than excluded. Returns -1 when no donor remains.
func (o *Optimizer) bestDonor(ctx context.Context, donors []donor, receiverStoreID int64) (int, *domain.StoreDistance, error) {
	bestIdx := -1
	bestScore := math.Inf(-1)
	var bestDist *domain.StoreDistance

	for i, d := range donors {
		if d.surplus <= 0 {
			continue
		}

		dist, err := o.distances.GetDistance(ctx, d.store.ID, receiverStoreID)
		if err != nil {
			return -1, nil, fmt.Errorf("transfer: distance %d->%d: %w", d.store.ID, receiverStoreID, err)
		}
		distanceKM := o.cfg.DefaultDistanceKM
		if dist != nil {
			distanceKM = dist.DistanceKM
		}

		score := d.surplus / (1 + distanceKM/100)
		if score > bestScore {
			bestIdx = i
			bestScore = score
			bestDist = dist
		}
	}
	return bestIdx, bestDist, nil
}

// OpportunitySummary buckets a recommendation set for dashboards.
type OpportunitySummary struct {
	TotalOpportunities int     `json:"total_opportunities"`
	HighUrgency        int     `json:"high_urgency"`
	MediumUrgency      int     `json:"medium_urgency"`
	LowUrgency         int     `json:"low_urgency"`
	TotalUnits         int     `json:"total_units"`
	EstimatedSavings   float64 `json:"estimated_savings"`
}

// preventedStockoutValue is the assumed saving per recommended transfer.
const preventedStockoutValue = 50

// Summarize buckets recommendations by urgency band.
func Summarize(recs []domain.TransferRecommendation) OpportunitySummary {
	summary := OpportunitySummary{TotalOpportunities: len(recs)}
	for _, r := range recs {
		switch {
		case r.UrgencyScore >= 0.8:
			summary.HighUrgency++
		case r.UrgencyScore >= 0.5:
			summary.MediumUrgency++
		default:
			summary.LowUrgency++
		}
		summary.TotalUnits += r.Qty
	}
	summary.EstimatedSavings = float64(len(recs)) * preventedStockoutValue
	return summary
}
