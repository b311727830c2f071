package domain

import (
	"fmt"
	"time"
)

// TransferStatus is the lifecycle state of a Transfer. The machine is linear
// (draft -> approved -> in_transit -> received) with cancelled reachable from
// any non-terminal state.
type TransferStatus string

const (
	TransferDraft     TransferStatus = "draft"
	TransferApproved  TransferStatus = "approved"
	TransferInTransit TransferStatus = "in_transit"
	TransferReceived  TransferStatus = "received"
	TransferCancelled TransferStatus = "cancelled"
)

var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferDraft:     {TransferApproved, TransferCancelled},
	TransferApproved:  {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferReceived, TransferCancelled},
	TransferReceived:  {},
	TransferCancelled: {},
}

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func (s TransferStatus) IsTerminal() bool {
	return len(transferTransitions[s]) == 0
}

// Transition advances the transfer to next, stamping ReceivedAt only on the
// transition into received.
func (t *Transfer) Transition(next TransferStatus, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("transfer %d: illegal transition %s -> %s: %w", t.ID, t.Status, next, ErrInvalidTransition)
	}
	if next == TransferReceived {
		received := at
		t.ReceivedAt = &received
	}
	t.Status = next
	return nil
}

// RecommendationStatus is the review state of a TransferRecommendation.
type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "pending"
	RecommendationAccepted RecommendationStatus = "accepted"
	RecommendationRejected RecommendationStatus = "rejected"
)

// PrepStatus is the completion state of a PrepRecommendation.
type PrepStatus string

const (
	PrepPending   PrepStatus = "pending"
	PrepCompleted PrepStatus = "completed"
	PrepSkipped   PrepStatus = "skipped"
)
