// backend-go/internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

// The analytical engine reads observational data through these interfaces
// and never touches a database directly. Postgres implementations live in
// the postgres subpackage; tests use in-memory fakes.

// InventoryRepository reads on-hand snapshots.
type InventoryRepository interface {
	// GetOnHand returns the snapshot quantity for a store/SKU/date.
	// found is false when no snapshot exists for that key.
	GetOnHand(ctx context.Context, storeID, skuID int64, date time.Time) (qty int, found bool, err error)

	// GetLatestOnHand returns the most recent snapshot quantity.
	GetLatestOnHand(ctx context.Context, storeID, skuID int64) (qty int, found bool, err error)

	// ListActivePairs returns distinct store/SKU combinations with a
	// snapshot on or after since.
	ListActivePairs(ctx context.Context, since time.Time) ([]domain.StorePair, error)
}

// SalesRepository reads daily and hourly sales observations.
type SalesRepository interface {
	// GetDailyHistory returns daily sales between from and to inclusive,
	// ordered by date ascending.
	GetDailyHistory(ctx context.Context, storeID, skuID int64, from, to time.Time) ([]domain.SalesDaily, error)

	// GetDailySold returns the quantity sold on a single date (0 when no
	// record exists).
	GetDailySold(ctx context.Context, storeID, skuID int64, date time.Time) (float64, error)

	// GetHourlySamples returns up to limit observations matching both hour
	// of day and day of week, most recent first.
	GetHourlySamples(ctx context.Context, storeID, skuID int64, hour, dayOfWeek, limit int) ([]domain.SalesHourly, error)

	// GetHourlySamplesAnyDay returns up to limit observations matching only
	// the hour of day, most recent first.
	GetHourlySamplesAnyDay(ctx context.Context, storeID, skuID int64, hour, limit int) ([]domain.SalesHourly, error)
}

// ReceiptRepository reads receiving observations.
type ReceiptRepository interface {
	// GetReceived returns the quantity received on a date (0 when none).
	GetReceived(ctx context.Context, storeID, skuID int64, date time.Time) (float64, error)
}

// TransferRepository reads and mutates inter-store transfers.
type TransferRepository interface {
	// SumReceivedInto totals received transfers into a store for a SKU
	// whose received_at falls on date.
	SumReceivedInto(ctx context.Context, toStoreID, skuID int64, date time.Time) (float64, error)

	// SumOutboundCreated totals transfers out of a store for a SKU created
	// within date with status approved, in_transit or received.
	SumOutboundCreated(ctx context.Context, fromStoreID, skuID int64, date time.Time) (float64, error)

	// Create inserts a new transfer draft and returns its ID.
	Create(ctx context.Context, t *domain.Transfer) (int64, error)
}

// DistanceRepository reads the directional store distance matrix.
type DistanceRepository interface {
	// GetDistance returns the recorded pair, or nil when none exists.
	GetDistance(ctx context.Context, fromStoreID, toStoreID int64) (*domain.StoreDistance, error)
}

// CycleCountRepository reads physical count history.
type CycleCountRepository interface {
	// GetLatest returns the most recent count, or nil when the pair has
	// never been counted.
	GetLatest(ctx context.Context, storeID, skuID int64) (*domain.CycleCount, error)
}

// SKURepository reads item metadata.
type SKURepository interface {
	// GetByID returns the SKU or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.SKU, error)
	ListAll(ctx context.Context) ([]domain.SKU, error)

	// ListByCategories returns up to limit SKUs in the given categories.
	ListByCategories(ctx context.Context, categories []string, limit int) ([]domain.SKU, error)
}

// StoreRepository reads store metadata.
type StoreRepository interface {
	// GetByID returns the store or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Store, error)
	ListAll(ctx context.Context) ([]domain.Store, error)
}

// AnomalyRepository reads and persists detected anomaly events.
type AnomalyRepository interface {
	// ExistsForDate reports whether an event is already recorded for the
	// store/SKU/date key. Guards scan idempotence.
	ExistsForDate(ctx context.Context, storeID, skuID int64, date time.Time) (bool, error)

	// ListSince returns events for a store/SKU on or after since, ordered
	// by date ascending.
	ListSince(ctx context.Context, storeID, skuID int64, since time.Time) ([]domain.AnomalyEvent, error)

	// SaveAll persists the events of one scan pass atomically.
	SaveAll(ctx context.Context, events []domain.AnomalyEvent) error
}

// RecommendationRepository persists transfer recommendations.
type RecommendationRepository interface {
	// ReplacePending deletes pending rows and inserts the new pass output
	// in a single transaction.
	ReplacePending(ctx context.Context, recs []domain.TransferRecommendation) error

	// GetByID returns the recommendation or domain.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.TransferRecommendation, error)

	// UpdateStatus moves a recommendation to accepted or rejected.
	UpdateStatus(ctx context.Context, id int64, status domain.RecommendationStatus) error
}

// PrepRepository persists prep schedule recommendations.
type PrepRepository interface {
	// ReplacePendingForDay clears a store's pending recommendations for the
	// day and inserts the new schedule in a single transaction.
	ReplacePendingForDay(ctx context.Context, storeID int64, day time.Time, recs []domain.PrepRecommendation) error
}
