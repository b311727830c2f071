package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type receiptRepository struct {
	db *DB
}

func NewReceiptRepository(db *DB) *receiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) GetReceived(ctx context.Context, storeID, skuID int64, date time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(qty_received), 0)
		FROM receipts
		WHERE store_id = $1 AND sku_id = $2 AND ts_date = $3
	`

	var received float64
	err := r.db.GetContext(ctx, &received, query, storeID, skuID, date.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to sum receipts: %w", err)
	}
	return received, nil
}

type transferRepository struct {
	db *DB
}

func NewTransferRepository(db *DB) *transferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) SumReceivedInto(ctx context.Context, toStoreID, skuID int64, date time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(qty), 0)
		FROM transfers
		WHERE to_store_id = $1 AND sku_id = $2
		  AND status = 'received'
		  AND received_at::date = $3
	`

	var total float64
	err := r.db.GetContext(ctx, &total, query, toStoreID, skuID, date.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to sum inbound transfers: %w", err)
	}
	return total, nil
}

func (r *transferRepository) SumOutboundCreated(ctx context.Context, fromStoreID, skuID int64, date time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(qty), 0)
		FROM transfers
		WHERE from_store_id = $1 AND sku_id = $2
		  AND status IN ('approved', 'in_transit', 'received')
		  AND created_at::date = $3
	`

	var total float64
	err := r.db.GetContext(ctx, &total, query, fromStoreID, skuID, date.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to sum outbound transfers: %w", err)
	}
	return total, nil
}

func (r *transferRepository) Create(ctx context.Context, t *domain.Transfer) (int64, error) {
	query := `
		INSERT INTO transfers (from_store_id, to_store_id, sku_id, qty, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		t.FromStoreID, t.ToStoreID, t.SKUID, t.Qty, t.Status, t.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create transfer: %w", err)
	}
	t.ID = id
	return id, nil
}

type distanceRepository struct {
	db *DB
}

func NewDistanceRepository(db *DB) *distanceRepository {
	return &distanceRepository{db: db}
}

func (r *distanceRepository) GetDistance(ctx context.Context, fromStoreID, toStoreID int64) (*domain.StoreDistance, error) {
	query := `
		SELECT from_store_id, to_store_id, distance_km, transfer_cost
		FROM store_distances
		WHERE from_store_id = $1 AND to_store_id = $2
	`

	var dist domain.StoreDistance
	err := r.db.GetContext(ctx, &dist, query, fromStoreID, toStoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distance: %w", err)
	}
	return &dist, nil
}

type cycleCountRepository struct {
	db *DB
}

func NewCycleCountRepository(db *DB) *cycleCountRepository {
	return &cycleCountRepository{db: db}
}

func (r *cycleCountRepository) GetLatest(ctx context.Context, storeID, skuID int64) (*domain.CycleCount, error) {
	query := `
		SELECT id, store_id, sku_id, ts_date, counted_qty
		FROM cycle_counts
		WHERE store_id = $1 AND sku_id = $2
		ORDER BY ts_date DESC
		LIMIT 1
	`

	var count domain.CycleCount
	err := r.db.GetContext(ctx, &count, query, storeID, skuID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest count: %w", err)
	}
	return &count, nil
}
