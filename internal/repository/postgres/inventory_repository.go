package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetOnHand(ctx context.Context, storeID, skuID int64, date time.Time) (int, bool, error) {
	query := `
		SELECT on_hand
		FROM inventory_snapshots
		WHERE store_id = $1 AND sku_id = $2 AND ts_date = $3
	`

	var onHand int
	err := r.db.GetContext(ctx, &onHand, query, storeID, skuID, date.Format("2006-01-02"))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return onHand, true, nil
}

func (r *inventoryRepository) GetLatestOnHand(ctx context.Context, storeID, skuID int64) (int, bool, error) {
	query := `
		SELECT on_hand
		FROM inventory_snapshots
		WHERE store_id = $1 AND sku_id = $2
		ORDER BY ts_date DESC
		LIMIT 1
	`

	var onHand int
	err := r.db.GetContext(ctx, &onHand, query, storeID, skuID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return onHand, true, nil
}

func (r *inventoryRepository) ListActivePairs(ctx context.Context, since time.Time) ([]domain.StorePair, error) {
	query := `
		SELECT DISTINCT store_id, sku_id
		FROM inventory_snapshots
		WHERE ts_date >= $1
		ORDER BY store_id, sku_id
	`

	var pairs []domain.StorePair
	if err := r.db.SelectContext(ctx, &pairs, query, since.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("failed to list active pairs: %w", err)
	}
	return pairs, nil
}
