package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type anomalyRepository struct {
	db *DB
}

func NewAnomalyRepository(db *DB) *anomalyRepository {
	return &anomalyRepository{db: db}
}

func (r *anomalyRepository) ExistsForDate(ctx context.Context, storeID, skuID int64, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM anomaly_events
			WHERE store_id = $1 AND sku_id = $2 AND ts_date = $3
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, storeID, skuID, date.Format("2006-01-02"))
	if err != nil {
		return false, fmt.Errorf("failed to check anomaly existence: %w", err)
	}
	return exists, nil
}

func (r *anomalyRepository) ListSince(ctx context.Context, storeID, skuID int64, since time.Time) ([]domain.AnomalyEvent, error) {
	query := `
		SELECT id, store_id, sku_id, ts_date, residual, severity, explanation_hint
		FROM anomaly_events
		WHERE store_id = $1 AND sku_id = $2 AND ts_date >= $3
		ORDER BY ts_date ASC
	`

	var events []domain.AnomalyEvent
	err := r.db.SelectContext(ctx, &events, query, storeID, skuID, since.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list anomaly events: %w", err)
	}
	return events, nil
}

// SaveAll writes the events of one scan pass in a single transaction: a
// failed scan leaves no partial results.
func (r *anomalyRepository) SaveAll(ctx context.Context, events []domain.AnomalyEvent) error {
	if len(events) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO anomaly_events (store_id, sku_id, ts_date, residual, severity, explanation_hint)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (store_id, sku_id, ts_date) DO NOTHING
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			_, err := stmt.ExecContext(ctx,
				e.StoreID, e.SKUID, e.Date.Format("2006-01-02"), e.Residual, e.Severity, e.Explanation)
			if err != nil {
				return fmt.Errorf("failed to insert anomaly event: %w", err)
			}
		}
		return nil
	})
}
