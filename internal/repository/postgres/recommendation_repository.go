package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type recommendationRepository struct {
	db *DB
}

func NewRecommendationRepository(db *DB) *recommendationRepository {
	return &recommendationRepository{db: db}
}

// ReplacePending supersedes the previous pass: pending rows are deleted and
// the new set inserted in one transaction. Accepted and rejected rows are
// untouched.
func (r *recommendationRepository) ReplacePending(ctx context.Context, recs []domain.TransferRecommendation) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transfer_recommendations WHERE status = 'pending'`); err != nil {
			return fmt.Errorf("failed to clear pending recommendations: %w", err)
		}

		if len(recs) == 0 {
			return nil
		}

		query := `
			INSERT INTO transfer_recommendations (
				from_store_id, to_store_id, sku_id, qty,
				urgency_score, rationale, status, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			_, err := stmt.ExecContext(ctx,
				rec.FromStoreID, rec.ToStoreID, rec.SKUID, rec.Qty,
				rec.UrgencyScore, rec.Rationale, rec.Status, rec.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation: %w", err)
			}
		}
		return nil
	})
}

func (r *recommendationRepository) GetByID(ctx context.Context, id int64) (*domain.TransferRecommendation, error) {
	query := `
		SELECT id, from_store_id, to_store_id, sku_id, qty,
		       urgency_score, rationale, status, created_at
		FROM transfer_recommendations
		WHERE id = $1
	`

	var rec domain.TransferRecommendation
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return &rec, nil
}

func (r *recommendationRepository) UpdateStatus(ctx context.Context, id int64, status domain.RecommendationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transfer_recommendations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update recommendation status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type prepRepository struct {
	db *DB
}

func NewPrepRepository(db *DB) *prepRepository {
	return &prepRepository{db: db}
}

// ReplacePendingForDay clears a store's pending prep rows for the day and
// inserts the regenerated schedule in one transaction.
func (r *prepRepository) ReplacePendingForDay(ctx context.Context, storeID int64, day time.Time, recs []domain.PrepRecommendation) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM prep_recommendations
			 WHERE store_id = $1 AND status = 'pending' AND prep_time::date = $2`,
			storeID, day.Format("2006-01-02")); err != nil {
			return fmt.Errorf("failed to clear pending prep rows: %w", err)
		}

		if len(recs) == 0 {
			return nil
		}

		query := `
			INSERT INTO prep_recommendations (
				store_id, sku_id, prep_time, qty_to_prep,
				reason, priority, status, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			_, err := stmt.ExecContext(ctx,
				rec.StoreID, rec.SKUID, rec.PrepTime, rec.QtyToPrep,
				rec.Reason, rec.Priority, rec.Status, rec.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert prep recommendation: %w", err)
			}
		}
		return nil
	})
}
