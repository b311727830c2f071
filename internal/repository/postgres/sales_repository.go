package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetDailyHistory(ctx context.Context, storeID, skuID int64, from, to time.Time) ([]domain.SalesDaily, error) {
	query := `
		SELECT id, store_id, sku_id, ts_date, qty_sold
		FROM sales_daily
		WHERE store_id = $1 AND sku_id = $2 AND ts_date BETWEEN $3 AND $4
		ORDER BY ts_date ASC
	`

	var history []domain.SalesDaily
	err := r.db.SelectContext(ctx, &history, query,
		storeID, skuID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily history: %w", err)
	}
	return history, nil
}

func (r *salesRepository) GetDailySold(ctx context.Context, storeID, skuID int64, date time.Time) (float64, error) {
	query := `
		SELECT qty_sold
		FROM sales_daily
		WHERE store_id = $1 AND sku_id = $2 AND ts_date = $3
	`

	var sold float64
	err := r.db.GetContext(ctx, &sold, query, storeID, skuID, date.Format("2006-01-02"))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get daily sold: %w", err)
	}
	return sold, nil
}

func (r *salesRepository) GetHourlySamples(ctx context.Context, storeID, skuID int64, hour, dayOfWeek, limit int) ([]domain.SalesHourly, error) {
	query := `
		SELECT id, store_id, sku_id, ts_datetime, hour_of_day, day_of_week, qty_sold
		FROM sales_hourly
		WHERE store_id = $1 AND sku_id = $2 AND hour_of_day = $3 AND day_of_week = $4
		ORDER BY ts_datetime DESC
		LIMIT $5
	`

	var samples []domain.SalesHourly
	err := r.db.SelectContext(ctx, &samples, query, storeID, skuID, hour, dayOfWeek, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get hourly samples: %w", err)
	}
	return samples, nil
}

func (r *salesRepository) GetHourlySamplesAnyDay(ctx context.Context, storeID, skuID int64, hour, limit int) ([]domain.SalesHourly, error) {
	query := `
		SELECT id, store_id, sku_id, ts_datetime, hour_of_day, day_of_week, qty_sold
		FROM sales_hourly
		WHERE store_id = $1 AND sku_id = $2 AND hour_of_day = $3
		ORDER BY ts_datetime DESC
		LIMIT $4
	`

	var samples []domain.SalesHourly
	err := r.db.SelectContext(ctx, &samples, query, storeID, skuID, hour, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get hourly samples (any day): %w", err)
	}
	return samples, nil
}
