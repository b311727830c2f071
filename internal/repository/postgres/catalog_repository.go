package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shelfwatch/shelfwatch/backend-go/internal/domain"
)

type skuRepository struct {
	db *DB
}

func NewSKURepository(db *DB) *skuRepository {
	return &skuRepository{db: db}
}

func (r *skuRepository) GetByID(ctx context.Context, id int64) (*domain.SKU, error) {
	query := `
		SELECT id, name, category, unit, cost, price, is_perishable
		FROM skus
		WHERE id = $1
	`

	var sku domain.SKU
	err := r.db.GetContext(ctx, &sku, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sku: %w", err)
	}
	return &sku, nil
}

func (r *skuRepository) ListAll(ctx context.Context) ([]domain.SKU, error) {
	query := `
		SELECT id, name, category, unit, cost, price, is_perishable
		FROM skus
		ORDER BY id
	`

	var skus []domain.SKU
	if err := r.db.SelectContext(ctx, &skus, query); err != nil {
		return nil, fmt.Errorf("failed to list skus: %w", err)
	}
	return skus, nil
}

func (r *skuRepository) ListByCategories(ctx context.Context, categories []string, limit int) ([]domain.SKU, error) {
	query := `
		SELECT id, name, category, unit, cost, price, is_perishable
		FROM skus
		WHERE category IN (?)
		ORDER BY id
	`
	if limit > 0 {
		query += " LIMIT ?"
	}

	args := []interface{}{categories}
	if limit > 0 {
		args = append(args, limit)
	}

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand category list: %w", err)
	}
	query = r.db.Rebind(query)

	var skus []domain.SKU
	if err := r.db.SelectContext(ctx, &skus, query, inArgs...); err != nil {
		return nil, fmt.Errorf("failed to list skus by category: %w", err)
	}
	return skus, nil
}

type storeRepository struct {
	db *DB
}

func NewStoreRepository(db *DB) *storeRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) GetByID(ctx context.Context, id int64) (*domain.Store, error) {
	query := `
		SELECT id, name, location, latitude, longitude
		FROM stores
		WHERE id = $1
	`

	var store domain.Store
	err := r.db.GetContext(ctx, &store, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}

func (r *storeRepository) ListAll(ctx context.Context) ([]domain.Store, error) {
	query := `
		SELECT id, name, location, latitude, longitude
		FROM stores
		ORDER BY id
	`

	var stores []domain.Store
	if err := r.db.SelectContext(ctx, &stores, query); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}
