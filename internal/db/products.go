package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxeshopapp/luxeshop/internal/lifecycle"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const selectProduct = `
	SELECT id, name, description, price_cents, original_cents, image, category, stock, is_active, created_at, updated_at
	FROM products
`

func (s *ProductStore) List(ctx context.Context, activeOnly bool) ([]*Product, error) {
	query := selectProduct + ` ORDER BY created_at DESC`
	if activeOnly {
		query = selectProduct + ` WHERE is_active ORDER BY created_at DESC`
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (s *ProductStore) GetByID(ctx context.Context, productID uuid.UUID) (*Product, error) {
	rows, err := s.pool.Query(ctx, selectProduct+` WHERE id = $1`, productID)
	if err != nil {
		return nil, err
	}

	product, err := pgx.CollectOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductStore) Create(ctx context.Context, product *Product) error {
	var createdAt, updatedAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, price_cents, original_cents, image, category, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, product.Name, product.Description, product.PriceCents,
		pgtype.Int4{Int32: int32(product.OriginalCents), Valid: product.OriginalCents > 0},
		product.Image, product.Category, product.Stock, product.IsActive,
	).Scan(&product.ID, &createdAt, &updatedAt)
	if err != nil {
		return err
	}

	product.CreatedAt = createdAt.Time
	product.UpdatedAt = updatedAt.Time
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, productID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (s *ProductStore) SetActive(ctx context.Context, productID uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET is_active = $1, updated_at = now() WHERE id = $2
	`, active, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

func (s *ProductStore) UpdateStock(ctx context.Context, productID uuid.UUID, stock int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET stock = $1, updated_at = now() WHERE id = $2
	`, stock, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}

// SeedIfEmpty inserts the given products when the table has no rows yet.
// Returns whether seeding happened.
func (s *ProductStore) SeedIfEmpty(ctx context.Context, products []*Product) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	for _, product := range products {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (name, description, price_cents, original_cents, image, category, stock, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, product.Name, product.Description, product.PriceCents,
			pgtype.Int4{Int32: int32(product.OriginalCents), Valid: product.OriginalCents > 0},
			product.Image, product.Category, product.Stock, product.IsActive)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func scanProduct(row pgx.CollectableRow) (*Product, error) {
	var (
		product       Product
		originalCents pgtype.Int4
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.PriceCents,
		&originalCents, &product.Image, &product.Category, &product.Stock, &product.IsActive,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if originalCents.Valid {
		product.OriginalCents = int(originalCents.Int32)
	}
	product.CreatedAt = createdAt.Time
	product.UpdatedAt = updatedAt.Time
	return &product, nil
}
