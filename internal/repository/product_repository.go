package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// ProductRepository persists the catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	// ToggleActive flips availability and returns the new state.
	ToggleActive(ctx context.Context, id string) (bool, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	const query = `
        INSERT INTO products (name, description, category, price, old_price, size, image_url, active, best_seller)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.OldPrice,
		p.Size,
		p.ImageURL,
		p.Active,
		p.BestSeller,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *productRepository) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	query := `
        SELECT id, name, description, category, price::float8, old_price::float8, size, image_url,
               active, best_seller, created_at
        FROM products`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *productRepository) ToggleActive(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `UPDATE products SET active = NOT active WHERE id=$1 RETURNING active`, id).Scan(&active)
	return active, err
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.Price,
			&p.OldPrice,
			&p.Size,
			&p.ImageURL,
			&p.Active,
			&p.BestSeller,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
