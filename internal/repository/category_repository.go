package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grocery-storefront/internal/domain"
)

// CategoryRepository persists storefront categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]domain.Category, error)
	Delete(ctx context.Context, id string) error
	// EnsureNames inserts the named categories that do not exist yet and
	// returns how many were added.
	EnsureNames(ctx context.Context, names []string) (int, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	const query = `
        INSERT INTO categories (name, image_url)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, c.Name, c.ImageURL).Scan(&c.ID, &c.CreatedAt)
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, image_url, created_at FROM categories ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) EnsureNames(ctx context.Context, names []string) (int, error) {
	batch := &pgx.Batch{}
	for _, name := range names {
		batch.Queue(`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	added := 0
	for range names {
		cmd, err := results.Exec()
		if err != nil {
			return added, err
		}
		added += int(cmd.RowsAffected())
	}
	return added, nil
}
