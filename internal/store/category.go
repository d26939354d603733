package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Fomalhautarc/kucun/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category. Name uniqueness is enforced by the
// database; a duplicate surfaces as ErrConflict.
func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	category.CreatedAt = time.Now()

	const query = `
		INSERT INTO categories (name, created_at)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		category.Name,
		category.CreatedAt,
	).Scan(&category.ID); err != nil {
		return types.Category{}, mapError(err)
	}
	return category, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int) (types.Category, error) {
	const query = `SELECT id, name, created_at FROM categories WHERE id = $1`
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}
