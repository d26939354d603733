package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Fomalhautarc/kucun/types"
)

// ProductRepository handles persistence for products, including the
// dynamically assembled search and partial-update statements. Only
// column and operator fragments from the fixed lists below are ever
// concatenated into SQL text; caller-supplied values always bind as
// parameters.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `p.id, p.name, p.inventory, p.price, p.category_id, p.image_key, p.created_at, p.updated_at`

func (r *ProductRepository) Get(ctx context.Context, id int) (types.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = $1`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	const query = `
		INSERT INTO products (name, inventory, price, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Inventory,
		product.Price,
		product.CategoryID,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID); err != nil {
		return types.Product{}, mapError(err)
	}
	return product, nil
}

// Search runs one parameterized SELECT assembled from the supplied
// filters. Absent filters contribute no predicate; an empty filter set
// matches every product. Zero matching rows is reported as
// ErrNotFound, the same way a single-resource miss is.
func (r *ProductRepository) Search(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	query, args := buildSearchQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []types.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products, nil
}

// UpdatePartial applies the present fields of patch to the product,
// leaving absent fields untouched. The existence check and the UPDATE
// run inside one transaction, so a concurrent delete cannot slip
// between them. A missing product is ErrNotFound; an empty patch is
// rejected by the service layer before reaching here.
func (r *ProductRepository) UpdatePartial(ctx context.Context, id int, patch types.ProductPatch) (types.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Product{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}

	query, args := buildUpdateQuery(id, patch)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return types.Product{}, mapError(err)
	}

	selectQuery := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.id = $1`
	product, err := scanProduct(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		return types.Product{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Product{}, err
	}
	return product, nil
}

// SetImageKey records the object-storage key of the product image.
func (r *ProductRepository) SetImageKey(ctx context.Context, id int, key string) error {
	const query = `UPDATE products SET image_key = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildSearchQuery turns a sparse filter into one parameterized SELECT
// joining products and categories. Predicates are ANDed in a fixed
// order; each one binds its value via a numbered placeholder.
func buildSearchQuery(filter types.ProductFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id`)

	var predicates []string
	var args []any

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		predicates = append(predicates, fmt.Sprintf("p.name LIKE $%d", len(args)))
	}
	if filter.MinInventory != nil {
		args = append(args, *filter.MinInventory)
		predicates = append(predicates, fmt.Sprintf("p.inventory >= $%d", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		predicates = append(predicates, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		predicates = append(predicates, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		predicates = append(predicates, fmt.Sprintf("c.name = $%d", len(args)))
	}

	if len(predicates) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(predicates, " AND "))
	}

	return sb.String(), args
}

// buildUpdateQuery emits one "column = $n" fragment per present patch
// field over the closed set of updatable columns, with the product id
// bound as the final parameter.
func buildUpdateQuery(id int, patch types.ProductPatch) (string, []any) {
	var fragments []string
	var args []any

	if patch.Name != nil {
		args = append(args, *patch.Name)
		fragments = append(fragments, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Inventory != nil {
		args = append(args, *patch.Inventory)
		fragments = append(fragments, fmt.Sprintf("inventory = $%d", len(args)))
	}
	if patch.Price != nil {
		args = append(args, *patch.Price)
		fragments = append(fragments, fmt.Sprintf("price = $%d", len(args)))
	}

	args = append(args, time.Now())
	fragments = append(fragments, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(fragments, ", "), len(args))
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (types.Product, error) {
	var product types.Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Inventory,
		&product.Price,
		&product.CategoryID,
		&product.ImageKey,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}
