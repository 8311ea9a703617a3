package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/wildgarden/internal/domain/product"
)

const productColumns = `id, name, description, category, image_url, price,
	discount_percent, discount_enabled, discount_start_at, discount_end_at,
	active, created_at, updated_at`

const (
	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY name, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	updateProductSQL = `UPDATE products SET
		name = $2, description = $3, category = $4, image_url = $5, price = $6,
		discount_percent = $7, discount_enabled = $8, discount_start_at = $9, discount_end_at = $10,
		active = $11, updated_at = $12
		WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, description = EXCLUDED.description, category = EXCLUDED.category,
		image_url = EXCLUDED.image_url, price = EXCLUDED.price,
		discount_percent = EXCLUDED.discount_percent, discount_enabled = EXCLUDED.discount_enabled,
		discount_start_at = EXCLUDED.discount_start_at, discount_end_at = EXCLUDED.discount_end_at,
		active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
)

var _ product.Store = (*ProductRepository)(nil)

// ProductRepository implements product.Store backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by name.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs in one query.
// Unknown IDs are simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	if _, err := r.pool.Exec(ctx, createProductSQL, productArgs(p)...); err != nil {
		if isUniqueViolation(err) {
			return product.ErrAlreadyExists
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Category, p.ImageURL, money(p.Price),
		p.Discount.Percent, p.Discount.Enabled, p.Discount.Window.Start, p.Discount.Window.End,
		p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Upsert inserts or replaces a product. Used by catalog seeding.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	if _, err := r.pool.Exec(ctx, upsertProductSQL, productArgs(p)...); err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func productArgs(p *product.Product) []any {
	return []any{
		p.ID, p.Name, p.Description, p.Category, p.ImageURL, money(p.Price),
		p.Discount.Percent, p.Discount.Enabled, p.Discount.Window.Start, p.Discount.Window.End,
		p.Active, p.CreatedAt, p.UpdatedAt,
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageURL, &price,
		&p.Discount.Percent, &p.Discount.Enabled, &p.Discount.Window.Start, &p.Discount.Window.End,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Price = price.IntPart()
	return p, err
}
