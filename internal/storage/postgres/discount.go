package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/wildgarden/internal/domain/discount"
)

const discountColumns = `code, percent, enabled, start_at, end_at, created_at, updated_at`

const (
	findDiscountCodeSQL = `SELECT ` + discountColumns + ` FROM discount_codes WHERE code = $1`

	listDiscountCodesSQL = `SELECT ` + discountColumns + ` FROM discount_codes
		ORDER BY created_at DESC, code LIMIT $1`

	createDiscountCodeSQL = `INSERT INTO discount_codes (` + discountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertDiscountCodeIfAbsentSQL = createDiscountCodeSQL + ` ON CONFLICT (code) DO NOTHING`

	updateDiscountCodeSQL = `UPDATE discount_codes
		SET percent = $2, enabled = $3, start_at = $4, end_at = $5, updated_at = $6
		WHERE code = $1`

	deleteDiscountCodeSQL = `DELETE FROM discount_codes WHERE code = $1`

	allDiscountCodesSQL = `SELECT code FROM discount_codes`
)

var _ discount.Repository = (*DiscountCodeRepository)(nil)

// DiscountCodeRepository implements discount.Repository backed by PostgreSQL.
type DiscountCodeRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountCodeRepository returns a DiscountCodeRepository that uses the
// given pool.
func NewDiscountCodeRepository(pool *pgxpool.Pool) *DiscountCodeRepository {
	return &DiscountCodeRepository{pool: pool}
}

// FindByCode looks up a code by its normalized form.
func (r *DiscountCodeRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, findDiscountCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDiscountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

// List returns up to limit codes, newest first.
func (r *DiscountCodeRepository) List(ctx context.Context, limit int) ([]discount.Code, error) {
	rows, err := r.pool.Query(ctx, listDiscountCodesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscountCode)
}

// Create inserts a new code.
func (r *DiscountCodeRepository) Create(ctx context.Context, c *discount.Code) error {
	if _, err := r.pool.Exec(ctx, createDiscountCodeSQL, discountArgs(c)...); err != nil {
		if isUniqueViolation(err) {
			return discount.ErrAlreadyExists
		}
		return fmt.Errorf("creating discount code %q: %w", c.Code, err)
	}
	return nil
}

// Update overwrites percent, enabled flag and window of an existing code.
func (r *DiscountCodeRepository) Update(ctx context.Context, c *discount.Code) error {
	tag, err := r.pool.Exec(ctx, updateDiscountCodeSQL,
		c.Code, c.Percent, c.Enabled, c.Window.Start, c.Window.End, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating discount code %q: %w", c.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// Delete removes a code.
func (r *DiscountCodeRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountCodeSQL, code)
	if err != nil {
		return fmt.Errorf("deleting discount code %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// AllCodes streams every stored code to fn.
func (r *DiscountCodeRepository) AllCodes(ctx context.Context, fn func(code string)) error {
	rows, err := r.pool.Query(ctx, allDiscountCodesSQL)
	if err != nil {
		return fmt.Errorf("listing all discount codes: %w", err)
	}
	var code string
	_, err = pgx.ForEachRow(rows, []any{&code}, func() error {
		fn(code)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning discount codes: %w", err)
	}
	return nil
}

// InsertMissing inserts codes in one batch, skipping any that already exist,
// and returns how many rows were written.
func (r *DiscountCodeRepository) InsertMissing(ctx context.Context, codes []discount.Code) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for i := range codes {
		batch.Queue(insertDiscountCodeIfAbsentSQL, discountArgs(&codes[i])...)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	var inserted int64
	for i := range codes {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("inserting discount code %q: %w", codes[i].Code, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// Upsert inserts or replaces a code. Used by catalog seeding.
func (r *DiscountCodeRepository) Upsert(ctx context.Context, c *discount.Code) error {
	const q = createDiscountCodeSQL + ` ON CONFLICT (code) DO UPDATE SET
		percent = EXCLUDED.percent, enabled = EXCLUDED.enabled,
		start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.pool.Exec(ctx, q, discountArgs(c)...); err != nil {
		return fmt.Errorf("upserting discount code %q: %w", c.Code, err)
	}
	return nil
}

func discountArgs(c *discount.Code) []any {
	return []any{c.Code, c.Percent, c.Enabled, c.Window.Start, c.Window.End, c.CreatedAt, c.UpdatedAt}
}

func scanDiscountCode(row pgx.CollectableRow) (discount.Code, error) {
	var c discount.Code
	err := row.Scan(&c.Code, &c.Percent, &c.Enabled, &c.Window.Start, &c.Window.End, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
