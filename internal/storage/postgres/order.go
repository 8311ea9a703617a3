package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/wildgarden/internal/domain/order"
)

const orderColumns = `id, user_id, items, subtotal, discount_code, discount_percent, discount_amount,
	needs_shipping, shipping_cost, total, status, payment_method, customer, email_status,
	created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1 RETURNING ` + orderColumns

	updateEmailStatusSQL = `UPDATE orders SET email_status = $2 WHERE id = $1`
)

var (
	_ order.Repository        = (*OrderRepository)(nil)
	_ order.EmailStatusWriter = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Line items, customer details and the email
// status are stored as JSONB.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("marshaling customer: %w", err)
	}
	emailJSON, err := json.Marshal(o.Email)
	if err != nil {
		return fmt.Errorf("marshaling email status: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, nullable(o.UserID), itemsJSON, money(o.Subtotal),
		nullable(o.Discount.Code), o.Discount.Percent, money(o.Discount.Amount),
		o.Shipping.Needed, money(o.Shipping.Cost), money(o.Total),
		string(o.Status), o.PaymentMethod, customerJSON, emailJSON,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrAlreadyExists
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns a single order.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the newest orders owned by userID.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns the newest orders.
func (r *OrderRepository) List(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus sets the fulfillment status and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, updatedAt time.Time) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateOrderStatusSQL, id, string(status), updatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating order %q status: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating order %q status: %w", id, err)
	}
	return &o, nil
}

// UpdateEmailStatus replaces the confirmation email sub-record.
func (r *OrderRepository) UpdateEmailStatus(ctx context.Context, id string, st order.EmailStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling email status: %w", err)
	}
	tag, err := r.pool.Exec(ctx, updateEmailStatusSQL, id, data)
	if err != nil {
		return fmt.Errorf("updating order %q email status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                                  order.Order
		userID, code                       *string
		status                             string
		subtotal, discount, ship, total    decimal.Decimal
		itemsJSON, customerJSON, emailJSON []byte
	)
	err := row.Scan(
		&o.ID, &userID, &itemsJSON, &subtotal, &code, &o.Discount.Percent, &discount,
		&o.Shipping.Needed, &ship, &total, &status, &o.PaymentMethod, &customerJSON, &emailJSON,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return o, fmt.Errorf("unmarshaling customer: %w", err)
	}
	if err := json.Unmarshal(emailJSON, &o.Email); err != nil {
		return o, fmt.Errorf("unmarshaling email status: %w", err)
	}

	if userID != nil {
		o.UserID = *userID
	}
	if code != nil {
		o.Discount.Code = *code
	}
	o.Status = order.Status(status)
	o.Subtotal = subtotal.IntPart()
	o.Discount.Amount = discount.IntPart()
	o.Shipping.Cost = ship.IntPart()
	o.Total = total.IntPart()
	return o, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
