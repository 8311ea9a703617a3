package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/wildgarden/internal/domain/validate"
)

var (
	// ErrNotFound is returned when no order matches the given id.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyExists is returned when a client-supplied order id is taken.
	ErrAlreadyExists = errors.New("order already exists")
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]struct{}{
	StatusPending:   {},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// ParseStatus converts s to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validStatuses[st]; !ok {
		return "", validate.New("status", "unknown status %q", s)
	}
	return st, nil
}

// Order is a priced, persisted customer order. Line prices are fixed at
// creation and never recomputed.
type Order struct {
	ID            string
	UserID        string
	Items         []LineItem
	Subtotal      int64
	Discount      AppliedDiscount
	Shipping      Shipping
	Total         int64
	Status        Status
	PaymentMethod string
	Customer      Customer
	Email         EmailStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LineItem is a single priced cart line.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	// UnitPrice is the price after the product discount.
	UnitPrice         int64  `json:"unit_price"`
	OriginalUnitPrice int64  `json:"original_unit_price"`
	DiscountPercent   int    `json:"discount_percent"`
	GiftMessage       string `json:"gift_message,omitempty"`
}

// LineTotal returns UnitPrice times Quantity.
func (l LineItem) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// AppliedDiscount is the order-level discount code outcome. Code is empty
// when no code was applied.
type AppliedDiscount struct {
	Code    string
	Percent int
	Amount  int64
}

// Shipping records whether delivery was requested and what it cost.
type Shipping struct {
	Needed bool
	Cost   int64
}

// Customer holds contact and delivery details as entered by the customer.
type Customer struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	DeliveryDate  string `json:"delivery_date,omitempty"`
	DeliveryTime  string `json:"delivery_time,omitempty"`
	DeliveryNotes string `json:"delivery_notes,omitempty"`
}

// EmailState is the confirmation email dispatch state.
type EmailState string

const (
	EmailSending EmailState = "sending"
	EmailSent    EmailState = "sent"
	EmailError   EmailState = "error"
	EmailSkipped EmailState = "skipped"
)

// EmailStatus is the auxiliary confirmation email record. It is written by
// the mail dispatcher only.
type EmailStatus struct {
	Status    EmailState `json:"status,omitempty"`
	MessageID string     `json:"message_id,omitempty"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Order, error)
	List(ctx context.Context, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) (*Order, error)
}

// EmailStatusWriter records confirmation email progress on an order.
type EmailStatusWriter interface {
	UpdateEmailStatus(ctx context.Context, id string, st EmailStatus) error
}

// Notifier is told about every newly created order. Implementations must not
// block and cannot fail the caller.
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order)
}
