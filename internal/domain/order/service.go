package order

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/pricing"
	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/internal/domain/validate"
)

const (
	// DefaultShippingCost is the flat delivery fee.
	DefaultShippingCost int64 = 5000
	// MaxGiftMessageLength is measured in characters, not bytes.
	MaxGiftMessageLength = 300

	maxOrderIDLength = 128
	maxLineQuantity  = 1_000_000
	userListLimit    = 50
	adminListLimit   = 200
)

// CartLine is one requested cart entry. Quantity is floored; client prices
// are never accepted.
type CartLine struct {
	ProductID   string
	Quantity    float64
	GiftMessage string
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	// OrderID is an optional client reference. A UUID is generated when empty.
	OrderID       string
	UserID        string
	Lines         []CartLine
	DiscountCode  string
	NeedsShipping bool
	PaymentMethod string
	Customer      Customer
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	ShippingCost   int64
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Service encapsulates order pricing, creation and lifecycle updates.
type Service struct {
	products     product.Repository
	codes        discount.Validator
	orders       Repository
	notifier     Notifier
	shippingCost int64
	now          func() time.Time
	newID        func() string

	tracer  trace.Tracer
	created metric.Int64Counter
	totals  metric.Int64Histogram
}

// NewService creates an order Service with the required domain dependencies.
// A nil notifier disables confirmation emails.
func NewService(
	products product.Repository,
	codes discount.Validator,
	orders Repository,
	notifier Notifier,
	opts Options,
) (*Service, error) {
	if opts.ShippingCost <= 0 {
		opts.ShippingCost = DefaultShippingCost
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	const scope = "github.com/xenking/wildgarden/internal/domain/order"
	meter := opts.MeterProvider.Meter(scope)
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders persisted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.created counter")
	}
	totals, err := meter.Int64Histogram("orders.total",
		metric.WithDescription("Grand total of created orders"),
		metric.WithUnit("{CLP}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.total histogram")
	}

	return &Service{
		products:     products,
		codes:        codes,
		orders:       orders,
		notifier:     notifier,
		shippingCost: opts.ShippingCost,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		tracer:       opts.TracerProvider.Tracer(scope),
		created:      created,
		totals:       totals,
	}, nil
}

// CreateOrder prices the cart from stored product data, applies the product
// and code discounts, adds shipping, and persists the order. The confirmation
// email is handed to the notifier after the write and never affects the result.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (_ *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	orderID := strings.TrimSpace(req.OrderID)
	if utf8.RuneCountInString(orderID) > maxOrderIDLength {
		return nil, validate.New("order_id", "must be at most %d characters", maxOrderIDLength)
	}

	lines, err := cleanLines(req.Lines)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("order.lines", len(lines)))

	// Batch fetch all products in a single query.
	ids := lo.Uniq(lo.Map(lines, func(l CartLine, _ int) string { return l.ProductID }))
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, &StorageError{Op: "get products", Err: err}
	}
	byID := lo.KeyBy(fetched, func(p product.Product) string { return p.ID })

	missing := lo.Filter(ids, func(id string, _ int) bool {
		_, ok := byID[id]
		return !ok
	})
	if len(missing) > 0 {
		return nil, &ProductNotFoundError{IDs: missing}
	}

	now := s.now()
	items := make([]LineItem, len(lines))
	var subtotal int64
	for i, l := range lines {
		p := byID[l.ProductID]
		pct := product.ActiveDiscountPercent(p, now)
		items[i] = LineItem{
			ProductID:         p.ID,
			Name:              p.Name,
			Quantity:          int(l.Quantity),
			UnitPrice:         pricing.DiscountedPrice(p.Price, pct),
			OriginalUnitPrice: p.Price,
			DiscountPercent:   pct,
			GiftMessage:       l.GiftMessage,
		}
		var ok bool
		if subtotal, ok = pricing.AddLine(subtotal, items[i].UnitPrice, int64(items[i].Quantity)); !ok {
			return nil, validate.New("cart_items", "order amount exceeds %d", pricing.MaxAmount)
		}
	}

	applied, err := s.applyCode(ctx, req.DiscountCode, subtotal, now)
	if err != nil {
		return nil, err
	}

	shipping := Shipping{Needed: req.NeedsShipping}
	if req.NeedsShipping {
		shipping.Cost = s.shippingCost
	}

	total := max(0, subtotal-applied.Amount) + shipping.Cost
	if total > pricing.MaxAmount {
		return nil, validate.New("cart_items", "order amount exceeds %d", pricing.MaxAmount)
	}

	if orderID == "" {
		orderID = s.newID()
	}
	o := &Order{
		ID:            orderID,
		UserID:        req.UserID,
		Items:         items,
		Subtotal:      subtotal,
		Discount:      applied,
		Shipping:      shipping,
		Total:         total,
		Status:        StatusPending,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Customer:      req.Customer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, &StorageError{Op: "create order", Err: err}
	}

	attrs := metric.WithAttributes(attribute.Bool("order.code_applied", applied.Code != ""))
	s.created.Add(ctx, 1, attrs)
	s.totals.Record(ctx, o.Total, attrs)

	s.notifier.OrderCreated(ctx, o)
	return o, nil
}

// applyCode resolves the order-level discount on the already discounted
// subtotal at the same instant the product discounts were resolved. An
// invalid or absent code yields a zero discount.
func (s *Service) applyCode(ctx context.Context, raw string, subtotal int64, now time.Time) (AppliedDiscount, error) {
	if strings.TrimSpace(raw) == "" {
		return AppliedDiscount{}, nil
	}
	res, err := s.codes.Validate(ctx, raw, now)
	if err != nil {
		return AppliedDiscount{}, err
	}
	if !res.Valid {
		return AppliedDiscount{}, nil
	}
	return AppliedDiscount{
		Code:    res.Code,
		Percent: res.Percent,
		Amount:  pricing.PercentOf(subtotal, res.Percent),
	}, nil
}

// cleanLines drops unusable lines, floors quantities and caps gift messages.
func cleanLines(in []CartLine) ([]CartLine, error) {
	out := make([]CartLine, 0, len(in))
	for _, l := range in {
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" || math.IsNaN(l.Quantity) || math.IsInf(l.Quantity, 0) {
			continue
		}
		l.Quantity = math.Floor(l.Quantity)
		if l.Quantity <= 0 {
			continue
		}
		if l.Quantity > maxLineQuantity {
			return nil, validate.New("quantity", "must be at most %d for product %s", maxLineQuantity, l.ProductID)
		}
		l.GiftMessage = truncate(strings.TrimSpace(l.GiftMessage), MaxGiftMessageLength)
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCart
	}
	return out, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

// ListForUser returns the most recent orders placed by userID.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, nil
	}
	orders, err := s.orders.ListByUser(ctx, userID, userListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	return orders, nil
}

// List returns the most recent orders across all customers. A non-positive
// limit selects the default.
func (s *Service) List(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 || limit > adminListLimit {
		limit = adminListLimit
	}
	orders, err := s.orders.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// UpdateStatus moves an order to a new fulfillment status.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	st, err := ParseStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}
	return s.orders.UpdateStatus(ctx, strings.TrimSpace(id), st, s.now())
}

type nopNotifier struct{}

func (nopNotifier) OrderCreated(context.Context, *Order) {}
