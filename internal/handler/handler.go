// Package handler exposes the storefront HTTP API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/wildgarden/internal/domain/auth"
	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/notice"
	"github.com/xenking/wildgarden/internal/domain/order"
	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/pkg/httpmiddleware"
)

// Catalog is implemented by *product.Service.
type Catalog interface {
	Now() time.Time
	List(ctx context.Context) ([]product.Product, error)
	ListAll(ctx context.Context) ([]product.Product, error)
	Get(ctx context.Context, id string) (*product.Product, error)
	Create(ctx context.Context, in product.CreateInput) (*product.Product, error)
	Update(ctx context.Context, id string, patch product.Patch) (*product.Product, error)
}

// Orders is implemented by *order.Service.
type Orders interface {
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error)
	Get(ctx context.Context, id string) (*order.Order, error)
	ListForUser(ctx context.Context, userID string) ([]order.Order, error)
	List(ctx context.Context, limit int) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*order.Order, error)
}

// Codes is implemented by *discount.Service.
type Codes interface {
	List(ctx context.Context) ([]discount.Code, error)
	Create(ctx context.Context, in discount.CreateInput) (*discount.Code, error)
	Update(ctx context.Context, code string, patch discount.Patch) (*discount.Code, error)
	Delete(ctx context.Context, code string) error
}

// Notices is implemented by *notice.Service.
type Notices interface {
	Active(ctx context.Context) ([]notice.Notice, error)
	List(ctx context.Context) ([]notice.Notice, error)
	Create(ctx context.Context, in notice.CreateInput) (*notice.Notice, error)
	Update(ctx context.Context, id string, patch notice.Patch) (*notice.Notice, error)
	Delete(ctx context.Context, id string) error
}

// Config holds non-service handler settings.
type Config struct {
	// CodeCheck guards the public discount code pre-check, typically with a
	// tighter rate limit. Nil leaves the route unguarded.
	CodeCheck httpmiddleware.Middleware
}

// Handler serves the storefront API.
type Handler struct {
	catalog   Catalog
	orders    Orders
	codes     Codes
	validator discount.Validator
	notices   Notices
	auth      *Authenticator
	codeCheck httpmiddleware.Middleware
}

// NewHandler constructs a Handler. The validator must be the instance the
// order service uses so the pre-check and checkout agree.
func NewHandler(
	cfg Config,
	catalog Catalog,
	orders Orders,
	codes Codes,
	validator discount.Validator,
	notices Notices,
	authn *Authenticator,
) *Handler {
	codeCheck := cfg.CodeCheck
	if codeCheck == nil {
		codeCheck = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		catalog:   catalog,
		orders:    orders,
		codes:     codes,
		validator: validator,
		notices:   notices,
		auth:      authn,
		codeCheck: codeCheck,
	}
}

// Register mounts the API routes under /api.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.With(h.auth.Optional()).Post("/transactions", h.createOrder)
		r.With(h.auth.Required()).Get("/transactions/my", h.listMyOrders)
		r.Get("/transactions/{order_id}", h.getOrder)

		r.With(h.codeCheck).Get("/discount-codes/validate", h.validateCode)
		r.Get("/notices/active", h.activeNotices)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.auth.Required(), RequireScope(auth.ScopeAdmin))

			r.Get("/products", h.adminListProducts)
			r.Post("/products", h.adminCreateProduct)
			r.Patch("/products/{id}", h.adminUpdateProduct)

			r.Get("/discount-codes", h.adminListCodes)
			r.Post("/discount-codes", h.adminCreateCode)
			r.Patch("/discount-codes/{code}", h.adminUpdateCode)
			r.Delete("/discount-codes/{code}", h.adminDeleteCode)

			r.Get("/notices", h.adminListNotices)
			r.Post("/notices", h.adminCreateNotice)
			r.Patch("/notices/{id}", h.adminUpdateNotice)
			r.Delete("/notices/{id}", h.adminDeleteNotice)

			r.Get("/orders", h.adminListOrders)
			r.Patch("/orders/{order_id}/status", h.adminUpdateOrderStatus)
		})
	})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
