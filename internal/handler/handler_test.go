package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/wildgarden/internal/domain/auth"
	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/notice"
	"github.com/xenking/wildgarden/internal/domain/order"
	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

var testNow = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

type mockCatalog struct {
	products  []product.Product
	err       error
	gotCreate product.CreateInput
	gotPatch  product.Patch
}

func (m *mockCatalog) Now() time.Time { return testNow }

func (m *mockCatalog) List(context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, m.err
}

func (m *mockCatalog) ListAll(context.Context) ([]product.Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) Get(_ context.Context, id string) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockCatalog) Create(_ context.Context, in product.CreateInput) (*product.Product, error) {
	m.gotCreate = in
	if m.err != nil {
		return nil, m.err
	}
	return &product.Product{ID: in.ID, Name: in.Name, Price: in.Price, Discount: in.Discount, Active: true}, nil
}

func (m *mockCatalog) Update(_ context.Context, id string, patch product.Patch) (*product.Product, error) {
	m.gotPatch = patch
	if m.err != nil {
		return nil, m.err
	}
	return &product.Product{ID: id, Name: "updated"}, nil
}

type mockOrders struct {
	order     *order.Order
	list      []order.Order
	err       error
	gotReq    order.CreateRequest
	gotUser   string
	gotLimit  int
	gotStatus string
}

func (m *mockOrders) CreateOrder(_ context.Context, req order.CreateRequest) (*order.Order, error) {
	m.gotReq = req
	return m.order, m.err
}

func (m *mockOrders) Get(context.Context, string) (*order.Order, error) {
	return m.order, m.err
}

func (m *mockOrders) ListForUser(_ context.Context, userID string) ([]order.Order, error) {
	m.gotUser = userID
	return m.list, m.err
}

func (m *mockOrders) List(_ context.Context, limit int) ([]order.Order, error) {
	m.gotLimit = limit
	return m.list, m.err
}

func (m *mockOrders) UpdateStatus(_ context.Context, _ string, status string) (*order.Order, error) {
	m.gotStatus = status
	return m.order, m.err
}

type mockCodes struct {
	err       error
	gotCreate discount.CreateInput
	gotPatch  discount.Patch
	deleted   string
}

func (m *mockCodes) List(context.Context) ([]discount.Code, error) {
	return []discount.Code{{Code: "SAVE10", Percent: 10, Enabled: true}}, m.err
}

func (m *mockCodes) Create(_ context.Context, in discount.CreateInput) (*discount.Code, error) {
	m.gotCreate = in
	if m.err != nil {
		return nil, m.err
	}
	return &discount.Code{Code: discount.Normalize(in.Code), Percent: in.Percent, Enabled: true, Window: in.Window}, nil
}

func (m *mockCodes) Update(_ context.Context, code string, patch discount.Patch) (*discount.Code, error) {
	m.gotPatch = patch
	if m.err != nil {
		return nil, m.err
	}
	return &discount.Code{Code: code}, nil
}

func (m *mockCodes) Delete(_ context.Context, code string) error {
	m.deleted = code
	return m.err
}

type mockValidator struct {
	res   discount.Result
	err   error
	got   string
	gotAt time.Time
}

func (m *mockValidator) Validate(_ context.Context, raw string, at time.Time) (discount.Result, error) {
	m.got = raw
	m.gotAt = at
	return m.res, m.err
}

type mockNotices struct {
	active   []notice.Notice
	err      error
	gotPatch notice.Patch
}

func (m *mockNotices) Active(context.Context) ([]notice.Notice, error) { return m.active, m.err }
func (m *mockNotices) List(context.Context) ([]notice.Notice, error)   { return m.active, m.err }

func (m *mockNotices) Create(_ context.Context, in notice.CreateInput) (*notice.Notice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &notice.Notice{ID: "n1", Message: in.Message, Enabled: true, Window: in.Window}, nil
}

func (m *mockNotices) Update(_ context.Context, id string, patch notice.Patch) (*notice.Notice, error) {
	m.gotPatch = patch
	if m.err != nil {
		return nil, m.err
	}
	return &notice.Notice{ID: id}, nil
}

func (m *mockNotices) Delete(context.Context, string) error { return m.err }

type mockKeys struct {
	keys map[string]*auth.APIKeyInfo
	err  error
}

func (m *mockKeys) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	k, ok := m.keys[hash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return k, nil
}

var pepper = []byte("test-pepper")

const (
	adminKey    = "wg_admin"
	customerKey = "wg_customer"
)

type testEnv struct {
	catalog   *mockCatalog
	orders    *mockOrders
	codes     *mockCodes
	validator *mockValidator
	notices   *mockNotices
	keys      *mockKeys
	router    chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		catalog:   &mockCatalog{},
		orders:    &mockOrders{},
		codes:     &mockCodes{},
		validator: &mockValidator{},
		notices:   &mockNotices{},
		keys: &mockKeys{keys: map[string]*auth.APIKeyInfo{
			auth.HashKey(pepper, adminKey): {
				ID: "admin-1", KeyHash: auth.HashKey(pepper, adminKey), Name: "Admin", Scopes: []string{auth.ScopeAdmin},
			},
			auth.HashKey(pepper, customerKey): {
				ID: "user-1", KeyHash: auth.HashKey(pepper, customerKey), Name: "Ana",
			},
		}},
	}
	h := NewHandler(Config{}, env.catalog, env.orders, env.codes, env.validator, env.notices,
		NewAuthenticator(env.keys, pepper))
	env.router = chi.NewRouter()
	h.Register(env.router)
	return env
}

func (env *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func bearer(key string) []string {
	return []string{"Authorization", "Bearer " + key}
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	start := testNow.Add(-time.Hour)
	env.catalog.products = []product.Product{
		{
			ID: "P1", Name: "Ramo de rosas", Price: 10000, Active: true,
			Discount:  product.Discount{Percent: 15, Enabled: true, Window: window.Window{Start: &start}},
			CreatedAt: testNow, UpdatedAt: testNow,
		},
		{ID: "P2", Name: "Oculto", Price: 5000, Active: false},
	}

	w := env.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"id":"P1","name":"Ramo de rosas","description":"","category":"","image_url":"",
		"price":10000,"discount_percent":15,"discount_enabled":true,
		"discount_start_at":"2025-02-14T11:00:00Z","discount_end_at":null,
		"active_discount_percent":15,"final_price":8500,"active":true,
		"created_at":"2025-02-14T12:00:00Z","updated_at":"2025-02-14T12:00:00Z"
	}]`, w.Body.String())
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.products = []product.Product{
		{ID: "P1", Name: "Ramo", Price: 10000, Active: true},
		{ID: "P2", Name: "Oculto", Price: 5000},
	}

	w := env.do(http.MethodGet, "/api/products/P1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"final_price":10000`)

	w = env.do(http.MethodGet, "/api/products/P2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"product not found"}`, w.Body.String())
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	env.orders.order = &order.Order{
		ID: "WG-1",
		Items: []order.LineItem{
			{ProductID: "P1", Name: "Ramo", Quantity: 2, UnitPrice: 8500, OriginalUnitPrice: 10000, DiscountPercent: 15, GiftMessage: "Feliz día"},
		},
		Subtotal:  17000,
		Discount:  order.AppliedDiscount{Code: "SAVE10", Percent: 10, Amount: 1700},
		Shipping:  order.Shipping{Needed: true, Cost: 5000},
		Total:     20300,
		Status:    order.StatusPending,
		Customer:  order.Customer{Name: "Ana", Email: "ana@example.com"},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}

	body := `{
		"order_id": "WG-1",
		"amount": 1,
		"cart_items": [
			{"product_id": "P1", "quantity": 2.7, "price": 1, "name": "fake", "gift_message": "Feliz día"},
			{"product_id": "P2", "quantity": "3"}
		],
		"discount_code": " save10 ",
		"needs_shipping": true,
		"payment_method": "transfer",
		"customer_name": "Ana",
		"customer_email": "ana@example.com",
		"delivery_date": "2025-02-14"
	}`
	w := env.do(http.MethodPost, "/api/transactions", body, bearer(customerKey)...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := env.orders.gotReq
	assert.Equal(t, "WG-1", got.OrderID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []order.CartLine{
		{ProductID: "P1", Quantity: 2.7, GiftMessage: "Feliz día"},
		{ProductID: "P2", Quantity: 3},
	}, got.Lines)
	assert.Equal(t, " save10 ", got.DiscountCode)
	assert.True(t, got.NeedsShipping)
	assert.Equal(t, order.Customer{Name: "Ana", Email: "ana@example.com", DeliveryDate: "2025-02-14"}, got.Customer)

	assert.JSONEq(t, `{
		"order_id":"WG-1",
		"items":[{"product_id":"P1","name":"Ramo","quantity":2,"unit_price":8500,"original_unit_price":10000,
			"discount_percent":15,"line_total":17000,"gift_message":"Feliz día"}],
		"subtotal":17000,"discount_code":"SAVE10","discount_percent":10,"discount_amount":1700,
		"needs_shipping":true,"shipping_cost":5000,"total":20300,"status":"pending","payment_method":"",
		"customer":{"name":"Ana","email":"ana@example.com"},
		"created_at":"2025-02-14T12:00:00Z","updated_at":"2025-02-14T12:00:00Z"
	}`, w.Body.String())
}

func TestCreateOrder_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	env.orders.order = &order.Order{ID: "x"}

	w := env.do(http.MethodPost, "/api/transactions", `{"cart_items":[{"product_id":"P1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, env.orders.gotReq.UserID)

	w = env.do(http.MethodPost, "/api/transactions", `{"cart_items":[]}`, bearer("wg_wrong")...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "empty cart",
			body:     `{"cart_items":[]}`,
			err:      order.ErrEmptyCart,
			wantCode: http.StatusBadRequest,
			wantBody: `{"code":400,"message":"cart_items: cart is empty"}`,
		},
		{
			name:     "missing products",
			body:     `{"cart_items":[{"product_id":"X","quantity":1}]}`,
			err:      &order.ProductNotFoundError{IDs: []string{"X", "Y"}},
			wantCode: http.StatusNotFound,
			wantBody: `{"code":404,"message":"products not found","missing_ids":["X","Y"]}`,
		},
		{
			name:     "code lookup failure",
			body:     `{"cart_items":[{"product_id":"P1","quantity":1}],"discount_code":"SAVE10"}`,
			err:      &discount.LookupError{Code: "SAVE10", Err: errors.New("timeout")},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"code":500,"message":"discount code lookup failed"}`,
		},
		{
			name:     "storage failure",
			body:     `{"cart_items":[{"product_id":"P1","quantity":1}]}`,
			err:      &order.StorageError{Op: "create order", Err: errors.New("conn reset")},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"code":500,"message":"storage unavailable"}`,
		},
		{
			name:     "duplicate order id",
			body:     `{"order_id":"WG-1","cart_items":[{"product_id":"P1","quantity":1}]}`,
			err:      order.ErrAlreadyExists,
			wantCode: http.StatusConflict,
			wantBody: `{"code":409,"message":"order already exists"}`,
		},
		{
			name:     "malformed json",
			body:     `{"cart_items":[`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "cart items not an array",
			body:     `{"cart_items":"P1"}`,
			wantCode: http.StatusBadRequest,
			wantBody: `{"code":400,"message":"cart_items: must be an array"}`,
		},
		{
			name:     "quantity not a number",
			body:     `{"cart_items":[{"product_id":"P1","quantity":"two"}]}`,
			wantCode: http.StatusBadRequest,
			wantBody: `{"code":400,"message":"quantity: must be a number"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.orders.err = tt.err

			w := env.do(http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestMyOrders(t *testing.T) {
	env := newTestEnv(t)
	env.orders.list = []order.Order{{ID: "WG-1", Status: order.StatusPending}}

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/transactions/my", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/transactions/my", "", bearer("nope")...).Code)

	w := env.do(http.MethodGet, "/api/transactions/my", "", "api_key", customerKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", env.orders.gotUser)
	assert.Contains(t, w.Body.String(), `"order_id":"WG-1"`)
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv(t)
	env.orders.err = order.ErrNotFound
	w := env.do(http.MethodGet, "/api/transactions/WG-9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	sent := testNow
	env.orders.err = nil
	env.orders.order = &order.Order{
		ID:    "WG-9",
		Email: order.EmailStatus{Status: order.EmailSent, MessageID: "m1", SentAt: &sent},
	}
	w = env.do(http.MethodGet, "/api/transactions/WG-9", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email_status":{"status":"sent","message_id":"m1","sent_at":"2025-02-14T12:00:00Z"}`)
}

func TestAdminAccess(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/admin/orders", "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/orders", "", bearer(customerKey)...).Code)

	w := env.do(http.MethodGet, "/api/admin/orders?limit=20", "", bearer(adminKey)...)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, env.orders.gotLimit)
	assert.Equal(t, "[]", w.Body.String())

	w = env.do(http.MethodGet, "/api/admin/orders?limit=abc", "", bearer(adminKey)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.keys.err = errors.New("db down")
	w = env.do(http.MethodGet, "/api/admin/orders", "", bearer(adminKey)...)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	env.orders.order = &order.Order{ID: "WG-1", Status: order.StatusCompleted}

	w := env.do(http.MethodPatch, "/api/admin/orders/WG-1/status", `{"status":"completed"}`, bearer(adminKey)...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", env.orders.gotStatus)

	env.orders.err = validate.New("status", "unknown status %q", "lost")
	w = env.do(http.MethodPatch, "/api/admin/orders/WG-1/status", `{"status":"lost"}`, bearer(adminKey)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateCode(t *testing.T) {
	env := newTestEnv(t)

	env.validator.res = discount.Result{Valid: true, Code: "SAVE10", Percent: 10}
	w := env.do(http.MethodGet, "/api/discount-codes/validate?code=save10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "save10", env.validator.got)
	assert.Equal(t, testNow, env.validator.gotAt)
	assert.JSONEq(t, `{"valid":true,"code":"SAVE10","percent":10}`, w.Body.String())

	env.validator.res = discount.Result{Code: "OLD", Reason: discount.ReasonInactive}
	w = env.do(http.MethodGet, "/api/discount-codes/validate?code=old", "")
	assert.JSONEq(t, `{"valid":false,"code":"OLD","percent":0,"reason":"inactive"}`, w.Body.String())

	env.validator.err = &discount.LookupError{Code: "X", Err: errors.New("timeout")}
	w = env.do(http.MethodGet, "/api/discount-codes/validate?code=x", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminCodes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/admin/discount-codes",
		`{"code":"summer 25","percent":24.6,"start_at":"2025-01-01T00:00:00Z","end_at":null}`, bearer(adminKey)...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 25, env.codes.gotCreate.Percent)
	assert.Nil(t, env.codes.gotCreate.Enabled)
	require.NotNil(t, env.codes.gotCreate.Window.Start)
	assert.True(t, env.codes.gotCreate.Window.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, env.codes.gotCreate.Window.End)
	assert.Contains(t, w.Body.String(), `"code":"SUMMER25"`)

	w = env.do(http.MethodPatch, "/api/admin/discount-codes/SUMMER25", `{"enabled":false,"end_at":null}`, bearer(adminKey)...)
	require.Equal(t, http.StatusOK, w.Code)
	patch := env.codes.gotPatch
	require.NotNil(t, patch.Enabled)
	assert.False(t, *patch.Enabled)
	assert.Nil(t, patch.Percent)
	assert.False(t, patch.Window.Start.Set)
	assert.True(t, patch.Window.End.Set)
	assert.Nil(t, patch.Window.End.Value)

	w = env.do(http.MethodPatch, "/api/admin/discount-codes/SUMMER25", `{"start_at":"yesterday"}`, bearer(adminKey)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":400,"message":"start_at: must be an RFC 3339 timestamp"}`, w.Body.String())

	env.codes.err = discount.ErrAlreadyExists
	w = env.do(http.MethodPost, "/api/admin/discount-codes", `{"code":"SAVE10","percent":10}`, bearer(adminKey)...)
	assert.Equal(t, http.StatusConflict, w.Code)

	env.codes.err = nil
	w = env.do(http.MethodDelete, "/api/admin/discount-codes/save10", "", bearer(adminKey)...)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "save10", env.codes.deleted)

	env.codes.err = discount.ErrNotFound
	w = env.do(http.MethodDelete, "/api/admin/discount-codes/nope", "", bearer(adminKey)...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/admin/products",
		`{"id":"P9","name":"Girasoles","price":"12990","discount_percent":10,"discount_enabled":true,"discount_end_at":"2025-03-01T03:00:00Z"}`,
		bearer(adminKey)...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	in := env.catalog.gotCreate
	assert.Equal(t, int64(12990), in.Price)
	assert.Equal(t, 10, in.Discount.Percent)
	assert.True(t, in.Discount.Enabled)
	require.NotNil(t, in.Discount.Window.End)
	assert.Nil(t, in.Discount.Window.Start)

	w = env.do(http.MethodPatch, "/api/admin/products/P9", `{"price":15000,"discount_start_at":null,"active":false}`, bearer(adminKey)...)
	require.Equal(t, http.StatusOK, w.Code)
	patch := env.catalog.gotPatch
	require.NotNil(t, patch.Price)
	assert.Equal(t, int64(15000), *patch.Price)
	require.NotNil(t, patch.Active)
	assert.False(t, *patch.Active)
	assert.Nil(t, patch.Name)
	assert.True(t, patch.DiscountWindow.Start.Set)
	assert.False(t, patch.DiscountWindow.End.Set)

	env.catalog.err = validate.New("price", "must not be negative")
	w = env.do(http.MethodPatch, "/api/admin/products/P9", `{"price":-1}`, bearer(adminKey)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/api/admin/products/P9", "", bearer(adminKey)...)
	assert.JSONEq(t, `{"code":400,"message":"body: is required"}`, w.Body.String())
}

func TestNotices(t *testing.T) {
	env := newTestEnv(t)
	env.notices.active = []notice.Notice{{ID: "n1", Message: "Envíos gratis", Enabled: true, CreatedAt: testNow, UpdatedAt: testNow}}

	w := env.do(http.MethodGet, "/api/notices/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"n1","message":"Envíos gratis","enabled":true,"start_at":null,"end_at":null,
		"created_at":"2025-02-14T12:00:00Z","updated_at":"2025-02-14T12:00:00Z"}]`, w.Body.String())

	w = env.do(http.MethodPost, "/api/admin/notices", `{"message":"Cerrado el lunes"}`, bearer(adminKey)...)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPatch, "/api/admin/notices/n1", `{"message":"Abierto"}`, bearer(adminKey)...)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.notices.gotPatch.Message)
	assert.Equal(t, "Abierto", *env.notices.gotPatch.Message)
	assert.True(t, env.notices.gotPatch.Window.Empty())

	env.notices.err = notice.ErrNotFound
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/admin/notices/n1", "", bearer(adminKey)...).Code)
}
