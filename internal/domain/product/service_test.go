package product

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

type mockStore struct {
	byID    map[string]*Product
	created *Product
	updated *Product
	listErr error
}

func newMockStore(products ...Product) *mockStore {
	m := &mockStore{byID: make(map[string]*Product)}
	for i := range products {
		m.byID[products[i].ID] = &products[i]
	}
	return m
}

func (m *mockStore) List(_ context.Context) ([]Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) GetByIDs(_ context.Context, ids []string) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockStore) Create(_ context.Context, p *Product) error {
	if _, ok := m.byID[p.ID]; ok {
		return ErrAlreadyExists
	}
	m.created = p
	m.byID[p.ID] = p
	return nil
}

func (m *mockStore) Update(_ context.Context, p *Product) error {
	m.updated = p
	m.byID[p.ID] = p
	return nil
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	s := NewService(store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_List(t *testing.T) {
	store := newMockStore(
		Product{ID: "rose", Name: "Rosas rojas", Active: true},
		Product{ID: "tulip", Name: "Tulipanes", Active: false},
		Product{ID: "lily", Name: "Lirios", Active: true},
	)
	svc := newTestService(store)

	visible, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "lily", visible[0].ID)
	assert.Equal(t, "rose", visible[1].ID)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_ListError(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("connection reset")
	svc := newTestService(store)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}

func TestService_Create(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), CreateInput{
		ID:       " bouquet-1 ",
		Name:     " Ramo primavera ",
		Price:    24990,
		Discount: Discount{Percent: 120, Enabled: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "bouquet-1", p.ID)
	assert.Equal(t, "Ramo primavera", p.Name)
	assert.Equal(t, 100, p.Discount.Percent)
	assert.True(t, p.Active)
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.Same(t, p, store.created)
}

func TestService_CreateValidation(t *testing.T) {
	start := fixedNow
	end := fixedNow.Add(-time.Hour)

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{name: "missing id", in: CreateInput{Name: "x"}, field: "id"},
		{name: "missing name", in: CreateInput{ID: "x"}, field: "name"},
		{name: "negative price", in: CreateInput{ID: "x", Name: "x", Price: -1}, field: "price"},
		{name: "price over column limit", in: CreateInput{ID: "x", Name: "x", Price: 100_000_000_000_000}, field: "price"},
		{
			name:  "inverted window",
			in:    CreateInput{ID: "x", Name: "x", Discount: Discount{Window: window.Window{Start: &start, End: &end}}},
			field: "end_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			_, err := newTestService(store).Create(context.Background(), tt.in)
			ve, ok := validate.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Nil(t, store.created)
		})
	}
}

func TestService_CreateDuplicate(t *testing.T) {
	store := newMockStore(Product{ID: "rose", Name: "Rosas"})
	_, err := newTestService(store).Create(context.Background(), CreateInput{ID: "rose", Name: "Rosas"})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestService_Update(t *testing.T) {
	start := fixedNow.Add(-24 * time.Hour)
	store := newMockStore(Product{
		ID:       "rose",
		Name:     "Rosas",
		Price:    10000,
		Active:   true,
		Discount: Discount{Percent: 10, Enabled: true, Window: window.Window{Start: &start}},
	})
	svc := newTestService(store)

	price := int64(12000)
	pct := 25
	p, err := svc.Update(context.Background(), "rose", Patch{
		Price:           &price,
		DiscountPercent: &pct,
		DiscountWindow:  window.Patch{Start: window.Field{Set: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), p.Price)
	assert.Equal(t, 25, p.Discount.Percent)
	assert.Nil(t, p.Discount.Window.Start)
	assert.Equal(t, "Rosas", p.Name)
	assert.Equal(t, fixedNow, p.UpdatedAt)
	assert.Same(t, p, store.updated)
}

func TestService_UpdateNotFound(t *testing.T) {
	_, err := newTestService(newMockStore()).Update(context.Background(), "nope", Patch{})
	require.ErrorIs(t, err, ErrNotFound)
}
