package notice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

type mockRepo struct {
	notices []Notice
	limit   int
	created *Notice
	updated *Notice
}

func (m *mockRepo) List(_ context.Context, limit int) ([]Notice, error) {
	m.limit = limit
	if len(m.notices) > limit {
		return m.notices[:limit], nil
	}
	return m.notices, nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*Notice, error) {
	for i := range m.notices {
		if m.notices[i].ID == id {
			n := m.notices[i]
			return &n, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Create(_ context.Context, n *Notice) error {
	m.created = n
	m.notices = append([]Notice{*n}, m.notices...)
	return nil
}

func (m *mockRepo) Update(_ context.Context, n *Notice) error {
	m.updated = n
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, err := m.Get(context.Background(), id); err != nil {
		return err
	}
	return nil
}

var now = time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return now }
	s.newID = func() string { return "n-1" }
	return s
}

func TestService_Active(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	repo := &mockRepo{notices: []Notice{
		{ID: "a", Message: "Despacho gratis", Enabled: true},
		{ID: "b", Message: "Deshabilitado", Enabled: false},
		{ID: "c", Message: "Expirado", Enabled: true, Window: window.Window{End: &past}},
		{ID: "d", Message: "Próximamente", Enabled: true, Window: window.Window{Start: &future}},
		{ID: "e", Message: "Navidad", Enabled: true, Window: window.Window{Start: &past, End: &future}},
		{ID: "f", Message: "Horario", Enabled: true},
		{ID: "g", Message: "Cuarto", Enabled: true},
	}}

	got, err := newTestService(repo).Active(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "e", got[1].ID)
	assert.Equal(t, "f", got[2].ID)
	assert.Equal(t, activeScanLimit, repo.limit)
}

func TestService_Create(t *testing.T) {
	repo := &mockRepo{}
	n, err := newTestService(repo).Create(context.Background(), CreateInput{Message: "  Pedidos hasta las 18:00  "})
	require.NoError(t, err)
	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, "Pedidos hasta las 18:00", n.Message)
	assert.True(t, n.Enabled)
	assert.Equal(t, now, n.CreatedAt)
	assert.Same(t, n, repo.created)
}

func TestService_CreateValidation(t *testing.T) {
	end := now.Add(-time.Hour)

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{name: "blank message", in: CreateInput{Message: "   "}, field: "message"},
		{name: "too long", in: CreateInput{Message: strings.Repeat("a", MaxMessageLength+1)}, field: "message"},
		{
			name:  "inverted window",
			in:    CreateInput{Message: "x", Window: window.Window{Start: &now, End: &end}},
			field: "end_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			_, err := newTestService(repo).Create(context.Background(), tt.in)
			ve, ok := validate.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Nil(t, repo.created)
		})
	}
}

func TestService_Update(t *testing.T) {
	repo := &mockRepo{notices: []Notice{{ID: "a", Message: "Hola", Enabled: true}}}
	svc := newTestService(repo)

	off := false
	msg := "Cerrado por inventario"
	n, err := svc.Update(context.Background(), "a", Patch{Message: &msg, Enabled: &off})
	require.NoError(t, err)
	assert.Equal(t, msg, n.Message)
	assert.False(t, n.Enabled)
	assert.Same(t, n, repo.updated)

	_, err = svc.Update(context.Background(), "zzz", Patch{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	repo := &mockRepo{notices: []Notice{{ID: "a", Message: "Hola"}}}
	svc := newTestService(repo)

	require.NoError(t, svc.Delete(context.Background(), "a"))
	require.ErrorIs(t, svc.Delete(context.Background(), "b"), ErrNotFound)
}
