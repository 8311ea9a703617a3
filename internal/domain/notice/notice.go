// Package notice manages short, time-windowed banner messages shown on the
// storefront.
package notice

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

const (
	MaxMessageLength = 400

	activeScanLimit = 50
	activeMaxShown  = 3
	adminListLimit  = 100
)

// ErrNotFound is returned when no notice matches the given id.
var ErrNotFound = errors.New("notice not found")

type Notice struct {
	ID        string
	Message   string
	Enabled   bool
	Window    window.Window
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the notice should be shown at now.
func (n Notice) Active(now time.Time) bool {
	return n.Enabled && n.Window.Contains(now)
}

// Repository persists notices. List returns the newest first.
type Repository interface {
	List(ctx context.Context, limit int) ([]Notice, error)
	Get(ctx context.Context, id string) (*Notice, error)
	Create(ctx context.Context, n *Notice) error
	Update(ctx context.Context, n *Notice) error
	Delete(ctx context.Context, id string) error
}

type CreateInput struct {
	Message string
	Enabled *bool
	Window  window.Window
}

type Patch struct {
	Message *string
	Enabled *bool
	Window  window.Patch
}

type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Active returns up to three notices that are currently visible, newest first.
func (s *Service) Active(ctx context.Context) ([]Notice, error) {
	latest, err := s.repo.List(ctx, activeScanLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list notices")
	}
	now := s.now()
	active := lo.Filter(latest, func(n Notice, _ int) bool { return n.Active(now) })
	if len(active) > activeMaxShown {
		active = active[:activeMaxShown]
	}
	return active, nil
}

func (s *Service) List(ctx context.Context) ([]Notice, error) {
	notices, err := s.repo.List(ctx, adminListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list notices")
	}
	return notices, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Notice, error) {
	msg, err := cleanMessage(in.Message)
	if err != nil {
		return nil, err
	}
	w := in.Window.Normalize()
	if err := w.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	n := &Notice{
		ID:        s.newID(),
		Message:   msg,
		Enabled:   in.Enabled == nil || *in.Enabled,
		Window:    w,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Notice, error) {
	n, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if patch.Message != nil {
		if n.Message, err = cleanMessage(*patch.Message); err != nil {
			return nil, err
		}
	}
	if patch.Enabled != nil {
		n.Enabled = *patch.Enabled
	}
	n.Window = patch.Window.Apply(n.Window)
	if err := n.Window.Validate(); err != nil {
		return nil, err
	}
	n.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(id))
}

func cleanMessage(raw string) (string, error) {
	msg := strings.TrimSpace(raw)
	switch {
	case msg == "":
		return "", validate.New("message", "is required")
	case utf8.RuneCountInString(msg) > MaxMessageLength:
		return "", validate.New("message", "must be at most %d characters", MaxMessageLength)
	}
	return msg, nil
}
