package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chanlytics/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Event, error)
}

// DefaultListLimit caps ListByUser when the caller passes <= 0.
const DefaultListLimit = 50

var ErrInvalidEvent = errors.New("audit: invalid event")

// Service records account activity.
//
// Callers treat audit logging as best-effort: Record never fails the
// request that triggered it.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.UserID == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends e and logs instead of returning a failure.
func (s *Service) Record(ctx context.Context, e Event) {
	if s == nil {
		return
	}
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed",
			slog.String("type", string(e.Type)),
			slog.String("user_id", e.UserID),
			slog.Any("err", err))
	}
}

// List returns the user's most recent events, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Event, error) {
	if userID == "" {
		return nil, ErrInvalidEvent
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
