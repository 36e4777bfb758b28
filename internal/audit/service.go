package audit

import (
	"context"
	"errors"
	"time"

	"protoapp/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records authentication audit events.
// A nil *Service is valid and records nothing.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
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

// LoginSucceeded records a successful credential check.
func (s *Service) LoginSucceeded(ctx context.Context, userID, email string) {
	s.record(ctx, Event{Type: EventTypeLoginSucceeded, SubjectUserID: userID, Email: email})
}

// LoginFailed records a rejected credential check. userID is empty when
// the email is unknown.
func (s *Service) LoginFailed(ctx context.Context, userID, email string) {
	s.record(ctx, Event{Type: EventTypeLoginFailed, SubjectUserID: userID, Email: email})
}

// UserCreated records an admin creating an account.
func (s *Service) UserCreated(ctx context.Context, actorUserID, userID, email string, isAdmin bool) {
	msg := "user"
	if isAdmin {
		msg = "admin"
	}
	s.record(ctx, Event{Type: EventTypeUserCreated, ActorUserID: actorUserID, SubjectUserID: userID, Email: email, Message: msg})
}

// record is best-effort: failures are logged, never returned.
func (s *Service) record(ctx context.Context, e Event) {
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", string(e.Type), "err", err)
	}
}
