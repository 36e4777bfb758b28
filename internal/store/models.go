package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// UserID and MessageID share a representation but are distinct types so
// one can never be passed where the other is expected.
type (
	UserID    string
	MessageID string
)

func NewUserID() UserID       { return UserID(uuid.NewString()) }
func NewMessageID() MessageID { return MessageID(uuid.NewString()) }

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type User struct {
	ID             UserID
	Fullname       string
	Email          string
	HashedPassword string
	IsAdmin        bool
	CreatedAt      time.Time
}

type Message struct {
	ID       MessageID
	PostedAt time.Time
	PostedBy UserID
	Message  string
}

// MessageView is a message joined with its author's name.
type MessageView struct {
	Message
	UserFullname string
}

type UserStore interface {
	UserByEmail(ctx context.Context, email string) (User, bool, error)
	UserByID(ctx context.Context, id UserID) (User, bool, error)
	CreateUser(ctx context.Context, u User) error
	ListUsers(ctx context.Context, offset, limit int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m Message) error
	// RecentMessages returns messages newest first.
	RecentMessages(ctx context.Context, offset, limit int) ([]MessageView, error)
	CountMessages(ctx context.Context) (int, error)
}
