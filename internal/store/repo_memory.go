package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and local
// runs. It is not intended for production use.
type MemoryRepo struct {
	mu       sync.Mutex
	users    map[UserID]User
	byEmail  map[string]UserID
	messages []Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:   make(map[UserID]User),
		byEmail: make(map[string]UserID),
	}
}

func (r *MemoryRepo) UserByEmail(ctx context.Context, email string) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, false, nil
	}
	return r.users[id], true, nil
}

func (r *MemoryRepo) UserByID(ctx context.Context, id UserID) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok, nil
}

func (r *MemoryRepo) CreateUser(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := r.byEmail[email]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
	}
	u.Email = email
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	return nil
}

func (r *MemoryRepo) ListUsers(ctx context.Context, offset, limit int) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Fullname != all[j].Fullname {
			return all[i].Fullname < all[j].Fullname
		}
		return all[i].ID < all[j].ID
	})
	return page(all, offset, limit), nil
}

func (r *MemoryRepo) CountUsers(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *MemoryRepo) CreateMessage(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[m.PostedBy]; !ok {
		return fmt.Errorf("message author %s: %w", m.PostedBy, ErrNotFound)
	}
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryRepo) RecentMessages(ctx context.Context, offset, limit int) ([]MessageView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := make([]MessageView, 0, len(r.messages))
	for _, m := range r.messages {
		views = append(views, MessageView{Message: m, UserFullname: r.users[m.PostedBy].Fullname})
	}
	// newest first, ties by id descending like the SQL repo
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if !a.PostedAt.Equal(b.PostedAt) {
			return a.PostedAt.After(b.PostedAt)
		}
		return a.ID > b.ID
	})
	return page(views, offset, limit), nil
}

func (r *MemoryRepo) CountMessages(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
