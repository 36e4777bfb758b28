package audit

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryRepo is a simple in-memory append-only repository useful for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// LogRepo writes each event as one structured log line. It is the
// production sink; log shipping provides retention.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo { return &LogRepo{log: l} }

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	r.log.InfoContext(ctx, "audit",
		"audit_id", e.ID,
		"type", string(e.Type),
		"actor_user_id", e.ActorUserID,
		"subject_user_id", e.SubjectUserID,
		"email", e.Email,
		"message", e.Message,
		"created_at", e.CreatedAt,
	)
	return nil
}
