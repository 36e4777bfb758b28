package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type repo interface {
	UserStore
	MessageStore
}

func newSQLiteRepo(t *testing.T) *SQLRepo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	r := NewSQLRepo(db, SQLite)
	require.NoError(t, r.Migrate(context.Background()))
	// second run must be a no-op
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func TestRepos(t *testing.T) {
	for name, mk := range map[string]func(t *testing.T) repo{
		"memory": func(*testing.T) repo { return NewMemoryRepo() },
		"sqlite": func(t *testing.T) repo { return newSQLiteRepo(t) },
	} {
		t.Run(name, func(t *testing.T) {
			t.Run("users", func(t *testing.T) { testUsers(t, mk(t)) })
			t.Run("messages", func(t *testing.T) { testMessages(t, mk(t)) })
			t.Run("message ties", func(t *testing.T) { testMessageTies(t, mk(t)) })
		})
	}
}

func testUsers(t *testing.T, r repo) {
	ctx := context.Background()
	created := time.UnixMilli(1700000000123).UTC()

	alice := User{ID: NewUserID(), Fullname: "Alice", Email: "Alice@Example.com", HashedPassword: "h1", IsAdmin: true, CreatedAt: created}
	bob := User{ID: NewUserID(), Fullname: "Bob", Email: "bob@example.com", HashedPassword: "h2", CreatedAt: created}
	require.NoError(t, r.CreateUser(ctx, alice))
	require.NoError(t, r.CreateUser(ctx, bob))

	err := r.CreateUser(ctx, User{ID: NewUserID(), Fullname: "Impostor", Email: "ALICE@example.com", CreatedAt: created})
	assert.True(t, errors.Is(err, ErrDuplicateEmail), "got %v", err)

	got, ok, err := r.UserByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, got.IsAdmin)
	assert.True(t, got.CreatedAt.Equal(created))

	got, ok, err = r.UserByID(ctx, bob.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bob", got.Fullname)
	assert.False(t, got.IsAdmin)

	_, ok, err = r.UserByID(ctx, NewUserID())
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	users, err := r.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Bob", users[0].Fullname)

	users, err = r.ListUsers(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func testMessages(t *testing.T, r repo) {
	ctx := context.Background()
	author := User{ID: NewUserID(), Fullname: "Alice", Email: "alice@example.com", HashedPassword: "h", CreatedAt: time.Now()}
	require.NoError(t, r.CreateUser(ctx, author))

	base := time.UnixMilli(1700000000000).UTC()
	var ids []MessageID
	for i := 0; i < 3; i++ {
		m := Message{ID: NewMessageID(), PostedAt: base.Add(time.Duration(i) * time.Second), PostedBy: author.ID, Message: "m"}
		require.NoError(t, r.CreateMessage(ctx, m))
		ids = append(ids, m.ID)
	}

	err := r.CreateMessage(ctx, Message{ID: NewMessageID(), PostedAt: base, PostedBy: NewUserID(), Message: "orphan"})
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	n, err := r.CountMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := r.RecentMessages(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
	assert.Equal(t, "Alice", recent[0].UserFullname)
	assert.True(t, recent[0].PostedAt.Equal(base.Add(2*time.Second)))

	recent, err = r.RecentMessages(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[0], recent[0].ID)
}

func testMessageTies(t *testing.T, r repo) {
	ctx := context.Background()
	author := User{ID: NewUserID(), Fullname: "Alice", Email: "alice@example.com", HashedPassword: "h", CreatedAt: time.Now()}
	require.NoError(t, r.CreateUser(ctx, author))

	at := time.UnixMilli(1700000000000).UTC()
	for _, id := range []MessageID{"b", "a", "C", "c"} {
		require.NoError(t, r.CreateMessage(ctx, Message{ID: id, PostedAt: at, PostedBy: author.ID, Message: string(id)}))
	}
	require.NoError(t, r.CreateMessage(ctx, Message{ID: "0", PostedAt: at.Add(time.Millisecond), PostedBy: author.ID, Message: "later"}))

	recent, err := r.RecentMessages(ctx, 0, 10)
	require.NoError(t, err)
	var got []MessageID
	for _, v := range recent {
		got = append(got, v.ID)
	}
	assert.Equal(t, []MessageID{"0", "c", "b", "a", "C"}, got)

	page2, err := r.RecentMessages(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, MessageID("b"), page2[0].ID)
	assert.Equal(t, MessageID("a"), page2[1].ID)
}

func TestSQLRepo_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLRepo(db, Postgres)
	id := NewUserID()

	mock.ExpectQuery(regexp.QuoteMeta("FROM app_user\nWHERE email = $1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "fullname", "email", "hashed_password", "is_admin", "created_at"}).
			AddRow(string(id), "Alice", "alice@example.com", "h", true, int64(1700000000000)))

	u, ok, err := r.UserByEmail(context.Background(), "Alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, u.ID)
	assert.True(t, u.IsAdmin)

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = r.CreateUser(context.Background(), User{ID: NewUserID(), Email: "alice@example.com", CreatedAt: time.Now()})
	assert.True(t, errors.Is(err, ErrDuplicateEmail), "got %v", err)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY m.posted_at DESC, m.id COLLATE "C" DESC
LIMIT $1 OFFSET $2`)).
		WithArgs(10, 20).
		WillReturnError(errors.New("connection reset"))
	_, err = r.RecentMessages(context.Background(), 20, 10)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}
