package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"protoapp/pkg/utils"
)

// Dialect selects placeholder syntax for the SQL repository.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported driver %q", driver)
	}
}

// SQLRepo implements UserStore and MessageStore over database/sql.
// Queries are written with ? placeholders and rebound per dialect.
// Timestamps are stored as unix milliseconds.
type SQLRepo struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLRepo(db *sql.DB, dialect Dialect) *SQLRepo {
	return &SQLRepo{db: db, dialect: dialect}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS app_user (
  id              TEXT PRIMARY KEY,
  fullname        TEXT NOT NULL,
  email           TEXT NOT NULL UNIQUE,
  hashed_password TEXT NOT NULL,
  is_admin        BOOLEAN NOT NULL DEFAULT FALSE,
  created_at      BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS message (
  id        TEXT PRIMARY KEY,
  posted_at BIGINT NOT NULL,
  posted_by TEXT NOT NULL REFERENCES app_user(id),
  message   TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS message_posted_at_idx ON message (posted_at)`,
}

// Migrate creates the schema if it does not exist. It is idempotent.
func (r *SQLRepo) Migrate(ctx context.Context) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLRepo) UserByEmail(ctx context.Context, email string) (User, bool, error) {
	const q = `
SELECT id, fullname, email, hashed_password, is_admin, created_at
FROM app_user
WHERE email = ?
`
	return r.queryUser(ctx, q, strings.ToLower(email))
}

func (r *SQLRepo) UserByID(ctx context.Context, id UserID) (User, bool, error) {
	const q = `
SELECT id, fullname, email, hashed_password, is_admin, created_at
FROM app_user
WHERE id = ?
`
	return r.queryUser(ctx, q, string(id))
}

func (r *SQLRepo) queryUser(ctx context.Context, q string, arg any) (User, bool, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, r.rebind(q), arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return u, true, nil
}

func (r *SQLRepo) CreateUser(ctx context.Context, u User) error {
	const q = `
INSERT INTO app_user (id, fullname, email, hashed_password, is_admin, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (email) DO NOTHING
`
	email := strings.ToLower(u.Email)
	res, err := r.db.ExecContext(ctx, r.rebind(q),
		string(u.ID), u.Fullname, email, u.HashedPassword, u.IsAdmin, u.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
	}
	return nil
}

func (r *SQLRepo) ListUsers(ctx context.Context, offset, limit int) ([]User, error) {
	const q = `
SELECT id, fullname, email, hashed_password, is_admin, created_at
FROM app_user
ORDER BY fullname, id
LIMIT ? OFFSET ?
`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLRepo) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM app_user`)
}

// CreateMessage checks the author inside the same transaction as the insert.
func (r *SQLRepo) CreateMessage(ctx context.Context, m Message) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, r.rebind(`SELECT 1 FROM app_user WHERE id = ?`), string(m.PostedBy)).Scan(&one)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("message author %s: %w", m.PostedBy, ErrNotFound)
			}
			return err
		}

		const q = `
INSERT INTO message (id, posted_at, posted_by, message)
VALUES (?, ?, ?, ?)
`
		_, err = tx.ExecContext(ctx, r.rebind(q), string(m.ID), m.PostedAt.UnixMilli(), string(m.PostedBy), m.Message)
		return err
	})
}

func (r *SQLRepo) RecentMessages(ctx context.Context, offset, limit int) ([]MessageView, error) {
	q := `
SELECT m.id, m.posted_at, m.posted_by, m.message, u.fullname
FROM message m
JOIN app_user u ON u.id = m.posted_by
ORDER BY m.posted_at DESC, ` + r.bytewise("m.id") + ` DESC
LIMIT ? OFFSET ?
`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MessageView{}
	for rows.Next() {
		var (
			v        MessageView
			postedAt int64
		)
		if err := rows.Scan(&v.ID, &postedAt, &v.PostedBy, &v.Message.Message, &v.UserFullname); err != nil {
			return nil, err
		}
		v.PostedAt = time.UnixMilli(postedAt).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLRepo) CountMessages(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM message`)
}

func (r *SQLRepo) count(ctx context.Context, q string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (User, error) {
	var (
		u         User
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.Fullname, &u.Email, &u.HashedPassword, &u.IsAdmin, &createdAt); err != nil {
		return User{}, err
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

// bytewise orders a text column by raw bytes, matching Go string
// comparison. SQLite's default BINARY collation already does.
func (r *SQLRepo) bytewise(col string) string {
	if r.dialect == Postgres {
		return col + ` COLLATE "C"`
	}
	return col
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *SQLRepo) rebind(q string) string {
	if r.dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
