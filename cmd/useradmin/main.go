// Command useradmin creates a user directly in the configured database.
// It is the way to bootstrap the first admin account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"protoapp/internal/config"
	"protoapp/internal/passwords"
	"protoapp/internal/store"
	"protoapp/pkg/logger"
	"protoapp/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type options struct {
	email    string
	fullname string
	password string
	admin    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("useradmin", flag.ContinueOnError)
	fs.StringVar(&o.email, "email", "", "user email (required)")
	fs.StringVar(&o.fullname, "fullname", "", "user full name (required)")
	fs.StringVar(&o.password, "password", "", "initial password (required)")
	fs.BoolVar(&o.admin, "admin", false, "grant the admin role")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var errs []error
	if o.email == "" {
		errs = append(errs, errors.New("-email is required"))
	}
	if o.fullname == "" {
		errs = append(errs, errors.New("-fullname is required"))
	}
	if len(o.password) < 8 {
		errs = append(errs, errors.New("-password must be at least 8 characters"))
	}
	return o, errors.Join(errs...)
}

func createUser(ctx context.Context, users store.UserStore, hasher *passwords.Argon2, o options, now time.Time) (store.User, error) {
	hashed, err := hasher.Hash(o.password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := store.User{
		ID:             store.NewUserID(),
		Fullname:       o.fullname,
		Email:          o.email,
		HashedPassword: hashed,
		IsAdmin:        o.admin,
		CreatedAt:      now,
	}
	if err := users.CreateUser(ctx, u); err != nil {
		return store.User{}, err
	}
	return u, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dialect, err := store.DialectFor(cfg.DB.Driver)
	if err != nil {
		log.Error("db init failed", "err", err)
		os.Exit(1)
	}
	db, err := utils.OpenDB(ctx, cfg.DB.Driver, cfg.DSN(), utils.PoolConfig{})
	if err != nil {
		log.Error("db init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := store.NewSQLRepo(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	u, err := createUser(ctx, repo, passwords.NewArgon2(passwords.DefaultParams), o, time.Now())
	if err != nil {
		log.Error("create user failed", "email", o.email, "err", err)
		os.Exit(1)
	}
	log.Info("user created", "id", string(u.ID), "email", u.Email, "is_admin", u.IsAdmin)
}
