package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"protoapp/internal/audit"
	"protoapp/internal/auth"
	"protoapp/internal/config"
	"protoapp/internal/httpapi"
	"protoapp/internal/passwords"
	"protoapp/internal/ratelimit"
	"protoapp/internal/rbac"
	"protoapp/internal/store"
	"protoapp/pkg/logger"
	"protoapp/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	codec, err := auth.NewCodec(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	dialect, err := store.DialectFor(cfg.DB.Driver)
	if err != nil {
		log.Error("db init failed", "err", err)
		os.Exit(1)
	}
	db, err := utils.OpenDB(rootCtx, cfg.DB.Driver, cfg.DSN(), utils.PoolConfig{})
	if err != nil {
		log.Error("db init failed", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := store.NewSQLRepo(db, dialect)
	if err := repo.Migrate(rootCtx); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.Login, cfg.RateLimit.Window)
	} else {
		log.Info("redis not configured, rate limiting disabled")
	}

	h := &httpapi.Handlers{
		Tokens:    codec,
		Users:     repo,
		Messages:  repo,
		Passwords: passwords.NewArgon2(passwords.DefaultParams),
		Audit:     audit.NewService(audit.NewLogRepo(log.With("component", "audit"))),
		Now:       time.Now,
	}
	checker := rbac.NewAccessTokenChecker(codec, time.Now)

	r, err := newRouter(cfg, log, h, checker, limiter)
	if err != nil {
		log.Error("router init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "db", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
