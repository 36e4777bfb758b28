package main

import (
	"log/slog"

	"protoapp/internal/api"
	"protoapp/internal/config"
	"protoapp/internal/httpapi"
	"protoapp/internal/ratelimit"
	"protoapp/internal/rbac"
	"protoapp/internal/uiapi"
	"protoapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// newRouter wires middleware and the endpoint table into a gin engine.
// Keep this file free of business logic.
func newRouter(cfg config.Config, log *slog.Logger, h *httpapi.Handlers, checker rbac.Checker, limiter ratelimit.Limiter) (*gin.Engine, error) {
	table, err := api.NewTable(h.Endpoints()...)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(api.CORS(cfg.App.CORS))
	if limiter != nil {
		r.Use(ratelimit.Middleware(limiter, uiapi.CredentialPaths...))
	}

	api.NewDispatcher(table, checker, cfg.App.BodyLimit).Install(r)

	for _, d := range table.Descriptors() {
		log.Debug("endpoint registered", "endpoint", d.Name, "method", d.Method, "path", d.Path, "security", d.Security.String())
	}
	return r, nil
}
