package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"protoapp/internal/auth"
	"protoapp/pkg/logger"
)

// ErrRejected is the single outcome of a failed security check.
// Callers must not surface the wrapped reason to clients.
var ErrRejected = errors.New("security check rejected")

// Checker decides whether a request is admitted for a security level.
type Checker interface {
	// Evaluate returns nil claims for Public levels.
	Evaluate(ctx context.Context, level Level, authHeader string) (*auth.AccessClaims, error)
	// RequireClaims is Evaluate that also rejects when no identity was produced.
	RequireClaims(ctx context.Context, level Level, authHeader string) (auth.AccessClaims, error)
}

// AccessTokenChecker checks bearer access tokens with a shared codec.
// It holds no mutable state and is shared by all requests.
type AccessTokenChecker struct {
	codec *auth.Codec
	now   func() time.Time
}

func NewAccessTokenChecker(codec *auth.Codec, now func() time.Time) *AccessTokenChecker {
	if now == nil {
		now = time.Now
	}
	return &AccessTokenChecker{codec: codec, now: now}
}

func (c *AccessTokenChecker) Evaluate(ctx context.Context, level Level, authHeader string) (*auth.AccessClaims, error) {
	if level.IsPublic() {
		return nil, nil
	}

	token, ok := auth.BearerToken(authHeader)
	if !ok {
		return nil, c.reject(ctx, level, errors.New("missing or malformed bearer token"))
	}
	claims, err := c.codec.DecodeAccess(token, c.now())
	if err != nil {
		return nil, c.reject(ctx, level, err)
	}
	if want, ok := level.Role(); ok && claims.Role != want {
		return nil, c.reject(ctx, level, fmt.Errorf("role %q, want %q", claims.Role, want))
	}
	return &claims, nil
}

func (c *AccessTokenChecker) RequireClaims(ctx context.Context, level Level, authHeader string) (auth.AccessClaims, error) {
	claims, err := c.Evaluate(ctx, level, authHeader)
	if err != nil {
		return auth.AccessClaims{}, err
	}
	if claims == nil {
		return auth.AccessClaims{}, c.reject(ctx, level, errors.New("identity required"))
	}
	return *claims, nil
}

func (c *AccessTokenChecker) reject(ctx context.Context, level Level, reason error) error {
	logger.From(ctx).Warn("security check rejected", "level", level.String(), "reason", reason.Error())
	return fmt.Errorf("%w: %w", ErrRejected, reason)
}
