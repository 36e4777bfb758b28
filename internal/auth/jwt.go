package auth

import (
	"errors"
	"fmt"
	"time"

	"protoapp/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every decode failure: bad signature, expiry,
// wrong issuer/audience, wrong token type, missing claims.
// The wrapped detail is for server logs only.
var ErrInvalidToken = errors.New("invalid token")

// clockSkew is the tolerance applied to exp/iat checks.
const clockSkew = 30 * time.Second

// Codec issues and verifies HS256 tokens with a single shared secret.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(cfg config.AuthConfig) (*Codec, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token ttls must be positive")
	}

	return &Codec{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

type TokenPair struct {
	AccessJWT  string
	RefreshJWT string
}

/* ===================== ISSUE TOKENS ===================== */

func (c *Codec) CreateAccess(now time.Time, subject string, role Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	return c.issue(now, TokenTypeAccess, subject, role, c.accessTTL)
}

func (c *Codec) CreateRefresh(now time.Time, subject string) (string, error) {
	// refresh tokens DO NOT carry role
	return c.issue(now, TokenTypeRefresh, subject, "", c.refreshTTL)
}

func (c *Codec) IssuePair(now time.Time, subject string, role Role) (TokenPair, error) {
	access, err := c.CreateAccess(now, subject, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := c.CreateRefresh(now, subject)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessJWT: access, RefreshJWT: refresh}, nil
}

/* ===================== DECODE TOKENS ===================== */

func (c *Codec) DecodeAccess(token string, now time.Time) (AccessClaims, error) {
	claims, err := c.verify(token, TokenTypeAccess, now)
	if err != nil {
		return AccessClaims{}, err
	}
	if !claims.Role.Valid() {
		return AccessClaims{}, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	return AccessClaims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *Codec) DecodeRefresh(token string, now time.Time) (RefreshClaims, error) {
	claims, err := c.verify(token, TokenTypeRefresh, now)
	if err != nil {
		return RefreshClaims{}, err
	}
	return RefreshClaims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *Codec) verify(tokenString string, expected TokenType, now time.Time) (tokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}

	var claims tokenClaims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return tokenClaims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.TokenType != expected {
		return tokenClaims{}, fmt.Errorf("%w: token_type %q, want %q", ErrInvalidToken, claims.TokenType, expected)
	}
	if claims.Subject == "" {
		return tokenClaims{}, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	return claims, nil
}

/* ===================== INTERNAL ISSUE ===================== */

func (c *Codec) issue(now time.Time, tokenType TokenType, subject string, role Role, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Audience:  audienceOrNil(c.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role:      role,
		TokenType: tokenType,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
