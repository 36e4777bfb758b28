package auth

import (
	"net/http"
	"strings"
)

const (
	AuthorizationHeader = "Authorization"
	bearerScheme        = "bearer"
)

// BearerToken extracts the token from an Authorization header value.
// The value must be exactly two whitespace separated fields with a
// case-insensitive "Bearer" scheme; anything else counts as absent.
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
		return "", false
	}
	return fields[1], true
}

// BearerFromRequest reads the bearer token from the request headers.
func BearerFromRequest(r *http.Request) (string, bool) {
	return BearerToken(r.Header.Get(AuthorizationHeader))
}
