package rbac

import (
	"fmt"

	"protoapp/internal/auth"
)

type levelKind int

const (
	levelPublic levelKind = iota
	levelToken
	levelTokenWithRole
)

// Level is the declared security requirement of an endpoint.
// The zero value is Public.
type Level struct {
	kind levelKind
	role auth.Role
}

var (
	// Public requires no credential and produces no claims.
	Public = Level{kind: levelPublic}
	// Token requires a valid access token with any role.
	Token = Level{kind: levelToken}
)

// TokenWithRole requires a valid access token whose role equals r.
func TokenWithRole(r auth.Role) Level {
	return Level{kind: levelTokenWithRole, role: r}
}

func (l Level) IsPublic() bool { return l.kind == levelPublic }

// Role reports the required role, if any.
func (l Level) Role() (auth.Role, bool) {
	return l.role, l.kind == levelTokenWithRole
}

func (l Level) String() string {
	switch l.kind {
	case levelPublic:
		return "public"
	case levelToken:
		return "token"
	case levelTokenWithRole:
		return fmt.Sprintf("token_with_role(%s)", l.role)
	default:
		return "unknown"
	}
}
