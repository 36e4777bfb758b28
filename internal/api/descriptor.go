package api

import (
	"fmt"

	"protoapp/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Descriptor declares one API operation. Its identity is (Method, Path).
type Descriptor struct {
	Name     string
	Method   string
	Path     string
	Security rbac.Level

	// HasBody is false for operations whose input is not read from the
	// request body. Their handlers receive the zero input value.
	HasBody bool
}

func (d Descriptor) key() routeKey {
	return routeKey{method: d.Method, path: d.Path}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s (%s)", d.Method, d.Path, d.Name)
}

// Endpoint is a descriptor bound to a handler. Only this package
// implements it; build one with Handle or HandleWithClaims.
type Endpoint interface {
	Descriptor() Descriptor
	serve(c *gin.Context, rt *dispatchEnv)
}

type routeKey struct {
	method string
	path   string
}
