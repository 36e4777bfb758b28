package api

import (
	"fmt"
	"strings"

	"protoapp/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Table is the immutable set of registered endpoints.
type Table struct {
	byKey   map[routeKey]Endpoint
	ordered []Endpoint
}

// NewTable indexes endpoints by (method, path). A repeated pair is a
// configuration error.
func NewTable(endpoints ...Endpoint) (*Table, error) {
	t := &Table{byKey: make(map[routeKey]Endpoint, len(endpoints))}
	for _, ep := range endpoints {
		d := ep.Descriptor()
		if d.Method == "" || !strings.HasPrefix(d.Path, "/") {
			return nil, fmt.Errorf("invalid endpoint %s", d)
		}
		if prev, ok := t.byKey[d.key()]; ok {
			return nil, fmt.Errorf("%w: %s conflicts with %s", ErrDuplicateEndpoint, d, prev.Descriptor())
		}
		t.byKey[d.key()] = ep
		t.ordered = append(t.ordered, ep)
	}
	return t, nil
}

// Match is an exact (method, path) lookup.
func (t *Table) Match(method, path string) (Endpoint, bool) {
	ep, ok := t.byKey[routeKey{method: method, path: path}]
	return ep, ok
}

// Descriptors lists the registered descriptors in registration order.
func (t *Table) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(t.ordered))
	for _, ep := range t.ordered {
		out = append(out, ep.Descriptor())
	}
	return out
}

type dispatchEnv struct {
	checker   rbac.Checker
	bodyLimit int64
}

// Dispatcher routes every request through the table.
type Dispatcher struct {
	table *Table
	rt    *dispatchEnv
}

const defaultBodyLimit = 1 << 20

func NewDispatcher(table *Table, checker rbac.Checker, bodyLimit int64) *Dispatcher {
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}
	return &Dispatcher{
		table: table,
		rt:    &dispatchEnv{checker: checker, bodyLimit: bodyLimit},
	}
}

// Handle is the gin handler that matches and serves one request.
func (d *Dispatcher) Handle(c *gin.Context) {
	ep, ok := d.table.Match(c.Request.Method, c.Request.URL.Path)
	if !ok {
		WriteError(c, fmt.Errorf("%w: %s %s", ErrNotFound, c.Request.Method, c.Request.URL.Path))
		return
	}
	ep.serve(c, d.rt)
}

// Install makes the dispatcher the only router of r. Middleware registered
// on r before Install (CORS, logging, rate limits) still runs first.
// Methods outside r.Any's set reach the dispatcher through NoRoute, so they
// get the same empty 404 instead of gin's default text body.
func (d *Dispatcher) Install(r *gin.Engine) {
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = false
	r.Any("/*path", d.Handle)
	r.NoRoute(d.Handle)
	r.NoMethod(d.Handle)
}
