package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"protoapp/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Unit is the empty input/output shape. It encodes as {}.
type Unit struct{}

// Request is what a handler with optional identity receives.
// Claims is nil for Public endpoints.
type Request struct {
	Ctx    context.Context
	Claims *auth.AccessClaims
}

// ClaimsRequest is what a handler with mandatory identity receives.
type ClaimsRequest struct {
	Ctx    context.Context
	Claims auth.AccessClaims
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Binding adapts a typed handler to the uniform Endpoint contract.
type Binding[I, O any] struct {
	desc          Descriptor
	requireClaims bool
	call          func(Request, I) (O, error)
	before        []func(*http.Request, *I)
	after         []func(http.ResponseWriter, O)
}

// Handle binds fn to d. The caller identity, if any, is optional.
func Handle[I, O any](d Descriptor, fn func(Request, I) (O, error)) *Binding[I, O] {
	return &Binding[I, O]{desc: d, call: fn}
}

// HandleWithClaims binds fn to d and rejects the request when the security
// check produces no identity, whatever the declared level.
func HandleWithClaims[I, O any](d Descriptor, fn func(ClaimsRequest, I) (O, error)) *Binding[I, O] {
	return &Binding[I, O]{
		desc:          d,
		requireClaims: true,
		call: func(r Request, in I) (O, error) {
			return fn(ClaimsRequest{Ctx: r.Ctx, Claims: *r.Claims}, in)
		},
	}
}

// BeforeHandle registers a hook that may fill the decoded input from the
// raw request (headers, cookies) before the handler runs.
func (b *Binding[I, O]) BeforeHandle(fn func(*http.Request, *I)) *Binding[I, O] {
	b.before = append(b.before, fn)
	return b
}

// AfterHandle registers a hook that may augment the response (headers,
// cookies) from a successful output before it is encoded.
func (b *Binding[I, O]) AfterHandle(fn func(http.ResponseWriter, O)) *Binding[I, O] {
	b.after = append(b.after, fn)
	return b
}

func (b *Binding[I, O]) Descriptor() Descriptor { return b.desc }

func (b *Binding[I, O]) serve(c *gin.Context, rt *dispatchEnv) {
	ctx := c.Request.Context()
	header := c.GetHeader(auth.AuthorizationHeader)

	var claims *auth.AccessClaims
	if b.requireClaims {
		cl, err := rt.checker.RequireClaims(ctx, b.desc.Security, header)
		if err != nil {
			WriteError(c, err)
			return
		}
		claims = &cl
	} else {
		cl, err := rt.checker.Evaluate(ctx, b.desc.Security, header)
		if err != nil {
			WriteError(c, err)
			return
		}
		claims = cl
	}

	var in I
	if b.desc.HasBody {
		if err := decodeBody(c, rt.bodyLimit, &in); err != nil {
			WriteError(c, err)
			return
		}
	}
	for _, hook := range b.before {
		hook(c.Request, &in)
	}

	out, err := b.call(Request{Ctx: ctx, Claims: claims}, in)
	if err != nil {
		WriteError(c, err)
		return
	}

	body, err := json.Marshal(out)
	if err != nil {
		WriteError(c, fmt.Errorf("encode %s response: %w", b.desc.Name, err))
		return
	}
	for _, hook := range b.after {
		hook(c.Writer, out)
	}
	c.Data(http.StatusOK, "application/json", body)
}

func decodeBody(c *gin.Context, limit int64, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return BadRequest("body exceeds %d bytes", tooLarge.Limit)
		}
		return BadRequest("read body: %v", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return BadRequest("empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		return BadRequest("decode body: %v", err)
	}
	// exactly one value: a stray '}' or ']' is a syntax error, not EOF
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return BadRequest("trailing data after body")
	}

	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// non-struct inputs carry no validation tags
			return nil
		}
		return BadRequest("validate body: %v", err)
	}
	return nil
}
