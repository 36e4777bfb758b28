package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"protoapp/internal/auth"
	"protoapp/internal/config"
	"protoapp/internal/rbac"

	"github.com/gin-gonic/gin"
)

var testNow = time.Unix(1700000000, 0).UTC()

type echoReq struct {
	Text string `json:"text" validate:"required"`
}

type echoResp struct {
	Text    string `json:"text"`
	Subject string `json:"subject,omitempty"`
}

type harness struct {
	engine  *gin.Engine
	codec   *auth.Codec
	handled int
}

func newHarness(t *testing.T, cors bool) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := auth.NewCodec(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	h := &harness{codec: codec}

	echo := func(r Request, in echoReq) (echoResp, error) {
		h.handled++
		out := echoResp{Text: in.Text}
		if r.Claims != nil {
			out.Subject = r.Claims.Subject
		}
		return out, nil
	}
	whoami := func(r ClaimsRequest, _ Unit) (echoResp, error) {
		h.handled++
		return echoResp{Subject: r.Claims.Subject}, nil
	}
	fail := func(_ Request, _ Unit) (Unit, error) {
		return Unit{}, errors.New("db is on fire")
	}

	table, err := NewTable(
		Handle(Descriptor{Name: "healthy", Method: http.MethodGet, Path: "/healthy"},
			func(Request, Unit) (Unit, error) { return Unit{}, nil }),
		Handle(Descriptor{Name: "echo", Method: http.MethodPost, Path: "/echo", HasBody: true}, echo),
		Handle(Descriptor{Name: "secure_echo", Method: http.MethodPost, Path: "/secure/echo", Security: rbac.Token, HasBody: true}, echo),
		Handle(Descriptor{Name: "admin_echo", Method: http.MethodPost, Path: "/admin/echo", Security: rbac.TokenWithRole(auth.RoleAdmin), HasBody: true}, echo),
		HandleWithClaims(Descriptor{Name: "whoami", Method: http.MethodGet, Path: "/whoami", Security: rbac.Token}, whoami),
		HandleWithClaims(Descriptor{Name: "public_whoami", Method: http.MethodGet, Path: "/public/whoami"}, whoami),
		Handle(Descriptor{Name: "fail", Method: http.MethodGet, Path: "/fail"}, fail),
		Handle(Descriptor{Name: "login", Method: http.MethodPost, Path: "/login", HasBody: true},
			func(Request, Unit) (echoResp, error) { return echoResp{Text: "tok"}, nil }).
			AfterHandle(func(w http.ResponseWriter, out echoResp) { SetRefreshCookie(w, out.Text) }),
		Handle(Descriptor{Name: "cookie_echo", Method: http.MethodPost, Path: "/cookie", HasBody: true}, echo).
			BeforeHandle(func(r *http.Request, in *echoReq) {
				if v, ok := RefreshCookie(r); ok {
					in.Text = in.Text + "+" + v
				}
			}),
	)
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	checker := rbac.NewAccessTokenChecker(codec, func() time.Time { return testNow })
	r := gin.New()
	r.Use(CORS(cors))
	NewDispatcher(table, checker, 64).Install(r)
	h.engine = r
	return h
}

func (h *harness) do(method, path, body, authz string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) bearer(t *testing.T, role auth.Role) string {
	t.Helper()
	tok, err := h.codec.CreateAccess(testNow, "user-1", role)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return "Bearer " + tok
}

func TestDispatch_PublicEndpoint(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodGet, "/healthy", "", "")
	if w.Code != http.StatusOK || w.Body.String() != "{}" {
		t.Fatalf("expected 200 {}, got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestDispatch_ExactMatchOnly(t *testing.T) {
	h := newHarness(t, false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/healthy"},
		{http.MethodGet, "/healthy/"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/"},
		{http.MethodGet, "/HEALTHY"},
	} {
		w := h.do(tc.method, tc.path, "", "")
		if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
			t.Fatalf("%s %s: expected empty 404, got %d %q", tc.method, tc.path, w.Code, w.Body.String())
		}
	}
}

func TestDispatch_UnknownMethodIsEmpty404(t *testing.T) {
	h := newHarness(t, true)

	for _, tc := range []struct{ method, path string }{
		{"PROPFIND", "/healthy"},
		{"FOO", "/nope"},
		{"PURGE", "/echo"},
	} {
		w := h.do(tc.method, tc.path, "", "")
		if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
			t.Fatalf("%s %s: expected empty 404, got %d %q", tc.method, tc.path, w.Code, w.Body.String())
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s %s: middleware must still run, got ACAO %q", tc.method, tc.path, got)
		}
	}
}

func TestDispatch_TokenRequired(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodPost, "/secure/echo", `{"text":"hi"}`, "")
	if w.Code != http.StatusForbidden || w.Body.Len() != 0 {
		t.Fatalf("expected empty 403, got %d %q", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/secure/echo", `{"text":"hi"}`, h.bearer(t, auth.RoleUser))
	if w.Code != http.StatusOK || w.Body.String() != `{"text":"hi","subject":"user-1"}` {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
}

func TestDispatch_RejectsBeforeReadingBody(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodPost, "/secure/echo", `{not json`, "Bearer nope")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 ahead of body decode, got %d", w.Code)
	}
	if h.handled != 0 {
		t.Fatalf("handler must not run")
	}
}

func TestDispatch_RoleEnforced(t *testing.T) {
	h := newHarness(t, false)

	if w := h.do(http.MethodPost, "/admin/echo", `{"text":"hi"}`, h.bearer(t, auth.RoleUser)); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/admin/echo", `{"text":"hi"}`, h.bearer(t, auth.RoleAdmin)); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", w.Code)
	}
}

func TestDispatch_BadBodies(t *testing.T) {
	h := newHarness(t, false)
	authz := h.bearer(t, auth.RoleUser)

	for _, body := range []string{
		`{"text":`,
		`{"text":42}`,
		`{}`,
		`{"text":"a"} {"text":"b"}`,
		`{"text":"a"}}`,
		`{"text":"a"}]`,
		`{"text":"a"},`,
		`{"text":"` + strings.Repeat("x", 100) + `"}`,
	} {
		w := h.do(http.MethodPost, "/secure/echo", body, authz)
		if w.Code != http.StatusBadRequest || w.Body.Len() != 0 {
			t.Fatalf("body %q: expected empty 400, got %d %q", body, w.Code, w.Body.String())
		}
	}
	if w := h.do(http.MethodPost, "/echo", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", w.Code)
	}
	for _, body := range []string{`{}}`, `{}]`} {
		if w := h.do(http.MethodPost, "/login", body, ""); w.Code != http.StatusBadRequest || w.Body.Len() != 0 {
			t.Fatalf("body %q on unit input: expected empty 400, got %d %q", body, w.Code, w.Body.String())
		}
	}
	if h.handled != 0 {
		t.Fatalf("handler must not run on bad bodies")
	}
	if w := h.do(http.MethodPost, "/echo", "{\"text\":\"a\"}\n  ", ""); w.Code != http.StatusOK {
		t.Fatalf("trailing whitespace must be accepted, got %d", w.Code)
	}
}

func TestDispatch_RequireClaims(t *testing.T) {
	h := newHarness(t, false)

	if w := h.do(http.MethodGet, "/public/whoami", "", h.bearer(t, auth.RoleUser)); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when handler needs identity on public endpoint, got %d", w.Code)
	}
	w := h.do(http.MethodGet, "/whoami", "", h.bearer(t, auth.RoleUser))
	if w.Code != http.StatusOK || w.Body.String() != `{"text":"","subject":"user-1"}` {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
}

func TestDispatch_InternalErrorHidden(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodGet, "/fail", "", "")
	if w.Code != http.StatusInternalServerError || w.Body.Len() != 0 {
		t.Fatalf("expected empty 500, got %d %q", w.Code, w.Body.String())
	}
}

func TestDispatch_Hooks(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodPost, "/login", `{}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	ck := w.Header().Get("Set-Cookie")
	if !strings.HasPrefix(ck, RefreshCookieName+"=tok") || !strings.Contains(ck, "HttpOnly") {
		t.Fatalf("unexpected cookie %q", ck)
	}

	req := httptest.NewRequest(http.MethodPost, "/cookie", strings.NewReader(`{"text":"body"}`))
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "jar"})
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	if rec.Body.String() != `{"text":"body+jar"}` {
		t.Fatalf("unexpected response %q", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	h := newHarness(t, true)

	for _, path := range []string{"/healthy", "/no/such/path"} {
		w := h.do(http.MethodOptions, path, "", "")
		if w.Code != http.StatusOK || w.Body.Len() != 0 {
			t.Fatalf("OPTIONS %s: expected empty 200, got %d %q", path, w.Code, w.Body.String())
		}
		for _, name := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Access-Control-Allow-Method"} {
			if w.Header().Get(name) != "*" {
				t.Fatalf("OPTIONS %s: expected %s: *", path, name)
			}
		}
	}

	w := h.do(http.MethodGet, "/healthy", "", "")
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected allow-origin on regular response")
	}
	if w := h.do(http.MethodGet, "/nope", "", ""); w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected allow-origin on error response")
	}
}

func TestCORSDisabled(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodOptions, "/healthy", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without cors, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected cors header")
	}
}

func TestNewTable_DuplicateEndpoint(t *testing.T) {
	noop := func(Request, Unit) (Unit, error) { return Unit{}, nil }
	_, err := NewTable(
		Handle(Descriptor{Name: "a", Method: http.MethodGet, Path: "/x"}, noop),
		Handle(Descriptor{Name: "b", Method: http.MethodGet, Path: "/x"}, noop),
	)
	if !errors.Is(err, ErrDuplicateEndpoint) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	table, err := NewTable(
		Handle(Descriptor{Name: "a", Method: http.MethodGet, Path: "/x"}, noop),
		Handle(Descriptor{Name: "b", Method: http.MethodPost, Path: "/x"}, noop),
	)
	if err != nil {
		t.Fatalf("same path, different method must coexist: %v", err)
	}
	if ep, ok := table.Match(http.MethodPost, "/x"); !ok || ep.Descriptor().Name != "b" {
		t.Fatalf("unexpected match")
	}
	if got := table.Descriptors(); len(got) != 2 || got[0].Name != "a" {
		t.Fatalf("unexpected descriptors %v", got)
	}
}

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		nil:                              http.StatusOK,
		ErrNotFound:                      http.StatusNotFound,
		Reject("nope"):                   http.StatusForbidden,
		BadRequest("bad %d", 1):          http.StatusBadRequest,
		ErrTooManyRequests:               http.StatusTooManyRequests,
		context.DeadlineExceeded:         http.StatusInternalServerError,
		errors.New("connection refused"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusOf(err); got != want {
			t.Fatalf("StatusOf(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestClearRefreshCookie(t *testing.T) {
	w := httptest.NewRecorder()
	ClearRefreshCookie(w)
	ck := w.Header().Get("Set-Cookie")
	if ck != "refreshToken=; Max-Age=0; HttpOnly" {
		t.Fatalf("unexpected cookie %q", ck)
	}
}
