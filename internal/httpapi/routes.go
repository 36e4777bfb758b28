package httpapi

import (
	"net/http"

	"protoapp/internal/api"
	"protoapp/internal/uiapi"
)

// Endpoints binds every UI API descriptor to its handler. Cookie handling
// for the refresh token lives in the binding hooks, not in the handlers.
func (h *Handlers) Endpoints() []api.Endpoint {
	return []api.Endpoint{
		api.Handle(uiapi.Healthy, h.Healthy),
		api.Handle(uiapi.Ping, h.Ping),
		api.Handle(uiapi.Login, h.Login).AfterHandle(setRefreshCookie),
		api.Handle(uiapi.Refresh, h.Refresh).BeforeHandle(refreshFromCookie),
		api.Handle(uiapi.Logout, h.Logout).AfterHandle(clearRefreshCookie),

		api.HandleWithClaims(uiapi.NewMessage, h.NewMessage),
		api.HandleWithClaims(uiapi.RecentMessages, h.RecentMessages),
		api.HandleWithClaims(uiapi.WhoAmI, h.WhoAmI),

		api.HandleWithClaims(uiapi.CreateUser, h.CreateUser),
		api.HandleWithClaims(uiapi.QueryUsers, h.QueryUsers),
	}
}

func setRefreshCookie(w http.ResponseWriter, out uiapi.LoginResp) {
	if out.Tokens != nil {
		api.SetRefreshCookie(w, out.Tokens.RefreshJWT)
	}
}

// refreshFromCookie fills the token from the cookie only when the body
// omitted it; an explicit body value wins.
func refreshFromCookie(r *http.Request, in *uiapi.RefreshReq) {
	if in.RefreshToken != nil {
		return
	}
	if v, ok := api.RefreshCookie(r); ok {
		in.RefreshToken = &v
	}
}

func clearRefreshCookie(w http.ResponseWriter, _ api.Unit) {
	api.ClearRefreshCookie(w)
}
