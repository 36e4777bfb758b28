package uiapi

import (
	"net/http"

	"protoapp/internal/api"
	"protoapp/internal/auth"
	"protoapp/internal/rbac"
)

var (
	Healthy = api.Descriptor{Name: "healthy", Method: http.MethodGet, Path: "/healthy", Security: rbac.Public}
	Ping    = api.Descriptor{Name: "ping", Method: http.MethodPost, Path: "/ping", Security: rbac.Public, HasBody: true}
	Login   = api.Descriptor{Name: "login", Method: http.MethodPost, Path: "/login", Security: rbac.Public, HasBody: true}
	Refresh = api.Descriptor{Name: "refresh", Method: http.MethodPost, Path: "/refresh", Security: rbac.Public, HasBody: true}
	Logout  = api.Descriptor{Name: "logout", Method: http.MethodPost, Path: "/logout", Security: rbac.Public, HasBody: true}

	NewMessage     = api.Descriptor{Name: "new_message", Method: http.MethodPost, Path: "/messages/new", Security: rbac.Token, HasBody: true}
	RecentMessages = api.Descriptor{Name: "recent_messages", Method: http.MethodPost, Path: "/messages/recent", Security: rbac.Token, HasBody: true}
	WhoAmI         = api.Descriptor{Name: "who_am_i", Method: http.MethodGet, Path: "/whoami", Security: rbac.Token}

	CreateUser = api.Descriptor{Name: "create_user", Method: http.MethodPost, Path: "/users/create", Security: rbac.TokenWithRole(auth.RoleAdmin), HasBody: true}
	QueryUsers = api.Descriptor{Name: "query_users", Method: http.MethodPost, Path: "/users/query", Security: rbac.TokenWithRole(auth.RoleAdmin), HasBody: true}
)

// CredentialPaths are the endpoints worth rate limiting per client.
var CredentialPaths = []string{Login.Path, Refresh.Path}
