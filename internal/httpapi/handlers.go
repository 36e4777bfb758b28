package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"protoapp/internal/api"
	"protoapp/internal/audit"
	"protoapp/internal/auth"
	"protoapp/internal/passwords"
	"protoapp/internal/rbac"
	"protoapp/internal/store"
	"protoapp/internal/uiapi"
	"protoapp/pkg/logger"
)

// PasswordHasher hashes new passwords and verifies stored ones.
type PasswordHasher interface {
	passwords.Verifier
	Hash(password string) (string, error)
}

// Handlers groups the UI API business handlers for dependency injection.
// Keep these thin: the dispatcher has already checked security and
// decoded input; handlers call stores and shape output.
type Handlers struct {
	Tokens    *auth.Codec
	Users     store.UserStore
	Messages  store.MessageStore
	Passwords PasswordHasher
	Audit     *audit.Service // optional
	Now       func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Public ---

func (h *Handlers) Healthy(api.Request, api.Unit) (api.Unit, error) {
	return api.Unit{}, nil
}

func (h *Handlers) Ping(api.Request, api.Unit) (api.Unit, error) {
	return api.Unit{}, nil
}

// Login folds unknown email and wrong password into one outcome.
func (h *Handlers) Login(r api.Request, in uiapi.LoginReq) (uiapi.LoginResp, error) {
	email := strings.ToLower(in.Email)
	user, found, err := h.Users.UserByEmail(r.Ctx, email)
	if err != nil {
		return uiapi.LoginResp{}, fmt.Errorf("login lookup: %w", err)
	}
	if !found {
		h.Passwords.VerifyDummy(in.Password)
		h.Audit.LoginFailed(r.Ctx, "", email)
		return uiapi.InvalidCredentials(), nil
	}
	if !h.Passwords.Verify(in.Password, user.HashedPassword) {
		h.Audit.LoginFailed(r.Ctx, string(user.ID), email)
		return uiapi.InvalidCredentials(), nil
	}

	pair, err := h.Tokens.IssuePair(h.now(), string(user.ID), rbac.RoleFor(user.IsAdmin))
	if err != nil {
		return uiapi.LoginResp{}, fmt.Errorf("issue tokens: %w", err)
	}
	h.Audit.LoginSucceeded(r.Ctx, string(user.ID), email)
	return uiapi.LoginSucceeded(uiapi.LoginTokens{
		AccessJWT:  pair.AccessJWT,
		RefreshJWT: pair.RefreshJWT,
	}), nil
}

// Refresh re-resolves the role from the current user record.
func (h *Handlers) Refresh(r api.Request, in uiapi.RefreshReq) (uiapi.RefreshResp, error) {
	if in.RefreshToken == nil {
		return uiapi.InvalidRefreshToken(), nil
	}
	claims, err := h.Tokens.DecodeRefresh(*in.RefreshToken, h.now())
	if err != nil {
		logger.From(r.Ctx).Debug("refresh token rejected", "err", err)
		return uiapi.InvalidRefreshToken(), nil
	}
	user, found, err := h.Users.UserByID(r.Ctx, store.UserID(claims.Subject))
	if err != nil {
		return uiapi.RefreshResp{}, fmt.Errorf("refresh lookup: %w", err)
	}
	if !found {
		return uiapi.InvalidRefreshToken(), nil
	}

	access, err := h.Tokens.CreateAccess(h.now(), string(user.ID), rbac.RoleFor(user.IsAdmin))
	if err != nil {
		return uiapi.RefreshResp{}, fmt.Errorf("issue access token: %w", err)
	}
	return uiapi.Refreshed(access), nil
}

func (h *Handlers) Logout(api.Request, api.Unit) (api.Unit, error) {
	return api.Unit{}, nil
}

// --- Token ---

func (h *Handlers) NewMessage(r api.ClaimsRequest, in uiapi.NewMessageReq) (store.MessageID, error) {
	m := store.Message{
		ID:       store.NewMessageID(),
		PostedAt: h.now(),
		PostedBy: store.UserID(r.Claims.Subject),
		Message:  in.Message,
	}
	if err := h.Messages.CreateMessage(r.Ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", api.Reject("author %s no longer exists", m.PostedBy)
		}
		return "", fmt.Errorf("create message: %w", err)
	}
	return m.ID, nil
}

func (h *Handlers) RecentMessages(r api.ClaimsRequest, in uiapi.RecentMessagesReq) (uiapi.Paginated[uiapi.Message], error) {
	views, err := h.Messages.RecentMessages(r.Ctx, in.Offset, in.Limit)
	if err != nil {
		return uiapi.Paginated[uiapi.Message]{}, fmt.Errorf("recent messages: %w", err)
	}
	total, err := h.Messages.CountMessages(r.Ctx)
	if err != nil {
		return uiapi.Paginated[uiapi.Message]{}, fmt.Errorf("count messages: %w", err)
	}

	items := make([]uiapi.Message, 0, len(views))
	for _, v := range views {
		items = append(items, uiapi.Message{
			ID:           v.ID,
			PostedAt:     v.PostedAt.UnixMilli(),
			UserFullname: v.UserFullname,
			Message:      v.Message.Message,
		})
	}
	return uiapi.Paginated[uiapi.Message]{Items: items, CurrentOffset: in.Offset, TotalCount: total}, nil
}

func (h *Handlers) WhoAmI(r api.ClaimsRequest, _ api.Unit) (uiapi.UserProfile, error) {
	user, found, err := h.Users.UserByID(r.Ctx, store.UserID(r.Claims.Subject))
	if err != nil {
		return uiapi.UserProfile{}, fmt.Errorf("who am i: %w", err)
	}
	if !found {
		return uiapi.UserProfile{}, api.Reject("subject %s not found", r.Claims.Subject)
	}
	return profile(user), nil
}

// --- Admin ---

func (h *Handlers) CreateUser(r api.ClaimsRequest, in uiapi.UserDetails) (store.UserID, error) {
	hashed, err := h.Passwords.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u := store.User{
		ID:             store.NewUserID(),
		Fullname:       in.Fullname,
		Email:          strings.ToLower(in.Email),
		HashedPassword: hashed,
		IsAdmin:        in.IsAdmin,
		CreatedAt:      h.now(),
	}
	if err := h.Users.CreateUser(r.Ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return "", api.BadRequest("%v", err)
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	logger.From(r.Ctx).Info("user created", "user_id", u.ID, "is_admin", u.IsAdmin, "by", r.Claims.Subject)
	h.Audit.UserCreated(r.Ctx, r.Claims.Subject, string(u.ID), u.Email, u.IsAdmin)
	return u.ID, nil
}

func (h *Handlers) QueryUsers(r api.ClaimsRequest, in uiapi.QueryUsersReq) (uiapi.Paginated[uiapi.UserProfile], error) {
	users, err := h.Users.ListUsers(r.Ctx, in.Offset, in.Limit)
	if err != nil {
		return uiapi.Paginated[uiapi.UserProfile]{}, fmt.Errorf("list users: %w", err)
	}
	total, err := h.Users.CountUsers(r.Ctx)
	if err != nil {
		return uiapi.Paginated[uiapi.UserProfile]{}, fmt.Errorf("count users: %w", err)
	}

	items := make([]uiapi.UserProfile, 0, len(users))
	for _, u := range users {
		items = append(items, profile(u))
	}
	return uiapi.Paginated[uiapi.UserProfile]{Items: items, CurrentOffset: in.Offset, TotalCount: total}, nil
}

func profile(u store.User) uiapi.UserProfile {
	return uiapi.UserProfile{
		ID:       u.ID,
		Fullname: u.Fullname,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
	}
}
