package uiapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"protoapp/internal/store"
)

// LoginReq carries no validation tags: empty or missing credentials are
// answered with invalid_credentials, not a 400.
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginTokens struct {
	AccessJWT  string `json:"access_jwt"`
	RefreshJWT string `json:"refresh_jwt"`
}

// LoginResp is either {"tokens": {...}} or "invalid_credentials".
type LoginResp struct {
	Tokens *LoginTokens
}

func LoginSucceeded(t LoginTokens) LoginResp { return LoginResp{Tokens: &t} }
func InvalidCredentials() LoginResp         { return LoginResp{} }

const invalidCredentials = "invalid_credentials"

func (r LoginResp) MarshalJSON() ([]byte, error) {
	if r.Tokens == nil {
		return json.Marshal(invalidCredentials)
	}
	return json.Marshal(struct {
		Tokens LoginTokens `json:"tokens"`
	}{*r.Tokens})
}

func (r *LoginResp) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var tag string
		if err := json.Unmarshal(b, &tag); err != nil {
			return err
		}
		if tag != invalidCredentials {
			return fmt.Errorf("unknown LoginResp variant %q", tag)
		}
		*r = InvalidCredentials()
		return nil
	}
	var v struct {
		Tokens *LoginTokens `json:"tokens"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.Tokens == nil {
		return fmt.Errorf("LoginResp: missing tokens")
	}
	*r = LoginResp{Tokens: v.Tokens}
	return nil
}

// RefreshReq falls back to the refresh cookie when RefreshToken is absent.
type RefreshReq struct {
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// RefreshResp is either {"access_token": "..."} or "invalid_refresh_token".
type RefreshResp struct {
	AccessToken *string
}

func Refreshed(accessJWT string) RefreshResp { return RefreshResp{AccessToken: &accessJWT} }
func InvalidRefreshToken() RefreshResp       { return RefreshResp{} }

const invalidRefreshToken = "invalid_refresh_token"

func (r RefreshResp) MarshalJSON() ([]byte, error) {
	if r.AccessToken == nil {
		return json.Marshal(invalidRefreshToken)
	}
	return json.Marshal(struct {
		AccessToken string `json:"access_token"`
	}{*r.AccessToken})
}

func (r *RefreshResp) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var tag string
		if err := json.Unmarshal(b, &tag); err != nil {
			return err
		}
		if tag != invalidRefreshToken {
			return fmt.Errorf("unknown RefreshResp variant %q", tag)
		}
		*r = InvalidRefreshToken()
		return nil
	}
	var v struct {
		AccessToken *string `json:"access_token"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.AccessToken == nil {
		return fmt.Errorf("RefreshResp: missing access_token")
	}
	*r = RefreshResp{AccessToken: v.AccessToken}
	return nil
}

type NewMessageReq struct {
	Message string `json:"message" validate:"required"`
}

type PageReq struct {
	Offset int `json:"offset" validate:"gte=0"`
	Limit  int `json:"limit" validate:"gte=1,lte=100"`
}

type RecentMessagesReq = PageReq

type QueryUsersReq = PageReq

type Paginated[T any] struct {
	Items         []T `json:"items"`
	CurrentOffset int `json:"current_offset"`
	TotalCount    int `json:"total_count"`
}

type Message struct {
	ID           store.MessageID `json:"id"`
	PostedAt     int64           `json:"posted_at"` // unix ms
	UserFullname string          `json:"user_fullname"`
	Message      string          `json:"message"`
}

type UserProfile struct {
	ID       store.UserID `json:"id"`
	Fullname string       `json:"fullname"`
	Email    string       `json:"email"`
	IsAdmin  bool         `json:"is_admin"`
}

type UserDetails struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
}
