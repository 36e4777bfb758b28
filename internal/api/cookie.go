package api

import "net/http"

const RefreshCookieName = "refreshToken"

// SetRefreshCookie delivers the refresh token as an HttpOnly cookie.
func SetRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		HttpOnly: true,
	})
}

// ClearRefreshCookie overwrites the refresh cookie with an empty value that
// expires immediately (Max-Age=0).
func ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// RefreshCookie returns the refresh token cookie value, if non-empty.
func RefreshCookie(r *http.Request) (string, bool) {
	ck, err := r.Cookie(RefreshCookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
