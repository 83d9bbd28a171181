package auth

import (
	"net/http"
	"strings"
)

// CookieName holds the session token for browser requests.
const CookieName = "session"

// TokenFromRequest finds a session token in the "token" query parameter
// (browsers cannot set headers on WebSocket upgrades), the Authorization
// header, or the session cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
