package http

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie the session token travels in
const SessionCookieName = "kubi_session"

// CookieDirective describes a Set-Cookie the transport should apply. The
// service layer never touches the response; handlers build directives with
// the pure functions below and apply them explicitly.
type CookieDirective struct {
	Name     string
	Value    string
	Path     string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// SessionCookie builds the directive carrying a fresh session token
func SessionCookie(token string, expiresAt time.Time, secure bool) CookieDirective {
	return CookieDirective{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds the directive removing the session cookie
func ClearSessionCookie(secure bool) CookieDirective {
	return CookieDirective{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   secure,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
