package auth

import (
	"net"
	"net/http"
	"time"
)

// Cookie names used by the gate and the login surface.
const (
	// CookieRedirectMessage carries the reason for a redirect to the login
	// page. Server-readable only; consumed at most once by the login page.
	CookieRedirectMessage = "redirect-message"
	// CookieOriginalContentType carries the content type of the request
	// that triggered a redirect; the redirected request is a fresh exchange
	// and loses it otherwise.
	CookieOriginalContentType = "original-content-type"
	// AuthorizationCookieName mirrors the Authorization header for browser
	// clients. Client-readable.
	AuthorizationCookieName = "authorization"
	// IdentityCookieName holds the opaque key into the identity store.
	IdentityCookieName = "id"
)

// buildCookie constructs a cookie scoped to the request's host. serverOnly
// cookies are HttpOnly. With removal set, the cookie is emitted expired so
// the client drops it.
func buildCookie(r *http.Request, name, value string, serverOnly, removal bool) *http.Cookie {
	domain := r.Host
	if host, _, err := net.SplitHostPort(domain); err == nil {
		domain = host
	}

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   domain,
		Path:     "/",
		Secure:   false,
		HttpOnly: serverOnly,
		SameSite: http.SameSiteStrictMode,
	}
	if removal {
		cookie.Value = ""
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	return cookie
}

// BuildLoginRedirectCookie stashes the redirect reason for the login page.
func BuildLoginRedirectCookie(r *http.Request, message string) *http.Cookie {
	return buildCookie(r, CookieRedirectMessage, message, true, false)
}

// RemoveLoginRedirectCookie clears the redirect reason.
func RemoveLoginRedirectCookie(r *http.Request) *http.Cookie {
	return buildCookie(r, CookieRedirectMessage, "", true, true)
}

// BuildOriginalContentTypeCookie stashes the content type of the request
// being redirected.
func BuildOriginalContentTypeCookie(r *http.Request, contentType string) *http.Cookie {
	return buildCookie(r, CookieOriginalContentType, contentType, true, false)
}

// RemoveOriginalContentTypeCookie clears the stashed content type.
func RemoveOriginalContentTypeCookie(r *http.Request) *http.Cookie {
	return buildCookie(r, CookieOriginalContentType, "", true, true)
}

// BuildAuthorizationCookie sets the client-readable token cookie.
func BuildAuthorizationCookie(r *http.Request, accessToken string) *http.Cookie {
	return buildCookie(r, AuthorizationCookieName, accessToken, false, false)
}

// RemoveAuthorizationCookie clears the client-readable token cookie.
func RemoveAuthorizationCookie(r *http.Request) *http.Cookie {
	return buildCookie(r, AuthorizationCookieName, "", false, true)
}

// BuildIdentityCookie sets the identity-store key cookie.
func BuildIdentityCookie(r *http.Request, key string) *http.Cookie {
	return buildCookie(r, IdentityCookieName, key, true, false)
}

// RemoveIdentityCookie clears the identity-store key cookie.
func RemoveIdentityCookie(r *http.Request) *http.Cookie {
	return buildCookie(r, IdentityCookieName, "", true, true)
}
