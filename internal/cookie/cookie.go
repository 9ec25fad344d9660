// Package cookie builds the session and cart cookies shared by the API.
package cookie

import (
	"net/http"
	"time"
)

// Cookie names used throughout the application.
const (
	// SessionCookieName carries the sign-in session token.
	SessionCookieName = "campusshop_session"

	// CartCookieName identifies the browser's cart and checkout session.
	// It survives sign-in and sign-out so a guest cart follows the shopper.
	CartCookieName = "campusshop_cart"

	// CSRFCookieName holds the double-submit token. It is readable by scripts.
	CSRFCookieName = "campusshop_csrf"
)

// CartMaxAge keeps a guest cart for thirty days.
const CartMaxAge = 30 * 24 * time.Hour

// Config holds cookie attributes common to every cookie the API sets.
type Config struct {
	// Domain scopes cookies. Empty means host-only.
	Domain string

	// Secure requires HTTPS. Should be true in production.
	Secure bool
}

// NewConfig creates a cookie configuration.
func NewConfig(domain string, secure bool) *Config {
	return &Config{Domain: domain, Secure: secure}
}

// SetSession sets an HttpOnly cookie that expires after maxAge.
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, c.build(name, value, int(maxAge.Seconds()), true))
}

// SetReadable sets a cookie scripts may read, used for the CSRF token.
func (c *Config) SetReadable(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, c.build(name, value, int(maxAge.Seconds()), false))
}

// ClearSession removes a cookie by setting MaxAge to -1.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, c.build(name, "", -1, true))
}

func (c *Config) build(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
