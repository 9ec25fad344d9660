package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/campusshop/internal/cookie"
)

const (
	// CSRFTokenLength is the length of the CSRF token in bytes
	CSRFTokenLength = 32

	// CSRFHeaderName is the header the client echoes the token in
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFContextKey is the context key for the CSRF token
	CSRFContextKey contextKey = "csrf_token"
)

// CSRFConfig configures double-submit CSRF protection.
type CSRFConfig struct {
	Cookies *cookie.Config

	// MaxAge of the token cookie. Default: 24 hours
	MaxAge time.Duration

	// SkipPaths are path prefixes exempt from validation.
	SkipPaths []string
}

// CSRF issues a script-readable token cookie and requires unsafe requests to
// echo it in the X-CSRF-Token header. Cross-site pages can send the cookie
// but cannot read it, so they cannot forge the header.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.Cookies == nil {
		panic("csrf: Cookies is required")
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if matchesPathPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token := cookie.Get(r, cookie.CSRFCookieName)
			if token == "" {
				var err error
				token, err = generateCSRFToken()
				if err != nil {
					// Fail closed rather than fall back to a weak token.
					respondInternalError(w, r, err)
					return
				}
				cfg.Cookies.SetReadable(w, cookie.CSRFCookieName, token, cfg.MaxAge)
			}

			r = r.WithContext(context.WithValue(r.Context(), CSRFContextKey, token))

			if !isSafeMethod(r.Method) && !validateCSRFToken(token, r.Header.Get(CSRFHeaderName)) {
				respondForbidden(w, r, "Missing or invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFToken answers GET /api/csrf with the token for clients that cannot
// read the cookie directly.
func CSRFToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": GetCSRFToken(r.Context())})
}

// GetCSRFToken retrieves the CSRF token from the request context
func GetCSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(CSRFContextKey).(string); ok {
		return token
	}
	return ""
}

func generateCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func validateCSRFToken(cookieToken, submittedToken string) bool {
	if cookieToken == "" || submittedToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submittedToken)) == 1
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions ||
		method == http.MethodTrace
}

// matchesPathPrefix matches on a path boundary so /healthz does not also
// exempt /healthz-evil.
func matchesPathPrefix(requestPath, skipPath string) bool {
	if !strings.HasPrefix(requestPath, skipPath) {
		return false
	}
	if strings.HasSuffix(skipPath, "/") || len(requestPath) == len(skipPath) {
		return true
	}
	return requestPath[len(skipPath)] == '/'
}
