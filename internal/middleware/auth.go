package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/google/uuid"
)

const (
	// UserContextKey is the context key for storing the authenticated user
	UserContextKey contextKey = "user"

	// SessionTokenContextKey holds the raw session token so sign-out can revoke it.
	SessionTokenContextKey contextKey = "session_token"

	// CartIDContextKey is the context key for the browser's cart session id
	CartIDContextKey contextKey = "cart_id"
)

// SessionResolver resolves a session token to its signed-in user.
type SessionResolver interface {
	Current(ctx context.Context, token string) (*domain.User, error)
}

// WithUser extracts the user from the session cookie and adds it to the request context.
// This middleware is optional - it adds the user if present but doesn't require authentication.
func WithUser(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.Get(r, cookie.SessionCookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.Current(r.Context(), token)
			if err != nil {
				// Expired or revoked session, continue as a guest
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), user, token)))
		})
	}
}

// WithUserContext stores the user and session token on ctx.
func WithUserContext(ctx context.Context, user *domain.User, token string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, SessionTokenContextKey, token)
}

// RequireAuth ensures the user is authenticated, answering 401 if not.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the user is an admin, returning 403 if not
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			respondUnauthorized(w, r)
			return
		}
		if !user.IsAdmin() {
			respondForbidden(w, r, "Administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context
// Returns nil if no user is authenticated
func GetUserFromContext(ctx context.Context) *domain.User {
	user, ok := ctx.Value(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionToken returns the session token the user signed in with.
func GetSessionToken(ctx context.Context) string {
	token, _ := ctx.Value(SessionTokenContextKey).(string)
	return token
}

// CartSession assigns every browser a cart id cookie. The id keys both the
// cart and the checkout state, so it outlives sign-in and sign-out.
func CartSession(cookies *cookie.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cookie.Get(r, cookie.CartCookieName)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
				cookies.SetSession(w, cookie.CartCookieName, id, cookie.CartMaxAge)
			}

			ctx := context.WithValue(r.Context(), CartIDContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCartID returns the cart session id set by CartSession.
func GetCartID(ctx context.Context) string {
	id, _ := ctx.Value(CartIDContextKey).(string)
	return id
}

// WithCartID stores a cart id on ctx. Handler tests use it in place of CartSession.
func WithCartID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CartIDContextKey, id)
}
