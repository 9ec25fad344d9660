package routes

import (
	"context"

	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/router"
	"github.com/dukerupert/campusshop/internal/telemetry"
)

// RegisterAPIRoutes mounts the JSON API under /api. Every route resolves the
// cart cookie and the signed-in user, gets a request-scoped logger and is
// CSRF-checked on unsafe methods.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	api := r.Group("/api",
		middleware.CartSession(deps.Cookies),
		middleware.WithUser(deps.Sessions),
		middleware.WithRequestLogger(deps.Logger),
		telemetry.SentryMiddleware(sentryUser),
		middleware.CSRF(middleware.CSRFConfig{Cookies: deps.Cookies}),
	)

	api.Get("/csrf", middleware.CSRFToken)

	RegisterStorefrontRoutes(api, deps.Storefront, deps.AuthLimiter)
	RegisterAdminRoutes(api, deps.Admin)
}

func sentryUser(ctx context.Context) *telemetry.UserInfo {
	user := middleware.GetUserFromContext(ctx)
	if user == nil {
		return nil
	}
	return &telemetry.UserInfo{ID: user.ID, Email: user.Email}
}
