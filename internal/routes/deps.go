package routes

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/handler/admin"
	"github.com/dukerupert/campusshop/internal/handler/storefront"
	"github.com/dukerupert/campusshop/internal/middleware"
)

// APIDeps contains the middleware collaborators shared by every /api route
type APIDeps struct {
	Sessions middleware.SessionResolver
	Cookies  *cookie.Config
	Logger   *slog.Logger

	// AuthLimiter throttles sign-in and sign-up per client IP.
	AuthLimiter *middleware.RateLimiter

	Storefront StorefrontDeps
	Admin      AdminDeps
}

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Catalog (list, detail, categories)
	CatalogHandler *storefront.CatalogHandler

	// Cart
	CartHandler *storefront.CartHandler

	// Auth (register, login, firebase, logout, me)
	AuthHandler *storefront.AuthHandler

	// Address book
	AddressHandler *storefront.AddressHandler

	// Checkout
	CheckoutHandler *storefront.CheckoutHandler

	// Order history and tracking
	OrderHandler *storefront.OrderHandler

	// Product-advisor chat
	AssistantHandler *storefront.AssistantHandler
}

// AdminDeps contains dependencies for admin routes
type AdminDeps struct {
	// Dashboard
	DashboardHandler http.Handler

	// Products
	ProductHandler *admin.ProductHandler

	// Orders
	OrderHandler *admin.OrderHandler

	// Users
	UserHandler *admin.UserHandler
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler
}
