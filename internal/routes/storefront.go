package routes

import (
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/router"
)

// RegisterStorefrontRoutes registers the customer-facing routes on the /api
// group. Browsing and the cart are open to guests; the address book,
// checkout and order history require a signed-in user.
func RegisterStorefrontRoutes(api *router.Router, deps StorefrontDeps, authLimiter *middleware.RateLimiter) {
	// Product browsing
	api.Get("/products", deps.CatalogHandler.List)
	api.Get("/products/{id}", deps.CatalogHandler.Get)
	api.Get("/categories", deps.CatalogHandler.Categories)

	// Shopping cart
	api.Get("/cart", deps.CartHandler.View)
	api.Delete("/cart", deps.CartHandler.Clear)
	api.Post("/cart/items", deps.CartHandler.Add)
	api.Put("/cart/items/{id}", deps.CartHandler.Update)
	api.Delete("/cart/items/{id}", deps.CartHandler.Remove)

	// Authentication. Credential endpoints get the strict limiter.
	auth := api.Group("/auth", authLimiter.Middleware)
	auth.Post("/register", deps.AuthHandler.Register)
	auth.Post("/login", deps.AuthHandler.Login)
	auth.Post("/firebase", deps.AuthHandler.Firebase)
	api.Post("/auth/logout", deps.AuthHandler.Logout)
	api.Get("/me", deps.AuthHandler.Me)

	// Product-advisor chat. Each question costs a model call, so asking
	// shares the strict limiter.
	api.Get("/assistant", deps.AssistantHandler.Greeting)
	api.Post("/assistant", deps.AssistantHandler.Ask, authLimiter.Middleware)

	// Confirmation reads a one-shot receipt keyed by the cart cookie, so it
	// stays open after the session ends.
	api.Get("/checkout/confirmation", deps.CheckoutHandler.Confirmation)

	// Account routes (require authentication)
	account := api.Group("", middleware.RequireAuth)
	account.Get("/me/addresses", deps.AddressHandler.List)
	account.Post("/me/addresses", deps.AddressHandler.Create)
	account.Delete("/me/addresses/{id}", deps.AddressHandler.Delete)
	account.Post("/me/addresses/{id}/default", deps.AddressHandler.SetDefault)

	account.Get("/checkout", deps.CheckoutHandler.Begin)
	account.Post("/checkout", deps.CheckoutHandler.Submit)
	account.Get("/checkout/state", deps.CheckoutHandler.State)

	account.Get("/orders", deps.OrderHandler.List)
	account.Get("/orders/{id}/tracking", deps.OrderHandler.Tracking)
}
