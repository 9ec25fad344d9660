package routes

import (
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/router"
)

// RegisterAdminRoutes registers the back-office routes under /api/admin.
// All routes are protected by admin authentication middleware.
func RegisterAdminRoutes(api *router.Router, deps AdminDeps) {
	admin := api.Group("/admin", middleware.RequireAdmin)

	// Dashboard
	admin.Get("/dashboard", deps.DashboardHandler.ServeHTTP)

	// Product management
	admin.Get("/products", deps.ProductHandler.List)
	admin.Post("/products", deps.ProductHandler.Create)
	admin.Put("/products/{id}", deps.ProductHandler.Update)
	admin.Delete("/products/{id}", deps.ProductHandler.Delete)

	// Order management
	admin.Get("/orders", deps.OrderHandler.List)
	admin.Put("/orders/{id}/status", deps.OrderHandler.UpdateStatus)
	admin.Delete("/orders/{id}", deps.OrderHandler.Delete)

	// User management
	admin.Get("/users", deps.UserHandler.List)
	admin.Delete("/users/{id}", deps.UserHandler.Delete)
	admin.Post("/users/{id}/role", deps.UserHandler.ToggleRole)
}
