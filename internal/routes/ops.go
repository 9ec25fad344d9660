package routes

import "github.com/dukerupert/campusshop/internal/router"

// RegisterOpsRoutes registers health and metrics endpoints. They sit outside
// /api so probes never touch sessions or CSRF cookies.
//
// /metrics is unauthenticated; restrict it at the network edge in production.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/healthz", deps.HealthHandler)
	r.Get("/metrics", deps.MetricsHandler.ServeHTTP)
}
