// Package admin holds the back-office JSON handlers. Every route is
// registered behind middleware.RequireAdmin.
package admin

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/service"
)

// DashboardHandler serves the back-office overview
type DashboardHandler struct {
	admin *service.Admin
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(admin *service.Admin) *DashboardHandler {
	return &DashboardHandler{admin: admin}
}

// ServeHTTP handles GET /api/admin/dashboard
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.admin.Dashboard(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, dashboard)
}
