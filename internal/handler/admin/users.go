package admin

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
)

// UserHandler manages storefront accounts
type UserHandler struct {
	admin *service.Admin
}

// NewUserHandler creates a new admin user handler
func NewUserHandler(admin *service.Admin) *UserHandler {
	return &UserHandler{admin: admin}
}

// List handles GET /api/admin/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"users": users})
}

// Delete handles DELETE /api/admin/users/{id}. The account's sessions end
// with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	if err := h.admin.DeleteUser(r.Context(), actor, r.PathValue("id")); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}

// ToggleRole handles POST /api/admin/users/{id}/role
func (h *UserHandler) ToggleRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	user, err := h.admin.ToggleRole(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"user": user})
}
