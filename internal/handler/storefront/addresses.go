package storefront

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
)

// AddressHandler manages the signed-in user's address book.
// Routes are registered behind RequireAuth.
type AddressHandler struct {
	identity *service.Identity
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(identity *service.Identity) *AddressHandler {
	return &AddressHandler{identity: identity}
}

type addressesResponse struct {
	Addresses []domain.Address `json:"addresses"`
}

func addressesOf(user *domain.User) addressesResponse {
	if user.SavedAddresses == nil {
		return addressesResponse{Addresses: []domain.Address{}}
	}
	return addressesResponse{Addresses: user.SavedAddresses}
}

// List handles GET /api/me/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	handler.OK(w, addressesOf(middleware.GetUserFromContext(r.Context())))
}

// Create handles POST /api/me/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.AddressInput
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	updated, err := h.identity.SaveAddress(r.Context(), user.ID, domain.Address{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, addressesOf(updated))
}

// Delete handles DELETE /api/me/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	updated, err := h.identity.DeleteAddress(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, addressesOf(updated))
}

// SetDefault handles POST /api/me/addresses/{id}/default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	updated, err := h.identity.SetDefaultAddress(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, addressesOf(updated))
}
