package storefront

import (
	"net/http"
	"time"

	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
)

// AuthHandler handles sign-up, sign-in and sign-out.
type AuthHandler struct {
	identity *service.Identity
	cookies  *cookie.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity *service.Identity, cookies *cookie.Config) *AuthHandler {
	return &AuthHandler{identity: identity, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type firebaseLoginRequest struct {
	IDToken string `json:"idToken"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.Registration
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.identity.Register(r.Context(), req)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.startSession(w, session)
	handler.JSON(w, http.StatusCreated, userResponse{User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.startSession(w, session)
	handler.OK(w, userResponse{User: user})
}

// Firebase handles POST /api/auth/firebase with a Firebase ID token.
func (h *AuthHandler) Firebase(w http.ResponseWriter, r *http.Request) {
	var req firebaseLoginRequest
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.identity.LoginWithFirebase(r.Context(), req.IDToken)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.startSession(w, session)
	handler.OK(w, userResponse{User: user})
}

// Logout handles POST /api/auth/logout. The cart cookie is left alone so the
// cart survives sign-out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.GetSessionToken(r.Context()); token != "" {
		h.identity.Logout(token)
	}
	h.cookies.ClearSession(w, cookie.SessionCookieName)
	handler.NoContent(w)
}

// Me handles GET /api/me. Guests get {"user": null}.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	handler.OK(w, userResponse{User: middleware.GetUserFromContext(r.Context())})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, session service.Session) {
	h.cookies.SetSession(w, cookie.SessionCookieName, session.Token, time.Until(session.ExpiresAt))
}
