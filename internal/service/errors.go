package service

import (
	"github.com/dukerupert/campusshop/internal/domain"
)

// Session errors - use domain.EUNAUTHORIZED
var (
	ErrSessionNotFound  = domain.Errorf(domain.EUNAUTHORIZED, "", "Session not found")
	ErrInvalidIDToken   = domain.Errorf(domain.EUNAUTHORIZED, "", "Sign-in token is invalid or expired")
	ErrFirebaseDisabled = domain.Errorf(domain.EINVALID, "", "Firebase sign-in is not enabled")
)

// Admin errors
var (
	ErrSelfRoleChange = domain.Errorf(domain.EFORBIDDEN, "", "You cannot change your own role")
	ErrSelfDelete     = domain.Errorf(domain.EFORBIDDEN, "", "You cannot delete your own account")
)

// Catalog errors
var (
	ErrInvalidProductID = domain.Errorf(domain.EINVALID, "", "Invalid product ID")
)

// Assistant errors
var (
	ErrAssistantDisabled    = domain.Errorf(domain.EUNAVAILABLE, "", "The shopping assistant is not configured")
	ErrAssistantUnavailable = domain.Errorf(domain.EUNAVAILABLE, "", "The shopping assistant is busy right now. Please try again!")
)
