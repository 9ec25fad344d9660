// Package handler holds the JSON response helpers shared by the storefront
// and admin handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/telemetry"
)

// errorBody is the wire shape of every error: {"error":{code,message,fields?,redirect?}}.
type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EPERSIST, domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse logs err and writes the JSON error envelope. Internal errors
// are reported to Sentry and their details never reach the client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, "")
}

// ErrorResponseWithRedirect adds a client-side redirect hint to the envelope,
// used when the storefront should send the shopper elsewhere.
func ErrorResponseWithRedirect(w http.ResponseWriter, r *http.Request, err error, redirect string) {
	writeError(w, r, err, redirect)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, redirect string) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	switch {
	case status >= 500:
		logger.ErrorContext(r.Context(), "request failed", attrs...)
		if code == domain.EINTERNAL {
			telemetry.CaptureError(r.Context(), err, map[string]interface{}{"op": domain.ErrorOp(err)})
		}
	default:
		logger.InfoContext(r.Context(), "request rejected", attrs...)
	}

	body := errorBody{
		Code:     code,
		Message:  domain.ErrorMessage(err),
		Fields:   domain.GetValidationFields(err),
		Redirect: redirect,
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	JSON(w, status, map[string]errorBody{"error": body})
}

// NotFoundResponse writes a 404 for unknown resources.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// UnauthorizedResponse writes a 401.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.ErrNotAuthenticated)
}

// BadRequestResponse writes a 400 with message.
func BadRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	ErrorResponse(w, r, domain.Invalid("", message))
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON reads a single JSON object from the body into dst, rejecting
// unknown fields and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "", "Request body too large"))
			return false
		}
		BadRequestResponse(w, r, "Request body must be valid JSON")
		return false
	}
	if dec.More() {
		BadRequestResponse(w, r, "Request body must contain a single JSON object")
		return false
	}
	return true
}
