package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Error struct {
		Code     string            `json:"code"`
		Message  string            `json:"message"`
		Fields   map[string]string `json:"fields"`
		Redirect string            `json:"redirect"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EPERSIST, http.StatusServiceUnavailable},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound, domain.ENOTFOUND},
		{"checkout busy", domain.ErrCheckoutInProgress, http.StatusConflict, domain.ECONFLICT},
		{"persistence", domain.Persistence(errors.New("deadline"), "checkout.submit", "We could not place your order. Please try again."), http.StatusServiceUnavailable, domain.EPERSIST},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, domain.EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedCode, decodeEnvelope(t, rec).Error.Code)
		})
	}
}

func TestErrorResponse_InternalHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := domain.Internal(nil, "db.query", "failed to connect to database at 192.168.1.100:5432")
	ErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/test", nil), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An internal error occurred. Please try again later.", decodeEnvelope(t, rec).Error.Message)
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	err := domain.NewValidationError("checkout.submit", "fullName", "fullName is required")
	err = domain.AddFieldError(err, "phone", "phone is required")

	rec := httptest.NewRecorder()
	ErrorResponse(rec, httptest.NewRequest(http.MethodPost, "/test", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, domain.EINVALID, env.Error.Code)
	assert.Equal(t, "Please fill in all required shipping information.", env.Error.Message)
	assert.Len(t, env.Error.Fields, 2)
}

func TestErrorResponseWithRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorResponseWithRedirect(rec, httptest.NewRequest(http.MethodGet, "/test", nil), domain.ErrCartEmpty, "/cart")

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "/cart", env.Error.Redirect)
	assert.Empty(t, env.Error.Fields)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		ProductID int64 `json:"productId"`
	}

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"productId":3}`, true, http.StatusOK},
		{"malformed", `{"productId":`, false, http.StatusBadRequest},
		{"unknown field", `{"sku":"x"}`, false, http.StatusBadRequest},
		{"trailing object", `{"productId":1}{"productId":2}`, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var p payload
			got := DecodeJSON(rec, req, &p)

			assert.Equal(t, tt.wantOK, got)
			if !tt.wantOK {
				assert.Equal(t, tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"productId":12345}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 4)

	var p struct {
		ProductID int64 `json:"productId"`
	}
	assert.False(t, DecodeJSON(rec, req, &p))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health("memory")(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"memory"}`, rec.Body.String())
}
