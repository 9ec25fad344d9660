package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetSession(t *testing.T) {
	cfg := NewConfig("", true)
	rec := httptest.NewRecorder()

	cfg.SetSession(rec, SessionCookieName, "tok", time.Hour)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
}

func TestConfig_SetReadable(t *testing.T) {
	rec := httptest.NewRecorder()
	NewConfig("shop.test", false).SetReadable(rec, CSRFCookieName, "abc", time.Minute)

	c := rec.Result().Cookies()[0]
	assert.False(t, c.HttpOnly)
	assert.Equal(t, "shop.test", c.Domain)
}

func TestConfig_ClearSession(t *testing.T) {
	rec := httptest.NewRecorder()
	NewConfig("", false).ClearSession(rec, CartCookieName)

	c := rec.Result().Cookies()[0]
	assert.Equal(t, CartCookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Get(req, CartCookieName))

	req.AddCookie(&http.Cookie{Name: CartCookieName, Value: "cart-1"})
	assert.Equal(t, "cart-1", Get(req, CartCookieName))
}
