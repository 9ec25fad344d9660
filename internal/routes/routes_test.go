package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/bootstrap"
	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/handler/admin"
	"github.com/dukerupert/campusshop/internal/handler/storefront"
	"github.com/dukerupert/campusshop/internal/memory"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/router"
	"github.com/dukerupert/campusshop/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

const adminEmail = "admin@shop.com"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	products := memory.NewProductRepository()
	_, err := products.Seed(ctx, bootstrap.SampleProducts())
	require.NoError(t, err)
	orders := memory.NewOrderRepository()
	users := memory.NewUserRepository()

	sessions := service.NewSessionStore(time.Hour)
	identity := service.NewIdentity(users, sessions, service.IdentityOptions{AdminEmail: adminEmail, Logger: logger})
	catalog := service.NewCatalog(products, nil)
	carts := service.NewCartSessions(memory.NewCartSlots(), logger)
	checkouts := service.NewCheckoutSessions(carts, service.CheckoutOptions{
		Orders:    orders,
		Addresses: identity,
		Logger:    logger,
		Backoff:   func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	})
	adminSvc := service.NewAdmin(orders, products, users, sessions, nil, nil, logger)
	cookies := cookie.NewConfig("", false)

	authLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	t.Cleanup(authLimiter.Stop)

	metrics := middleware.NewMetrics("campusshop_test", prometheus.NewRegistry())
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		metrics.Middleware,
	)
	RegisterOpsRoutes(r, OpsDeps{
		HealthHandler:  handler.Health("memory"),
		MetricsHandler: metrics.Handler(),
	})
	RegisterAPIRoutes(r, APIDeps{
		Sessions:    identity,
		Cookies:     cookies,
		Logger:      logger,
		AuthLimiter: authLimiter,
		Storefront: StorefrontDeps{
			CatalogHandler:  storefront.NewCatalogHandler(catalog),
			CartHandler:     storefront.NewCartHandler(carts, catalog, nil),
			AuthHandler:     storefront.NewAuthHandler(identity, cookies),
			AddressHandler:  storefront.NewAddressHandler(identity),
			CheckoutHandler: storefront.NewCheckoutHandler(checkouts, carts),
			OrderHandler:    storefront.NewOrderHandler(service.NewOrderHistory(orders)),

			AssistantHandler: storefront.NewAssistantHandler(service.NewAssistant(catalog, echoModel{}, time.Second, logger)),
		},
		Admin: AdminDeps{
			DashboardHandler: admin.NewDashboardHandler(adminSvc),
			ProductHandler:   admin.NewProductHandler(catalog),
			OrderHandler:     admin.NewOrderHandler(adminSvc),
			UserHandler:      admin.NewUserHandler(adminSvc),
		},
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// echoModel answers with the last line of the prompt.
type echoModel struct{}

func (echoModel) Generate(_ context.Context, prompt string) (string, error) {
	lines := strings.Split(prompt, "\n")
	return lines[len(lines)-1], nil
}

// browser is a cookie-keeping client that echoes the CSRF token like the
// storefront does.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
	csrf   string
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:      t,
		base:   srv.URL,
		client: &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
	}
}

func (b *browser) fetchCSRF() {
	res := b.do(http.MethodGet, "/api/csrf", "")
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(b.t, json.NewDecoder(res.Body).Decode(&body))
	require.NotEmpty(b.t, body.Token)
	b.csrf = body.Token
}

func (b *browser) do(method, path, body string) *http.Response {
	b.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, b.base+path, rd)
	require.NoError(b.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.csrf != "" {
		req.Header.Set(middleware.CSRFHeaderName, b.csrf)
	}
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestAPI_CSRFGuardsUnsafeMethods(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	res := b.do(http.MethodPost, "/api/cart/items", `{"productId":1}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	b.fetchCSRF()
	res = b.do(http.MethodPost, "/api/cart/items", `{"productId":1}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAPI_CartSurvivesSignIn(t *testing.T) {
	b := newBrowser(t, newTestServer(t))
	b.fetchCSRF()

	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", `{"productId":5}`).StatusCode)
	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/auth/register",
		`{"name":"Trần Sinh Viên","email":"sv@student.edu.vn","password":"secret123"}`).StatusCode)

	res := b.do(http.MethodGet, "/api/cart", "")
	var cart struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cart))
	assert.Equal(t, 1, cart.Count)
}

func TestAPI_AccessControl(t *testing.T) {
	srv := newTestServer(t)
	guest := newBrowser(t, srv)

	tests := []struct {
		path string
		want int
	}{
		{"/api/products", http.StatusOK},
		{"/api/products/1", http.StatusOK},
		{"/api/me", http.StatusOK},
		{"/api/checkout/confirmation", http.StatusOK},
		{"/api/checkout", http.StatusUnauthorized},
		{"/api/orders", http.StatusUnauthorized},
		{"/api/me/addresses", http.StatusUnauthorized},
		{"/api/admin/dashboard", http.StatusUnauthorized},
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, guest.do(http.MethodGet, tt.path, "").StatusCode)
		})
	}

	t.Run("shoppers cannot reach the back-office", func(t *testing.T) {
		b := newBrowser(t, srv)
		b.fetchCSRF()
		require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/auth/register",
			`{"name":"Sinh Viên","email":"shopper@student.edu.vn","password":"secret123"}`).StatusCode)

		assert.Equal(t, http.StatusForbidden, b.do(http.MethodGet, "/api/admin/dashboard", "").StatusCode)
	})

	t.Run("the admin email gets the back-office", func(t *testing.T) {
		b := newBrowser(t, srv)
		b.fetchCSRF()
		require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/auth/register",
			`{"name":"Admin","email":"`+adminEmail+`","password":"secret123"}`).StatusCode)

		assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/admin/dashboard", "").StatusCode)
	})
}

func TestAPI_CheckoutFlow(t *testing.T) {
	b := newBrowser(t, newTestServer(t))
	b.fetchCSRF()
	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/auth/register",
		`{"name":"Trần Sinh Viên","email":"buyer@student.edu.vn","password":"secret123"}`).StatusCode)

	res := b.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/cart", res.Header.Get("Location"))

	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", `{"productId":1}`).StatusCode)
	require.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/checkout", "").StatusCode)

	res = b.do(http.MethodPost, "/api/checkout",
		`{"shipping":{"fullName":"Trần Sinh Viên","phone":"0901234567","address":"12 Lê Lợi","city":"Hà Nội"},"paymentMethod":"cod"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var receipt struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&receipt))

	res = b.do(http.MethodGet, "/api/checkout/confirmation", "")
	var confirmation struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&confirmation))
	assert.Equal(t, receipt.OrderID, confirmation.OrderID)

	res = b.do(http.MethodGet, "/api/orders/"+receipt.OrderID+"/tracking", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAPI_LogoutKeepsTheCart(t *testing.T) {
	b := newBrowser(t, newTestServer(t))
	b.fetchCSRF()
	require.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/auth/register",
		`{"name":"A","email":"a@student.edu.vn","password":"secret123"}`).StatusCode)
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/cart/items", `{"productId":2}`).StatusCode)

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/auth/logout", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/api/orders", "").StatusCode)

	res := b.do(http.MethodGet, "/api/cart", "")
	var cart struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&cart))
	assert.Equal(t, 1, cart.Count)
}

func TestAPI_Assistant(t *testing.T) {
	b := newBrowser(t, newTestServer(t))

	res := b.do(http.MethodGet, "/api/assistant", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var greeting struct {
		Greeting string `json:"greeting"`
		Enabled  bool   `json:"enabled"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&greeting))
	assert.True(t, greeting.Enabled)
	assert.NotEmpty(t, greeting.Greeting)

	assert.Equal(t, http.StatusForbidden, b.do(http.MethodPost, "/api/assistant", `{"message":"hi"}`).StatusCode,
		"asking is a state-changing call and needs the CSRF token")

	b.fetchCSRF()
	res = b.do(http.MethodPost, "/api/assistant", `{"message":"Laptop nào cho sinh viên IT?"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var reply struct {
		Reply string `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&reply))
	assert.Equal(t, "Customer question: Laptop nào cho sinh viên IT?", reply.Reply)
}
