package storefront

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/memory"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

const cartID = "3f6b1f7e-2a4c-4c1e-9d55-5f0c2d7b8a10"

var catalogProducts = []domain.Product{
	{ID: 1, Name: "Laptop Gaming ASUS ROG", Description: "RTX 4060", Price: 25000000, Category: "Laptop", Stock: 10, Rating: 4.8},
	{ID: 2, Name: "MacBook Air M2", Description: "Mỏng nhẹ", Price: 24500000, Category: "Laptop", Stock: 5, Rating: 4.9},
	{ID: 5, Name: "Chuột Logitech MX Master 3S", Description: "Chuột không dây", Price: 2200000, Category: "Accessories", Stock: 30, Rating: 4.9},
}

// fixture wires the storefront services over in-memory stores.
type fixture struct {
	users     *memory.UserRepository
	orders    *memory.OrderRepository
	carts     *service.CartSessions
	catalog   *service.Catalog
	identity  *service.Identity
	checkouts *service.CheckoutSessions
	history   *service.OrderHistory
	cookies   *cookie.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := memory.NewProductRepository()
	_, err := products.Seed(context.Background(), catalogProducts)
	require.NoError(t, err)

	f := &fixture{
		users:   memory.NewUserRepository(),
		orders:  memory.NewOrderRepository(),
		carts:   service.NewCartSessions(memory.NewCartSlots(), logger),
		catalog: service.NewCatalog(products, nil),
		cookies: cookie.NewConfig("", false),
	}
	f.identity = service.NewIdentity(f.users, service.NewSessionStore(time.Hour), service.IdentityOptions{
		AdminEmail: "admin@shop.com",
		Logger:     logger,
	})
	f.checkouts = service.NewCheckoutSessions(f.carts, service.CheckoutOptions{
		Orders:         f.orders,
		Addresses:      f.identity,
		Logger:         logger,
		PersistTimeout: time.Second,
		Backoff:        func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	})
	f.history = service.NewOrderHistory(f.orders)
	return f
}

// signUp registers a user and returns the stored profile.
func (f *fixture) signUp(t *testing.T, email string) *domain.User {
	t.Helper()
	user, _, err := f.identity.Register(context.Background(), service.Registration{
		Name:     "Trần Sinh Viên",
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) reload(t *testing.T, user *domain.User) *domain.User {
	t.Helper()
	fresh, err := f.users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	return fresh
}

func (f *fixture) fillCart(products ...domain.Product) {
	f.carts.Mutate(context.Background(), cartID, func(c *service.CartStore) {
		for _, p := range products {
			c.Add(p)
		}
	})
}

// request builds a request carrying the cart id, the user and path values.
type request struct {
	method string
	target string
	body   string
	user   *domain.User
	path   map[string]string
}

func serve(h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.target, body)
	ctx := middleware.WithCartID(r.Context(), cartID)
	if req.user != nil {
		ctx = middleware.WithUserContext(ctx, req.user, "session-token")
	}
	r = r.WithContext(ctx)
	for k, v := range req.path {
		r.SetPathValue(k, v)
	}

	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

type errorEnvelope struct {
	Error struct {
		Code     string            `json:"code"`
		Message  string            `json:"message"`
		Fields   map[string]string `json:"fields"`
		Redirect string            `json:"redirect"`
	} `json:"error"`
}
