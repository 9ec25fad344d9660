package storefront

import (
	"net/http"
	"testing"

	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandler_List(t *testing.T) {
	h := NewCatalogHandler(newFixture(t).catalog)

	tests := []struct {
		name    string
		target  string
		wantIDs []int64
	}{
		{"everything", "/api/products", []int64{1, 2, 5}},
		{"category", "/api/products?category=laptop", []int64{1, 2}},
		{"query over description", "/api/products?q=kh%C3%B4ng+d%C3%A2y", []int64{5}},
		{"price ascending", "/api/products?sort=price_asc", []int64{5, 2, 1}},
		{"no match", "/api/products?q=tablet", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.List, request{method: http.MethodGet, target: tt.target})
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode[struct {
				Products []domain.Product `json:"products"`
				Count    int              `json:"count"`
			}](t, rec)
			ids := []int64{}
			for _, p := range body.Products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), body.Count)
		})
	}
}

func TestCatalogHandler_Get(t *testing.T) {
	h := NewCatalogHandler(newFixture(t).catalog)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"found", "2", http.StatusOK},
		{"missing", "99", http.StatusNotFound},
		{"not a number", "abc", http.StatusBadRequest},
		{"zero", "0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.Get, request{method: http.MethodGet, target: "/api/products/" + tt.id, path: map[string]string{"id": tt.id}})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCatalogHandler_Categories(t *testing.T) {
	h := NewCatalogHandler(newFixture(t).catalog)
	rec := serve(h.Categories, request{method: http.MethodGet, target: "/api/categories"})

	body := decode[struct {
		Categories []string `json:"categories"`
	}](t, rec)
	assert.Equal(t, []string{"All", "Laptop", "Accessories"}, body.Categories)
}

func TestCartHandler(t *testing.T) {
	f := newFixture(t)
	h := NewCartHandler(f.carts, f.catalog, nil)

	rec := serve(h.Add, request{method: http.MethodPost, target: "/api/cart/items", body: `{"productId":1}`})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(h.Add, request{method: http.MethodPost, target: "/api/cart/items", body: `{"productId":1}`})
	rec = serve(h.Add, request{method: http.MethodPost, target: "/api/cart/items", body: `{"productId":5}`})

	summary := decode[domain.CartSummary](t, rec)
	require.Len(t, summary.Items, 2)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, int64(52200000), summary.Total)

	t.Run("unknown product is rejected", func(t *testing.T) {
		rec := serve(h.Add, request{method: http.MethodPost, target: "/api/cart/items", body: `{"productId":42}`})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update quantity", func(t *testing.T) {
		rec := serve(h.Update, request{method: http.MethodPut, target: "/api/cart/items/1", body: `{"quantity":5}`, path: map[string]string{"id": "1"}})
		summary := decode[domain.CartSummary](t, rec)
		assert.Equal(t, 6, summary.Count)
	})

	t.Run("quantity zero removes the line", func(t *testing.T) {
		rec := serve(h.Update, request{method: http.MethodPut, target: "/api/cart/items/5", body: `{"quantity":0}`, path: map[string]string{"id": "5"}})
		summary := decode[domain.CartSummary](t, rec)
		require.Len(t, summary.Items, 1)
		assert.Equal(t, int64(1), summary.Items[0].ID)
	})

	t.Run("view reflects the stored cart", func(t *testing.T) {
		rec := serve(h.View, request{method: http.MethodGet, target: "/api/cart"})
		summary := decode[domain.CartSummary](t, rec)
		assert.Equal(t, 5, summary.Count)
		assert.Equal(t, int64(125000000), summary.Total)
	})

	t.Run("remove and clear", func(t *testing.T) {
		rec := serve(h.Remove, request{method: http.MethodDelete, target: "/api/cart/items/1", path: map[string]string{"id": "1"}})
		assert.Equal(t, 0, decode[domain.CartSummary](t, rec).Count)

		f.fillCart(catalogProducts[1])
		rec = serve(h.Clear, request{method: http.MethodDelete, target: "/api/cart"})
		summary := decode[domain.CartSummary](t, rec)
		assert.Empty(t, summary.Items)
		assert.Zero(t, summary.Total)
	})

	t.Run("a cart held by checkout conflicts", func(t *testing.T) {
		f.fillCart(catalogProducts[0])
		_, err := f.carts.Hold(t.Context(), cartID)
		require.NoError(t, err)
		defer f.carts.Release(t.Context(), cartID)

		rec := serve(h.Add, request{method: http.MethodPost, target: "/api/cart/items", body: `{"productId":5}`})
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Your order is already being processed", decode[errorEnvelope](t, rec).Error.Message)

		rec = serve(h.Clear, request{method: http.MethodDelete, target: "/api/cart"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = serve(h.View, request{method: http.MethodGet, target: "/api/cart"})
		assert.Equal(t, 1, decode[domain.CartSummary](t, rec).Count, "view still works")
	})
}

func TestAuthHandler(t *testing.T) {
	f := newFixture(t)
	h := NewAuthHandler(f.identity, f.cookies)

	t.Run("register sets the session cookie", func(t *testing.T) {
		rec := serve(h.Register, request{method: http.MethodPost, target: "/api/auth/register",
			body: `{"name":"Trần Sinh Viên","email":"sv@student.edu.vn","password":"secret123"}`})
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decode[struct {
			User domain.User `json:"user"`
		}](t, rec)
		assert.Equal(t, "sv@student.edu.vn", body.User.Email)
		assert.Equal(t, domain.RoleUser, body.User.Role)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookie.SessionCookieName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := serve(h.Register, request{method: http.MethodPost, target: "/api/auth/register",
			body: `{"name":"Khác","email":"SV@student.edu.vn","password":"secret123"}`})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password lists the field", func(t *testing.T) {
		rec := serve(h.Register, request{method: http.MethodPost, target: "/api/auth/register",
			body: `{"name":"A","email":"a@student.edu.vn","password":"123"}`})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorEnvelope](t, rec).Error.Fields, "password")
	})

	t.Run("login", func(t *testing.T) {
		rec := serve(h.Login, request{method: http.MethodPost, target: "/api/auth/login",
			body: `{"email":"sv@student.edu.vn","password":"secret123"}`})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, rec.Result().Cookies(), 1)

		rec = serve(h.Login, request{method: http.MethodPost, target: "/api/auth/login",
			body: `{"email":"sv@student.edu.vn","password":"wrong"}`})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("firebase disabled", func(t *testing.T) {
		rec := serve(h.Firebase, request{method: http.MethodPost, target: "/api/auth/firebase", body: `{"idToken":"x"}`})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("me", func(t *testing.T) {
		rec := serve(h.Me, request{method: http.MethodGet, target: "/api/me"})
		assert.JSONEq(t, `{"user":null}`, rec.Body.String())

		user := f.signUp(t, "me@student.edu.vn")
		rec = serve(h.Me, request{method: http.MethodGet, target: "/api/me", user: user})
		body := decode[struct {
			User domain.User `json:"user"`
		}](t, rec)
		assert.Equal(t, user.ID, body.User.ID)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		rec := serve(h.Logout, request{method: http.MethodPost, target: "/api/auth/logout", user: &domain.User{ID: "x"}})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestAddressHandler(t *testing.T) {
	f := newFixture(t)
	h := NewAddressHandler(f.identity)
	user := f.signUp(t, "addr@student.edu.vn")

	rec := serve(h.List, request{method: http.MethodGet, target: "/api/me/addresses", user: user})
	assert.JSONEq(t, `{"addresses":[]}`, rec.Body.String())

	rec = serve(h.Create, request{method: http.MethodPost, target: "/api/me/addresses", user: user,
		body: `{"fullName":"Trần Sinh Viên","phone":"0901234567","address":"12 Lê Lợi","city":"Hà Nội"}`})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = serve(h.Create, request{method: http.MethodPost, target: "/api/me/addresses", user: user,
		body: `{"fullName":"Trần Sinh Viên","phone":"0901234567","address":"KTX Khu B","city":"TP.HCM"}`})

	body := decode[struct {
		Addresses []domain.Address `json:"addresses"`
	}](t, rec)
	require.Len(t, body.Addresses, 2)
	assert.True(t, body.Addresses[0].IsDefault, "first address becomes the default")
	assert.False(t, body.Addresses[1].IsDefault)

	second := body.Addresses[1].ID
	rec = serve(h.SetDefault, request{method: http.MethodPost, target: "/api/me/addresses/" + second + "/default", user: user, path: map[string]string{"id": second}})
	require.Equal(t, http.StatusOK, rec.Code)
	addr, ok := f.reload(t, user).DefaultAddress()
	require.True(t, ok)
	assert.Equal(t, second, addr.ID)

	rec = serve(h.Create, request{method: http.MethodPost, target: "/api/me/addresses", user: user, body: `{"fullName":"","phone":"","address":""}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h.Delete, request{method: http.MethodDelete, target: "/api/me/addresses/nope", user: user, path: map[string]string{"id": "nope"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutHandler_BeginEmptyCartRedirects(t *testing.T) {
	f := newFixture(t)
	h := NewCheckoutHandler(f.checkouts, f.carts)
	user := f.signUp(t, "empty@student.edu.vn")

	rec := serve(h.Begin, request{method: http.MethodGet, target: "/api/checkout", user: user})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	assert.Equal(t, "/cart", decode[errorEnvelope](t, rec).Error.Redirect)
	assert.Equal(t, domain.CheckoutIdle, f.checkouts.For(cartID).State())
}

func TestCheckoutHandler_Flow(t *testing.T) {
	f := newFixture(t)
	h := NewCheckoutHandler(f.checkouts, f.carts)
	user := f.signUp(t, "buyer@student.edu.vn")
	f.fillCart(catalogProducts[0], catalogProducts[2], catalogProducts[2])

	rec := serve(h.Begin, request{method: http.MethodGet, target: "/api/checkout", user: user})
	require.Equal(t, http.StatusOK, rec.Code)
	begin := decode[struct {
		State          domain.CheckoutState `json:"state"`
		Draft          domain.CheckoutDraft `json:"draft"`
		Cart           domain.CartSummary   `json:"cart"`
		PaymentMethods []struct {
			Value string `json:"value"`
		} `json:"paymentMethods"`
	}](t, rec)
	assert.Equal(t, domain.CheckoutCollecting, begin.State)
	assert.Equal(t, domain.PaymentVNPay, begin.Draft.PaymentMethod)
	assert.Equal(t, user.Name, begin.Draft.Shipping.FullName)
	assert.Equal(t, int64(29400000), begin.Cart.Total)
	assert.Len(t, begin.PaymentMethods, 2)

	t.Run("missing shipping fields are reported", func(t *testing.T) {
		rec := serve(h.Submit, request{method: http.MethodPost, target: "/api/checkout", user: user,
			body: `{"shipping":{"fullName":"Trần Sinh Viên"},"paymentMethod":"vnpay"}`})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decode[errorEnvelope](t, rec)
		assert.Equal(t, "Please fill in all required shipping information.", env.Error.Message)
		assert.Contains(t, env.Error.Fields, "phone")
	})

	rec = serve(h.Submit, request{method: http.MethodPost, target: "/api/checkout", user: user,
		body: `{"shipping":{"fullName":"Trần Sinh Viên","phone":"0901234567","address":"12 Lê Lợi","city":"Hà Nội"},"paymentMethod":"cod","saveAddress":true}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[domain.Receipt](t, rec)
	assert.Regexp(t, `^COD-[0-9A-F]{12}$`, receipt.OrderID)
	assert.Equal(t, int64(29400000), receipt.Amount)

	t.Run("cart is emptied and the address saved", func(t *testing.T) {
		assert.Zero(t, f.carts.Cart(t.Context(), cartID).Count())
		assert.Len(t, f.reload(t, user).SavedAddresses, 1)
	})

	t.Run("state is done and a second submit is refused", func(t *testing.T) {
		rec := serve(h.State, request{method: http.MethodGet, target: "/api/checkout/state", user: user})
		assert.JSONEq(t, `{"state":"done","busy":false}`, rec.Body.String())

		rec = serve(h.Submit, request{method: http.MethodPost, target: "/api/checkout", user: user,
			body: `{"shipping":{"fullName":"A","phone":"1","address":"B"},"paymentMethod":"cod"}`})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("confirmation is one-shot", func(t *testing.T) {
		rec := serve(h.Confirmation, request{method: http.MethodGet, target: "/api/checkout/confirmation"})
		assert.Equal(t, receipt.OrderID, decode[domain.Receipt](t, rec).OrderID)

		rec = serve(h.Confirmation, request{method: http.MethodGet, target: "/api/checkout/confirmation"})
		assert.Equal(t, domain.DefaultReceipt(), decode[domain.Receipt](t, rec))
	})

	t.Run("order shows up in history and tracking", func(t *testing.T) {
		oh := NewOrderHandler(f.history)

		rec := serve(oh.List, request{method: http.MethodGet, target: "/api/orders", user: user})
		view := decode[service.OrderHistoryView](t, rec)
		require.Len(t, view.Orders, 1)
		assert.Equal(t, receipt.OrderID, view.Orders[0].ID)
		assert.Equal(t, 1, view.Counts["PENDING"])
		assert.Equal(t, int64(29400000), view.TotalSpent)

		rec = serve(oh.Tracking, request{method: http.MethodGet, target: "/api/orders/x/tracking", user: user, path: map[string]string{"id": receipt.OrderID}})
		tracking := decode[service.TrackingView](t, rec)
		assert.True(t, tracking.Steps[0].Completed)
		assert.False(t, tracking.Steps[1].Completed)

		stranger := f.signUp(t, "stranger@student.edu.vn")
		rec = serve(oh.Tracking, request{method: http.MethodGet, target: "/api/orders/x/tracking", user: stranger, path: map[string]string{"id": receipt.OrderID}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOrderHandler_BadStatusFilter(t *testing.T) {
	f := newFixture(t)
	user := f.signUp(t, "filter@student.edu.vn")

	rec := serve(NewOrderHandler(f.history).List, request{method: http.MethodGet, target: "/api/orders?status=Lost", user: user})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
