package mockbackend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// client replays the session cookie the way a browser would
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newClient(t *testing.T, b *Backend) *client {
	return &client{t: t, router: b.Router()}
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAddCartItemMergesLines(t *testing.T) {
	c := newClient(t, New(DefaultCatalog()))

	w := c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 2, Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 2, Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code)

	cart := decode[models.CartResponse](t, w)
	require.Len(t, cart.CartItems, 1)
	assert.Equal(t, 3, cart.CartItems[0].Quantity)
	assert.Equal(t, "Cat Litter 5kg", cart.CartItems[0].Product.Name)
	assert.True(t, decimal.NewFromInt(3600).Equal(cart.TotalAmount))
}

func TestAddCartItemErrors(t *testing.T) {
	c := newClient(t, New(DefaultCatalog()))

	w := c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 99, Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decode[models.ErrorResponse](t, w).Error)

	w = c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 3, Quantity: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient stock", decode[models.ErrorResponse](t, w).Error)

	w = c.do(http.MethodPost, "/cart-items", map[string]int{"product_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsKeepSeparateCarts(t *testing.T) {
	b := New(DefaultCatalog())
	alice, bob := newClient(t, b), newClient(t, b)

	alice.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 1, Quantity: 1})
	bob.do(http.MethodGet, "/cart", nil)

	assert.Len(t, decode[models.CartResponse](t, alice.do(http.MethodGet, "/cart", nil)).CartItems, 1)
	assert.Empty(t, decode[models.CartResponse](t, bob.do(http.MethodGet, "/cart", nil)).CartItems)
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	c := newClient(t, New(DefaultCatalog()))
	cart := decode[models.CartResponse](t, c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 4, Quantity: 2}))
	path := "/cart/" + strconv.FormatInt(cart.CartItems[0].ID, 10)

	w := c.do(http.MethodPatch, path, models.UpdateCartItemRequest{Quantity: 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[models.CartResponse](t, w).CartItems[0].Quantity)

	w = c.do(http.MethodPatch, path, models.UpdateCartItemRequest{Quantity: 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[models.CartResponse](t, w).CartItems[0].Quantity, "zero leaves the line alone")

	w = c.do(http.MethodPatch, path, models.UpdateCartItemRequest{Quantity: 61})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item removed from cart", decode[models.MessageResponse](t, w).Message)

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPatch, "/cart/abc", models.UpdateCartItemRequest{Quantity: 1}).Code)
}

func TestCheckout(t *testing.T) {
	b := New(DefaultCatalog())
	c := newClient(t, b)

	w := c.do(http.MethodPost, "/check-out", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cart is empty", decode[models.ErrorResponse](t, w).Error)

	c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 3, Quantity: 3})
	c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 1, Quantity: 1})

	w = c.do(http.MethodPost, "/check-out", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	order := decode[models.Order](t, w)
	assert.Len(t, order.OrderItems, 2)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	assert.Equal(t, 5, b.Stock(3))
	assert.True(t, b.LowStock(3))
	assert.False(t, b.LowStock(1))
	assert.Empty(t, decode[models.CartResponse](t, c.do(http.MethodGet, "/cart", nil)).CartItems)
}

func TestCheckoutChecksStockFirst(t *testing.T) {
	b := New(DefaultCatalog())
	c := newClient(t, b)
	c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 1, Quantity: 2})
	c.do(http.MethodPost, "/cart-items", models.AddCartItemRequest{ProductID: 3, Quantity: 4})
	b.SetStock(3, 2)

	w := c.do(http.MethodPost, "/check-out", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient stock for Flea & Tick Collar", decode[models.ErrorResponse](t, w).Error)
	assert.Equal(t, 40, b.Stock(1), "no stock moves on a failed checkout")
	assert.Len(t, decode[models.CartResponse](t, c.do(http.MethodGet, "/cart", nil)).CartItems, 2)
}

func TestMpesaPayment(t *testing.T) {
	b := New(DefaultCatalog())
	c := newClient(t, b)

	w := c.do(http.MethodPost, "/payments/mpesa", models.MpesaPaymentRequest{PhoneNumber: "0712345678", Amount: 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid M-Pesa phone number format. Use 2547XXXXXXXX", decode[models.ErrorResponse](t, w).Error)

	w = c.do(http.MethodPost, "/payments/mpesa", models.MpesaPaymentRequest{
		PhoneNumber:   "254712345678",
		Amount:        150.5,
		PaymentMethod: models.PaymentMethodMpesa,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	ack := decode[models.MpesaPaymentResponse](t, w)
	assert.Regexp(t, `^CHK_\d{14}_[0-9a-f]{8}$`, ack.CheckoutRequestID)
	assert.Equal(t, "150.5", ack.Amount.String())
	assert.Equal(t, 1, b.Payments())
}

func TestChaosEndpoints(t *testing.T) {
	b := New(DefaultCatalog())
	c := newClient(t, b)

	w := c.do(http.MethodPost, "/chaos/enable", map[string]float64{"failure_rate": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Service temporarily unavailable", decode[models.ErrorResponse](t, w).Error)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil).Code, "health bypasses chaos")

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/chaos/enable", map[string]float64{"failure_rate": 2}).Code)

	c.do(http.MethodPost, "/chaos/disable", nil)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/cart", nil).Code)

	status := decode[map[string]interface{}](t, c.do(http.MethodGet, "/chaos/status", nil))
	assert.Equal(t, float64(0), status["failure_rate"])
}
