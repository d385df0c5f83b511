// Package mockbackend serves the storefront REST contract from memory. It
// keeps one cart per session cookie and can be told to fail or slow down.
package mockbackend

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	serviceName   = "mock-backend"
	sessionCookie = "session"
	lowStockLevel = 5
)

type session struct {
	items []*models.CartItem
}

type payment struct {
	ID                int64
	Session           string
	PhoneNumber       string
	Amount            decimal.Decimal
	OrderID           string
	AppointmentID     string
	Status            string
	CheckoutRequestID string
}

// Backend is an in-memory storefront backend
type Backend struct {
	mutex      sync.Mutex
	products   map[int64]*models.Product
	sessions   map[string]*session
	orders     map[string]models.Order
	payments   []payment
	lowStock   map[int64]bool
	nextItemID int64

	chaosMutex       sync.RWMutex
	chaosFailureRate float64
	chaosSlowDelay   time.Duration
}

// DefaultCatalog is the seed data served by the mock-backend binary
func DefaultCatalog() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Premium Dog Food 10kg", Price: decimal.NewFromInt(4500), StockQuantity: 40, CategoryID: 1},
		{ID: 2, Name: "Cat Litter 5kg", Price: decimal.NewFromInt(1200), StockQuantity: 25, CategoryID: 2},
		{ID: 3, Name: "Flea & Tick Collar", Price: decimal.NewFromInt(850), StockQuantity: 8, CategoryID: 3},
		{ID: 4, Name: "Chew Toy Bundle", Price: decimal.NewFromInt(600), StockQuantity: 60, CategoryID: 4},
		{ID: 5, Name: "Bird Seed Mix 2kg", Price: decimal.RequireFromString("399.50"), StockQuantity: 15, CategoryID: 5},
	}
}

// New creates a backend selling products
func New(products []models.Product) *Backend {
	b := &Backend{
		products: make(map[int64]*models.Product),
		sessions: make(map[string]*session),
		orders:   make(map[string]models.Order),
		lowStock: make(map[int64]bool),
	}
	for i := range products {
		p := products[i]
		b.products[p.ID] = &p
	}
	return b
}

// Router builds the gin engine serving the REST contract
func (b *Backend) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/", b.sessionMiddleware, b.chaosMiddleware)
	api.GET("/cart", b.getCart)
	api.DELETE("/cart", b.clearCart)
	api.POST("/cart-items", b.addCartItem)
	api.PATCH("/cart/:cartItemId", b.updateCartItem)
	api.DELETE("/cart/:cartItemId", b.removeCartItem)
	api.POST("/check-out", b.checkout)
	api.POST("/payments/mpesa", b.mpesaPayment)

	chaos := router.Group("/chaos")
	chaos.GET("/status", b.chaosStatus)
	chaos.POST("/enable", b.enableChaos)
	chaos.POST("/disable", b.disableChaos)
	chaos.POST("/slow", b.enableSlowMode)
	chaos.POST("/slow/disable", b.disableSlowMode)

	return router
}

func (b *Backend) sessionMiddleware(c *gin.Context) {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	}
	c.Set(sessionCookie, id)
	c.Next()
}

// cartLocked returns the caller's cart, creating it on first use
func (b *Backend) cartLocked(c *gin.Context) *session {
	id := c.GetString(sessionCookie)
	s, ok := b.sessions[id]
	if !ok {
		s = &session{}
		b.sessions[id] = s
	}
	return s
}

// cartResponseLocked renders lines with the current product data, as a fresh fetch would
func (b *Backend) cartResponseLocked(s *session) models.CartResponse {
	items := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		line := *item
		if p, ok := b.products[item.ProductID]; ok {
			line.Product = *p
		}
		items = append(items, line)
	}
	return models.CartResponse{CartItems: items, TotalAmount: models.SumItems(items)}
}

func (b *Backend) getCart(c *gin.Context) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	c.JSON(http.StatusOK, b.cartResponseLocked(b.cartLocked(c)))
}

func (b *Backend) addCartItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	product, ok := b.products[req.ProductID]
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Product not found"})
		return
	}

	s := b.cartLocked(c)
	var line *models.CartItem
	for _, item := range s.items {
		if item.ProductID == req.ProductID {
			line = item
			break
		}
	}

	quantity := req.Quantity
	if line != nil {
		quantity += line.Quantity
	}
	if quantity > product.StockQuantity {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Insufficient stock"})
		return
	}

	if line != nil {
		line.Quantity = quantity
	} else {
		b.nextItemID++
		s.items = append(s.items, &models.CartItem{
			ID:        b.nextItemID,
			ProductID: req.ProductID,
			Quantity:  quantity,
		})
	}

	log.WithFields(log.Fields{
		"product_id": req.ProductID,
		"quantity":   quantity,
	}).Info("Cart item added")

	c.JSON(http.StatusOK, b.cartResponseLocked(s))
}

func (b *Backend) updateCartItem(c *gin.Context) {
	var itemID int64
	if _, err := fmt.Sscan(c.Param("cartItemId"), &itemID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Cart item not found"})
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	s := b.cartLocked(c)
	line := findLine(s, itemID)
	if line == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Cart item not found"})
		return
	}

	// Non-positive quantities leave the line alone and still return the cart
	if req.Quantity > 0 {
		if p := b.products[line.ProductID]; p != nil && req.Quantity > p.StockQuantity {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Insufficient stock"})
			return
		}
		line.Quantity = req.Quantity
	}

	c.JSON(http.StatusOK, b.cartResponseLocked(s))
}

func (b *Backend) removeCartItem(c *gin.Context) {
	var itemID int64
	if _, err := fmt.Sscan(c.Param("cartItemId"), &itemID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Cart item not found"})
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	s := b.cartLocked(c)
	for i, item := range s.items {
		if item.ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			c.JSON(http.StatusOK, models.MessageResponse{Message: "Item removed from cart"})
			return
		}
	}
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Cart item not found"})
}

func (b *Backend) clearCart(c *gin.Context) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.cartLocked(c).items = nil
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Cart cleared"})
}

func (b *Backend) checkout(c *gin.Context) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s := b.cartLocked(c)
	if len(s.items) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Cart is empty"})
		return
	}

	// Check every line before touching stock so a failure changes nothing
	for _, item := range s.items {
		p := b.products[item.ProductID]
		if p == nil || p.StockQuantity < item.Quantity {
			name := "product"
			if p != nil {
				name = p.Name
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Insufficient stock for " + name})
			return
		}
	}

	order := models.Order{
		ID:        uuid.NewString(),
		UserID:    c.GetString(sessionCookie),
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	for _, item := range s.items {
		p := b.products[item.ProductID]
		p.StockQuantity -= item.Quantity
		if p.StockQuantity <= lowStockLevel {
			b.lowStock[p.ID] = true
		}
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		})
	}
	b.orders[order.ID] = order
	s.items = nil

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(order.OrderItems),
	}).Info("Order created from cart")

	c.JSON(http.StatusCreated, order)
}

func (b *Backend) mpesaPayment(c *gin.Context) {
	var req models.MpesaPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	if !strings.HasPrefix(req.PhoneNumber, "2547") || len(req.PhoneNumber) != 12 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid M-Pesa phone number format. Use 2547XXXXXXXX"})
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	p := payment{
		ID:                int64(len(b.payments) + 1),
		Session:           c.GetString(sessionCookie),
		PhoneNumber:       req.PhoneNumber,
		Amount:            decimal.NewFromFloat(req.Amount),
		OrderID:           req.OrderID,
		AppointmentID:     req.AppointmentID,
		Status:            "pending",
		CheckoutRequestID: fmt.Sprintf("CHK_%s_%s", time.Now().UTC().Format("20060102150405"), uuid.NewString()[:8]),
	}
	b.payments = append(b.payments, p)

	log.WithFields(log.Fields{
		"payment_id":          p.ID,
		"checkout_request_id": p.CheckoutRequestID,
		"amount":              p.Amount.String(),
	}).Info("M-Pesa payment initiated")

	c.JSON(http.StatusCreated, models.MpesaPaymentResponse{
		Message:           "M-Pesa payment initiated successfully",
		PaymentID:         p.ID,
		CheckoutRequestID: p.CheckoutRequestID,
		PhoneNumber:       p.PhoneNumber,
		Amount:            p.Amount,
	})
}

// Payments returns the number of payments initiated so far
func (b *Backend) Payments() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.payments)
}

// Stock returns the remaining stock of a product
func (b *Backend) Stock(productID int64) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if p, ok := b.products[productID]; ok {
		return p.StockQuantity
	}
	return 0
}

// SetStock overwrites the stock of a product
func (b *Backend) SetStock(productID int64, stock int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if p, ok := b.products[productID]; ok {
		p.StockQuantity = stock
	}
}

// LowStock reports whether checkout has pushed a product to the alert level
func (b *Backend) LowStock(productID int64) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.lowStock[productID]
}

func findLine(s *session, itemID int64) *models.CartItem {
	for _, item := range s.items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// chaosMiddleware fails or delays requests while chaos is switched on
func (b *Backend) chaosMiddleware(c *gin.Context) {
	if delay := b.slowDelay(); delay > 0 {
		log.WithField("delay_ms", delay.Milliseconds()).Debug("Chaos: Simulating slow response")
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}

	if rate := b.failureRate(); rate > 0 && rand.Float64() < rate {
		log.WithField("path", c.FullPath()).Warn("Chaos: Simulated failure")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Service temporarily unavailable"})
		return
	}
	c.Next()
}
