// Package httpapi exposes the cart store, the payment initiator and the UI bus
// as JSON endpoints for the storefront front end.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kollcibe05-creator/Vetty/internal/cart"
	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/kollcibe05-creator/Vetty/internal/patterns"
	"github.com/kollcibe05-creator/Vetty/internal/payment"
	"github.com/kollcibe05-creator/Vetty/internal/remote"
	"github.com/kollcibe05-creator/Vetty/internal/uistate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const serviceName = "storefront-service"

// Server holds what the handlers need
type Server struct {
	Store     *cart.Store
	Payments  *payment.Initiator
	UI        *uistate.Bus
	ModalForm *payment.Form
	PageForm  *payment.Form
	// Circuits reports breaker states; optional
	Circuits func() map[string]string
}

type lineView struct {
	models.CartItem
	LineTotal   decimal.Decimal `json:"line_total"`
	LowStock    bool            `json:"low_stock"`
	CanIncrease bool            `json:"can_increase"`
	CanDecrease bool            `json:"can_decrease"`
}

type cartView struct {
	Items       []lineView      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
}

type paymentBody struct {
	models.PaymentForm
	Form string `json:"form"`
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

type errorBody struct {
	Error  string             `json:"error"`
	Errors models.FieldErrors `json:"errors,omitempty"`
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/circuit-status", s.circuitStatus)

	router.GET("/cart", s.getCart)
	router.POST("/cart/load", s.loadCart)
	router.POST("/cart/items", s.addItem)
	router.PATCH("/cart/items/:itemId", s.changeQuantity)
	router.DELETE("/cart/items/:itemId", s.removeItem)
	router.DELETE("/cart", s.clearCart)
	router.DELETE("/cart/error", s.dismissCartError)
	router.POST("/cart/checkout", s.checkout)

	router.GET("/payments/form/:form", s.getForm)
	router.POST("/payments/mpesa", s.submitPayment)
	router.POST("/payments/cart", s.payCart)

	router.GET("/ui", s.getUI)
	router.POST("/ui/reset", s.resetUI)
	router.DELETE("/ui/notification", s.hideNotification)
	router.POST("/ui/modals/:modal", s.openModal)
	router.DELETE("/ui/modals/:modal", s.closeModal)
	router.POST("/ui/footer", s.setFooter(true))
	router.DELETE("/ui/footer", s.setFooter(false))

	return router
}

func (s *Server) view() cartView {
	snap := s.Store.Snapshot()
	lines := make([]lineView, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, lineView{
			CartItem:    item,
			LineTotal:   item.LineTotal(),
			LowStock:    item.LowStock(),
			CanIncrease: item.Quantity < item.StockCeiling(),
			CanDecrease: item.Quantity > 1,
		})
	}
	return cartView{
		Items:       lines,
		TotalAmount: snap.TotalAmount,
		Loading:     snap.Loading,
		Error:       snap.Error,
	}
}

func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) loadCart(c *gin.Context) {
	s.respondCart(c, s.Store.Load(c.Request.Context()))
}

func (s *Server) addItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request: " + err.Error()})
		return
	}
	s.respondCart(c, s.Store.AddItem(c.Request.Context(), req.ProductID, req.Quantity))
}

// changeQuantity refuses quantities above the stock known for the line, the
// same guard the quantity buttons apply. The backend checks stock again.
func (s *Server) changeQuantity(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req quantityBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request: " + err.Error()})
		return
	}

	if ceiling, known := s.Store.StockCeiling(itemID); known && req.Quantity > ceiling {
		c.JSON(http.StatusUnprocessableEntity, errorBody{
			Error: "Quantity exceeds available stock",
			Errors: models.FieldErrors{
				models.FieldQuantity: "Only " + strconv.Itoa(ceiling) + " left in stock",
			},
		})
		return
	}

	s.respondCart(c, s.Store.ChangeQuantity(c.Request.Context(), itemID, req.Quantity))
}

func (s *Server) removeItem(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	s.respondCart(c, s.Store.RemoveItem(c.Request.Context(), itemID))
}

func (s *Server) clearCart(c *gin.Context) {
	s.respondCart(c, s.Store.Clear(c.Request.Context()))
}

// dismissCartError forgets the last cart failure once the front end has shown it
func (s *Server) dismissCartError(c *gin.Context) {
	s.Store.ClearError()
	c.JSON(http.StatusOK, s.view())
}

func (s *Server) checkout(c *gin.Context) {
	order, err := s.Store.Checkout(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to place order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) form(name string) *payment.Form {
	switch name {
	case "", "modal":
		return s.ModalForm
	case "page":
		return s.PageForm
	default:
		return nil
	}
}

func (s *Server) getForm(c *gin.Context) {
	f := s.form(c.Param("form"))
	if f == nil {
		c.JSON(http.StatusNotFound, errorBody{Error: "Unknown form"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"values": f.Values(), "errors": f.Errors()})
}

func (s *Server) submitPayment(c *gin.Context) {
	var req paymentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request: " + err.Error()})
		return
	}
	f := s.form(req.Form)
	if f == nil {
		c.JSON(http.StatusNotFound, errorBody{Error: "Unknown form"})
		return
	}
	if f.Modal() != "" {
		req.PaymentType = models.PaymentTypeNone
	} else if req.PaymentType == models.PaymentTypeNone {
		req.PaymentType = models.PaymentTypeOrder
	}
	attempt, err := s.Payments.SubmitValues(c.Request.Context(), f, req.PaymentForm)
	if err != nil {
		respondError(c, err, "Failed to process M-Pesa payment. Please try again.")
		return
	}
	c.JSON(http.StatusAccepted, attempt)
}

func (s *Server) payCart(c *gin.Context) {
	opened := s.Payments.PayCart(s.Store, s.ModalForm)
	c.JSON(http.StatusOK, gin.H{
		"opened": opened,
		"form":   s.ModalForm.Values(),
	})
}

func (s *Server) getUI(c *gin.Context) {
	c.JSON(http.StatusOK, s.UI.Snapshot())
}

func (s *Server) resetUI(c *gin.Context) {
	s.UI.Reset()
	c.JSON(http.StatusOK, s.UI.Snapshot())
}

func (s *Server) hideNotification(c *gin.Context) {
	s.UI.HideNotification()
	c.Status(http.StatusNoContent)
}

func (s *Server) openModal(c *gin.Context) {
	id, ok := modalParam(c)
	if !ok {
		return
	}
	s.UI.OpenModal(id)
	c.JSON(http.StatusOK, s.UI.Snapshot())
}

func (s *Server) closeModal(c *gin.Context) {
	id, ok := modalParam(c)
	if !ok {
		return
	}
	s.UI.CloseModal(id)
	if id == models.ModalMpesa {
		s.ModalForm.Reset()
	}
	c.JSON(http.StatusOK, s.UI.Snapshot())
}

func (s *Server) setFooter(visible bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.UI.SetFooterVisible(visible)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) circuitStatus(c *gin.Context) {
	if s.Circuits == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.Circuits())
}

func (s *Server) respondCart(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err, "Cart request failed")
		return
	}
	c.JSON(http.StatusOK, s.view())
}

// respondError maps the error taxonomy onto HTTP statuses
func respondError(c *gin.Context, err error, fallback string) {
	var fe models.FieldErrors
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusUnprocessableEntity, errorBody{Error: "Validation failed", Errors: fe})
	case errors.Is(err, patterns.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: patterns.MessageOf(err, fallback)})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorBody{Error: fallback})
	default:
		status := remote.StatusOf(err)
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, errorBody{Error: patterns.MessageOf(err, fallback)})
	}
}

func itemParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid cart item id"})
		return 0, false
	}
	return id, true
}

func modalParam(c *gin.Context) (models.ModalID, bool) {
	id := models.ModalID(c.Param("modal"))
	switch id {
	case models.ModalMpesa, models.ModalConfirm, models.ModalGeneric:
		return id, true
	default:
		c.JSON(http.StatusNotFound, errorBody{Error: "Unknown modal"})
		return "", false
	}
}
