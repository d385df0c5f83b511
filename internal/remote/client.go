// Package remote talks to the storefront REST backend. Every call goes
// through a bulkhead and a circuit breaker for its resource and is never retried.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/kollcibe05-creator/Vetty/internal/patterns"
	log "github.com/sirupsen/logrus"
)

const serviceName = "storefront-client"

// Options configures a Client
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	BulkheadSize int
	BulkheadWait time.Duration
	Breaker      patterns.BreakerSettings
}

// Client is the backend client shared by the cart store and the payment initiator.
// Its cookie jar carries the backend session between calls.
type Client struct {
	http *resty.Client

	cartCircuit     *patterns.CircuitBreakerWrapper
	paymentCircuit  *patterns.CircuitBreakerWrapper
	cartBulkhead    *patterns.Bulkhead
	paymentBulkhead *patterns.Bulkhead
}

// New creates a client for opts.BaseURL
func New(opts Options) *Client {
	breaker := opts.Breaker
	if breaker.MaxRequests == 0 {
		breaker = patterns.DefaultBreakerSettings
	}
	if opts.BulkheadSize <= 0 {
		opts.BulkheadSize = 10
	}

	return &Client{
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(patterns.ClampTimeout(opts.Timeout)).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		cartCircuit:     patterns.NewCircuitBreakerWithSettings("Cart", serviceName, breaker),
		paymentCircuit:  patterns.NewCircuitBreakerWithSettings("Payment", serviceName, breaker),
		cartBulkhead:    patterns.NewBulkhead(opts.BulkheadSize, opts.BulkheadWait, "cart", serviceName),
		paymentBulkhead: patterns.NewBulkhead(opts.BulkheadSize, opts.BulkheadWait, "payment", serviceName),
	}
}

// CircuitStatus returns the state of each circuit keyed by name
func (c *Client) CircuitStatus() map[string]string {
	return map[string]string{
		c.cartCircuit.Name():    c.cartCircuit.GetState(),
		c.paymentCircuit.Name(): c.paymentCircuit.GetState(),
	}
}

// GetCart fetches the current cart
func (c *Client) GetCart(ctx context.Context) (models.CartResponse, error) {
	var out models.CartResponse
	err := c.cartCall(ctx, "get_cart", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/cart")
	})
	return out, err
}

// AddCartItem adds quantity units of a product; the backend decides how it merges with existing lines
func (c *Client) AddCartItem(ctx context.Context, productID int64, quantity int) (models.CartResponse, error) {
	var out models.CartResponse
	err := c.cartCall(ctx, "add_item", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(models.AddCartItemRequest{ProductID: productID, Quantity: quantity}).
			SetResult(&out).
			Post("/cart-items")
	})
	return out, err
}

// UpdateCartItem sets the quantity of one line
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (models.CartResponse, error) {
	var out models.CartResponse
	err := c.cartCall(ctx, "update_item", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(models.UpdateCartItemRequest{Quantity: quantity}).
			SetResult(&out).
			Patch("/cart/" + strconv.FormatInt(itemID, 10))
	})
	return out, err
}

// RemoveCartItem deletes one line; the response body is ignored
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.cartCall(ctx, "remove_item", func(r *resty.Request) (*resty.Response, error) {
		return r.Delete("/cart/" + strconv.FormatInt(itemID, 10))
	})
}

// ClearCart deletes every line
func (c *Client) ClearCart(ctx context.Context) error {
	return c.cartCall(ctx, "clear", func(r *resty.Request) (*resty.Response, error) {
		return r.Delete("/cart")
	})
}

// Checkout turns the cart into an order
func (c *Client) Checkout(ctx context.Context) (models.Order, error) {
	var out models.Order
	err := c.cartCall(ctx, "checkout", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Post("/check-out")
	})
	return out, err
}

// InitiateMpesa asks the backend to send an M-Pesa push prompt
func (c *Client) InitiateMpesa(ctx context.Context, req models.MpesaPaymentRequest) (models.MpesaPaymentResponse, error) {
	var out models.MpesaPaymentResponse
	err := c.call(ctx, c.paymentBulkhead, c.paymentCircuit, "mpesa", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).SetResult(&out).Post("/payments/mpesa")
	})
	return out, err
}

func (c *Client) cartCall(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) error {
	return c.call(ctx, c.cartBulkhead, c.cartCircuit, op, send)
}

// call runs send as bulkhead -> breaker -> resty. A 4xx response is returned
// as *Error without counting against the breaker; transport errors and 5xx do count.
func (c *Client) call(ctx context.Context, bulkhead *patterns.Bulkhead, circuit *patterns.CircuitBreakerWrapper,
	op string, send func(*resty.Request) (*resty.Response, error)) error {

	requestID := uuid.NewString()
	var resp *resty.Response

	err := bulkhead.Execute(ctx, func() error {
		_, cbErr := circuit.Execute(func() (interface{}, error) {
			r, httpErr := send(c.http.R().
				SetContext(ctx).
				SetHeader("X-Request-ID", requestID).
				SetError(&models.ErrorResponse{}))
			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}
			resp = r
			if r.StatusCode() >= http.StatusInternalServerError {
				return nil, responseError(r)
			}
			return r, nil
		})
		return cbErr
	})

	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	metrics.BackendCallsTotal.WithLabelValues(bulkhead.Name(), op, status).Inc()

	if err != nil {
		log.WithFields(log.Fields{
			"operation":  op,
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Backend call failed")
		return err
	}
	if resp.IsError() {
		return responseError(resp)
	}
	return nil
}

func responseError(r *resty.Response) error {
	e := &Error{StatusCode: r.StatusCode()}
	if body, ok := r.Error().(*models.ErrorResponse); ok && body != nil {
		e.Message = body.Error
	}
	return e
}
