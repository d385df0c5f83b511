package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem represents a product line of a placed order
type OrderItem struct {
	ID        int64           `json:"id,omitempty"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order represents an order created from the cart at checkout
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id,omitempty"`
	Status     string      `json:"status"`
	OrderItems []OrderItem `json:"order_items"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderStatus constants
const (
	OrderStatusPending        = "Pending"
	OrderStatusApproved       = "Approved"
	OrderStatusOutForDelivery = "Out for Delivery"
	OrderStatusDelivered      = "Delivered"
	OrderStatusCancelled      = "Cancelled"
)
