package models

import "github.com/shopspring/decimal"

// LowStockThreshold is the stock level under which a cart line is flagged as running out
const LowStockThreshold = 10

// Product is the catalog entry embedded in every cart line
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    int64           `json:"category_id,omitempty"`
}

// CartItem represents one product line in a cart
type CartItem struct {
	ID        int64   `json:"id"`
	CartID    int64   `json:"cart_id,omitempty"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// UnitPrice returns the price snapshot the server attached to this line
func (i CartItem) UnitPrice() decimal.Decimal {
	return i.Product.Price
}

// LineTotal returns quantity * unit price
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockCeiling is the highest quantity the presentation layer should offer for this line
func (i CartItem) StockCeiling() int {
	return i.Product.StockQuantity
}

// LowStock reports whether fewer than LowStockThreshold units remain
func (i CartItem) LowStock() bool {
	return i.Product.StockQuantity < LowStockThreshold
}

// Cart is the client-side view of the current user's cart
type Cart struct {
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
}

// SumItems returns the total of all line totals, in item order
func SumItems(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CartResponse is the payload returned by the cart endpoints
type CartResponse struct {
	CartItems   []CartItem      `json:"cart_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// AddCartItemRequest represents the body of POST /cart-items
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest represents the body of PATCH /cart/{id}
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// MessageResponse is the generic acknowledgement body used by the backend
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body the backend sends with a non-success status
type ErrorResponse struct {
	Error string `json:"error"`
}
