// Package cart keeps the client-side copy of the user's cart in step with the backend.
package cart

import (
	"context"
	"sync"

	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/kollcibe05-creator/Vetty/internal/patterns"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// API is the slice of the backend the store needs
type API interface {
	GetCart(ctx context.Context) (models.CartResponse, error)
	AddCartItem(ctx context.Context, productID int64, quantity int) (models.CartResponse, error)
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) (models.CartResponse, error)
	RemoveCartItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context) error
	Checkout(ctx context.Context) (models.Order, error)
}

// Store is the single source of truth for the current cart. Any number of
// operations may run at once; each takes a sequence number when it is issued
// and a server list is only applied if no later-issued operation has already
// been applied.
type Store struct {
	api API
	ui  patterns.Signaler

	mu       sync.RWMutex
	items    []models.CartItem
	total    decimal.Decimal
	inflight int
	lastErr  string
	issued   uint64
	applied  uint64
}

// NewStore creates an empty store
func NewStore(api API, ui patterns.Signaler) *Store {
	return &Store{
		api:   api,
		ui:    ui,
		total: decimal.Zero,
	}
}

// Load replaces the cart with the server's. It is silent on success.
func (s *Store) Load(ctx context.Context) error {
	var seq uint64
	_, err := patterns.Guard(ctx, s.ui, patterns.Operation[models.CartResponse]{
		Name:    "load_cart",
		Spinner: "Loading cart...",
		Call: func(ctx context.Context) (models.CartResponse, error) {
			seq = s.begin()
			return s.api.GetCart(ctx)
		},
		Apply:           func(r models.CartResponse) { s.reconcile("load_cart", seq, r) },
		Failed:          s.fail,
		FailureTitle:    "Cart Error",
		FailureFallback: "Failed to fetch cart",
	})
	return err
}

// AddItem adds quantity units of productID. Nothing is inserted locally until
// the server answers, since the unit price and stock come from it.
func (s *Store) AddItem(ctx context.Context, productID int64, quantity int) error {
	var seq uint64
	_, err := patterns.Guard(ctx, s.ui, patterns.Operation[models.CartResponse]{
		Name:    "add_item",
		Spinner: "Adding to cart...",
		Validate: func() error {
			fe := models.FieldErrors{}
			if productID <= 0 {
				fe.Add(models.FieldProductID, "Product is required")
			}
			if quantity < 1 {
				fe.Add(models.FieldQuantity, "Quantity must be at least 1")
			}
			return fe.OrNil()
		},
		Call: func(ctx context.Context) (models.CartResponse, error) {
			seq = s.begin()
			return s.api.AddCartItem(ctx, productID, quantity)
		},
		Apply:  func(r models.CartResponse) { s.reconcile("add_item", seq, r) },
		Failed: s.fail,
		Success: &models.Notice{
			Kind:    models.NotificationSuccess,
			Title:   "Added to Cart",
			Message: "Item successfully added to your cart",
		},
		FailureTitle:    "Cart Error",
		FailureFallback: "Failed to add to cart",
	})
	return err
}

// ChangeQuantity sets the quantity of one line. Quantities below 1 are
// rejected before any call is made. The stock ceiling is not checked here.
func (s *Store) ChangeQuantity(ctx context.Context, itemID int64, quantity int) error {
	var seq uint64
	_, err := patterns.Guard(ctx, s.ui, patterns.Operation[models.CartResponse]{
		Name:    "update_item",
		Spinner: "Updating cart...",
		Validate: func() error {
			if quantity < 1 {
				return models.FieldErrors{models.FieldQuantity: "Quantity must be at least 1"}
			}
			return nil
		},
		Call: func(ctx context.Context) (models.CartResponse, error) {
			seq = s.begin()
			return s.api.UpdateCartItem(ctx, itemID, quantity)
		},
		Apply:  func(r models.CartResponse) { s.reconcile("update_item", seq, r) },
		Failed: s.fail,
		Success: &models.Notice{
			Kind:    models.NotificationSuccess,
			Title:   "Cart Updated",
			Message: "Cart item quantity updated",
		},
		FailureTitle:    "Cart Error",
		FailureFallback: "Failed to update cart",
	})
	return err
}

// RemoveItem deletes one line on the server, then drops it locally and
// recomputes the total from the remaining lines.
func (s *Store) RemoveItem(ctx context.Context, itemID int64) error {
	var seq uint64
	_, err := patterns.Guard(ctx, s.ui, patterns.Operation[struct{}]{
		Name:    "remove_item",
		Spinner: "Removing item...",
		Call: func(ctx context.Context) (struct{}, error) {
			seq = s.begin()
			return struct{}{}, s.api.RemoveCartItem(ctx, itemID)
		},
		Apply:  func(struct{}) { s.removeLocal(seq, itemID) },
		Failed: s.fail,
		Success: &models.Notice{
			Kind:    models.NotificationSuccess,
			Title:   "Item Removed",
			Message: "Item removed from cart",
		},
		FailureTitle:    "Cart Error",
		FailureFallback: "Failed to remove from cart",
	})
	return err
}

// Clear removes every line on the server and empties the local cart
func (s *Store) Clear(ctx context.Context) error {
	var seq uint64
	_, err := patterns.Guard(ctx, s.ui, patterns.Operation[struct{}]{
		Name:    "clear_cart",
		Spinner: "Clearing cart...",
		Call: func(ctx context.Context) (struct{}, error) {
			seq = s.begin()
			return struct{}{}, s.api.ClearCart(ctx)
		},
		Apply:  func(struct{}) { s.resetLocal(seq) },
		Failed: s.fail,
		Success: &models.Notice{
			Kind:    models.NotificationSuccess,
			Title:   "Cart Cleared",
			Message: "All items removed from cart",
		},
		FailureTitle:    "Cart Error",
		FailureFallback: "Failed to clear cart",
	})
	return err
}

// Checkout places an order for the current cart. The server empties the cart
// when the order is created, so the local cart is reset too.
func (s *Store) Checkout(ctx context.Context) (models.Order, error) {
	var seq uint64
	return patterns.Guard(ctx, s.ui, patterns.Operation[models.Order]{
		Name:    "checkout",
		Spinner: "Placing order...",
		Call: func(ctx context.Context) (models.Order, error) {
			seq = s.begin()
			return s.api.Checkout(ctx)
		},
		Apply:  func(models.Order) { s.resetLocal(seq) },
		Failed: s.fail,
		Success: &models.Notice{
			Kind:    models.NotificationSuccess,
			Title:   "Order Placed",
			Message: "Your order has been placed",
		},
		FailureTitle:    "Checkout Failed",
		FailureFallback: "Failed to place order",
	})
}

// RecomputeTotal sets the total to the sum of quantity * unit price over the
// current lines and returns it
func (s *Store) RecomputeTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	return s.total
}

// Snapshot returns a copy of the cart
func (s *Store) Snapshot() models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)
	return models.Cart{
		Items:       items,
		TotalAmount: s.total,
		Loading:     s.inflight > 0,
		Error:       s.lastErr,
	}
}

// Total returns the current total
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Item returns the line with id itemID
func (s *Store) Item(itemID int64) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == itemID {
			return item, true
		}
	}
	return models.CartItem{}, false
}

// StockCeiling returns the stock known for a line when it was last fetched
func (s *Store) StockCeiling(itemID int64) (int, bool) {
	item, ok := s.Item(itemID)
	if !ok {
		return 0, false
	}
	return item.StockCeiling(), true
}

// CanIncrease reports whether the presentation layer should offer one more unit
func (s *Store) CanIncrease(itemID int64) bool {
	item, ok := s.Item(itemID)
	return ok && item.Quantity < item.StockCeiling()
}

// ClearError forgets the last failure message
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.inflight++
	s.lastErr = ""
	return s.issued
}

func (s *Store) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	s.lastErr = message
}

// reconcile applies a full server list unless a later-issued operation already landed
func (s *Store) reconcile(op string, seq uint64, r models.CartResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if seq <= s.applied {
		metrics.CartStaleResponses.WithLabelValues(op).Inc()
		log.WithFields(log.Fields{
			"operation": op,
			"sequence":  seq,
			"applied":   s.applied,
		}).Debug("Discarding stale cart response")
		return
	}

	s.applied = seq
	s.items = make([]models.CartItem, len(r.CartItems))
	copy(s.items, r.CartItems)
	s.total = r.TotalAmount
	s.publishLocked()
}

func (s *Store) removeLocal(seq uint64, itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	s.advanceLocked(seq)

	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.recomputeLocked()
}

func (s *Store) resetLocal(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	s.advanceLocked(seq)

	s.items = nil
	s.total = decimal.Zero
	s.publishLocked()
}

// advanceLocked moves the watermark so older full-list responses cannot bring
// back lines removed locally
func (s *Store) advanceLocked(seq uint64) {
	if seq > s.applied {
		s.applied = seq
	}
}

func (s *Store) recomputeLocked() {
	s.total = models.SumItems(s.items)
	s.publishLocked()
}

func (s *Store) publishLocked() {
	metrics.CartItems.Set(float64(len(s.items)))
	metrics.CartTotalAmount.Set(s.total.InexactFloat64())
}
