package cart_test

import (
	"context"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kollcibe05-creator/Vetty/internal/cart"
	"github.com/kollcibe05-creator/Vetty/internal/mockbackend"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/kollcibe05-creator/Vetty/internal/remote"
	"github.com/kollcibe05-creator/Vetty/internal/uistate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newBackedStore(t *testing.T) (*cart.Store, *uistate.Bus, *mockbackend.Backend) {
	t.Helper()
	backend := mockbackend.New(mockbackend.DefaultCatalog())
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	bus := uistate.New()
	t.Cleanup(bus.Close)

	client := remote.New(remote.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, BulkheadSize: 20})
	return cart.NewStore(client, bus), bus, backend
}

// Every successful mutation leaves the total equal to the sum of its lines
func TestTotalMatchesLinesAfterEverySuccess(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newBackedStore(t)
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 60; step++ {
		items := s.Snapshot().Items
		var err error

		switch op := rng.Intn(3); {
		case op == 0 || len(items) == 0:
			err = s.AddItem(ctx, int64(rng.Intn(5)+1), rng.Intn(2)+1)
		case op == 1:
			item := items[rng.Intn(len(items))]
			err = s.ChangeQuantity(ctx, item.ID, rng.Intn(item.StockCeiling())+1)
		default:
			err = s.RemoveItem(ctx, items[rng.Intn(len(items))].ID)
		}
		if err != nil {
			// Stock refusals are allowed; they must not disturb the invariant
			continue
		}

		snap := s.Snapshot()
		assert.True(t, models.SumItems(snap.Items).Equal(snap.TotalAmount),
			"step %d: total %s, lines sum to %s", step, snap.TotalAmount, models.SumItems(snap.Items))
	}
}

func TestConcurrentMutationsSettle(t *testing.T) {
	ctx := context.Background()
	s, bus, _ := newBackedStore(t)
	// Establish the session cookie before fanning out
	require.NoError(t, s.Load(ctx))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 20; i++ {
		productID := int64(i%5 + 1)
		g.Go(func() error {
			return s.AddItem(gctx, productID, 1)
		})
	}
	require.NoError(t, g.Wait())

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, bus.Spinner().Active)
	assert.Equal(t, 0, bus.Spinner().Depth)

	// Whatever response landed last, a reload shows the server's full view
	require.NoError(t, s.Load(ctx))
	snap = s.Snapshot()
	require.Len(t, snap.Items, 5)
	quantity := 0
	for _, item := range snap.Items {
		quantity += item.Quantity
	}
	assert.Equal(t, 20, quantity)
	assert.True(t, models.SumItems(snap.Items).Equal(snap.TotalAmount))
}

func TestCheckoutAgainstBackend(t *testing.T) {
	ctx := context.Background()
	s, bus, backend := newBackedStore(t)

	require.NoError(t, s.AddItem(ctx, 3, 4))
	order, err := s.Checkout(ctx)
	require.NoError(t, err)
	assert.Len(t, order.OrderItems, 1)
	assert.Empty(t, s.Snapshot().Items)
	assert.Equal(t, 4, backend.Stock(3))
	assert.True(t, backend.LowStock(3))

	_, err = s.Checkout(ctx)
	require.Error(t, err)
	n := bus.Notification()
	assert.Equal(t, models.NotificationError, n.Kind)
	assert.Equal(t, "Cart is empty", n.Message)
}

func TestBackendOutageSurfacesOneNotificationPerCall(t *testing.T) {
	ctx := context.Background()
	s, bus, backend := newBackedStore(t)
	require.NoError(t, s.AddItem(ctx, 1, 1))

	backend.SetFailureRate(1)
	err := s.ChangeQuantity(ctx, s.Snapshot().Items[0].ID, 2)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.Equal(t, "Service temporarily unavailable", snap.Error)
	assert.Equal(t, "Service temporarily unavailable", bus.Notification().Message)
	assert.False(t, bus.Spinner().Active)
}
