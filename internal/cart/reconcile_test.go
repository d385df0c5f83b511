package cart

import (
	"context"
	"testing"

	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gate lets a test decide when each in-flight fake call returns
type gate struct {
	entered chan int
	release map[int]chan struct{}
}

func newGate(quantities ...int) *gate {
	g := &gate{entered: make(chan int, len(quantities)), release: map[int]chan struct{}{}}
	for _, q := range quantities {
		g.release[q] = make(chan struct{})
	}
	return g
}

func (g *gate) wait(q int) {
	g.entered <- q
	<-g.release[q]
}

func TestOutOfOrderResponsesAreDiscarded(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{t: t}
	ui := newCountingUI(t)
	s := loaded(t, api, ui, line(1, 10, 1, 100, 10))

	g := newGate(2, 3)
	api.updateItem = func(_ context.Context, _ int64, quantity int) (models.CartResponse, error) {
		g.wait(quantity)
		return response(line(1, 10, quantity, 100, 10)), nil
	}

	first := make(chan error, 1)
	go func() { first <- s.ChangeQuantity(ctx, 1, 2) }()
	require.Equal(t, 2, <-g.entered)

	second := make(chan error, 1)
	go func() { second <- s.ChangeQuantity(ctx, 1, 3) }()
	require.Equal(t, 3, <-g.entered)

	// The later-issued call answers first
	close(g.release[3])
	require.NoError(t, <-second)
	assert.Equal(t, 3, s.Snapshot().Items[0].Quantity)
	assert.True(t, s.Snapshot().Loading, "first call still in flight")

	close(g.release[2])
	require.NoError(t, <-first)

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(300).Equal(snap.TotalAmount))
	assert.False(t, snap.Loading)
	assert.False(t, ui.Spinner().Active)
	assert.Len(t, ui.Notices(), 2, "both calls succeeded and each notifies once")
}

func TestStaleListDoesNotRestoreRemovedLine(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{t: t}
	ui := newCountingUI(t)
	s := loaded(t, api, ui, line(1, 10, 1, 100, 10), line(2, 11, 1, 40, 10))

	g := newGate(5)
	api.updateItem = func(_ context.Context, _ int64, quantity int) (models.CartResponse, error) {
		g.wait(quantity)
		// Server snapshot taken before the removal below
		return response(line(1, 10, 1, 100, 10), line(2, 11, quantity, 40, 10)), nil
	}
	api.removeItem = func(context.Context, int64) error { return nil }

	update := make(chan error, 1)
	go func() { update <- s.ChangeQuantity(ctx, 2, 5) }()
	require.Equal(t, 5, <-g.entered)

	require.NoError(t, s.RemoveItem(ctx, 1))
	close(g.release[5])
	require.NoError(t, <-update)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(2), snap.Items[0].ID)
	assert.Equal(t, 1, snap.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(snap.TotalAmount))
}

func TestOverlappingSpinnersSurviveFastCalls(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{t: t}
	ui := newCountingUI(t)
	s := loaded(t, api, ui, line(1, 10, 1, 100, 10), line(2, 11, 1, 40, 10))

	g := newGate(4)
	api.updateItem = func(_ context.Context, _ int64, quantity int) (models.CartResponse, error) {
		g.wait(quantity)
		return response(line(1, 10, quantity, 100, 10), line(2, 11, 1, 40, 10)), nil
	}
	api.removeItem = func(context.Context, int64) error { return nil }

	slow := make(chan error, 1)
	go func() { slow <- s.ChangeQuantity(ctx, 1, 4) }()
	<-g.entered

	require.NoError(t, s.RemoveItem(ctx, 2))
	sp := ui.Spinner()
	assert.True(t, sp.Active, "slow update still holds the spinner")
	assert.Equal(t, "Updating cart...", sp.Message)

	close(g.release[4])
	require.NoError(t, <-slow)
	assert.False(t, ui.Spinner().Active)
}
