package patterns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkhead(t *testing.T) {
	t.Run("runs fn and frees the slot", func(t *testing.T) {
		b := NewBulkhead(1, 10*time.Millisecond, "test", "patterns-test")
		err := b.Execute(context.Background(), func() error { return nil })
		require.NoError(t, err)
		assert.Equal(t, 0, b.InFlight())
	})

	t.Run("passes fn errors through", func(t *testing.T) {
		b := NewBulkhead(1, 10*time.Millisecond, "test", "patterns-test")
		boom := errors.New("boom")
		assert.ErrorIs(t, b.Execute(context.Background(), func() error { return boom }), boom)
	})

	t.Run("rejects when full", func(t *testing.T) {
		b := NewBulkhead(1, 20*time.Millisecond, "test", "patterns-test")
		release := make(chan struct{})
		started := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- b.Execute(context.Background(), func() error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started

		err := b.Execute(context.Background(), func() error { return nil })
		assert.ErrorIs(t, err, ErrUnavailable)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("honours context cancellation while waiting", func(t *testing.T) {
		b := NewBulkhead(1, time.Minute, "test", "patterns-test")
		release := make(chan struct{})
		started := make(chan struct{})
		go func() {
			_ = b.Execute(context.Background(), func() error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, b.Execute(ctx, func() error { return nil }), context.Canceled)
	})
}

func TestClampTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, ClampTimeout(0))
	assert.Equal(t, SlowServiceTimeout, ClampTimeout(time.Hour))
	assert.Equal(t, 2*time.Second, ClampTimeout(2*time.Second))
}
