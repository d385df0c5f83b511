package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/kollcibe05-creator/Vetty/internal/metrics"
)

// DefaultBulkheadWait is how long a call waits for a free slot before it is rejected
const DefaultBulkheadWait = 1 * time.Second

// Bulkhead caps the number of concurrent calls to one backend resource.
// It limits concurrency only; calls are not queued or ordered.
type Bulkhead struct {
	semaphore chan struct{}
	wait      time.Duration
	name      string
	service   string
}

// NewBulkhead creates a new bulkhead with specified capacity
func NewBulkhead(size int, wait time.Duration, name, service string) *Bulkhead {
	if size <= 0 {
		size = 1
	}
	if wait <= 0 {
		wait = DefaultBulkheadWait
	}
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		wait:      wait,
		name:      name,
		service:   service,
	}
}

// Execute runs fn within the bulkhead's resource limits
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()

		return fn()

	case <-timer.C:
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("bulkhead %s: timeout acquiring resource: %w", b.name, ErrUnavailable)

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name returns the bulkhead name
func (b *Bulkhead) Name() string {
	return b.name
}

// InFlight returns the number of calls currently holding a slot
func (b *Bulkhead) InFlight() int {
	return len(b.semaphore)
}
