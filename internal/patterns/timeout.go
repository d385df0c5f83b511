package patterns

import "time"

// DefaultTimeout is the transport timeout for backend requests
const DefaultTimeout = 10 * time.Second

// SlowServiceTimeout is the upper bound accepted from configuration
const SlowServiceTimeout = 60 * time.Second

// ClampTimeout keeps a configured timeout inside (0, SlowServiceTimeout]
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d > SlowServiceTimeout:
		return SlowServiceTimeout
	default:
		return d
	}
}
