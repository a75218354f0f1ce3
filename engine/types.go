package engine

import "time"

// Config carries the engine tunables. The zero value is usable: bounds
// that must be positive fall back to the package defaults.
type Config struct {
	// MaxQueueSize bounds the pending-request queue. Enqueueing past
	// the bound fails immediately with *QueueFullError.
	MaxQueueSize int
	// MaxRetries is the number of re-dispatches after the first
	// attempt of a request that keeps failing with a retriable error.
	MaxRetries int
	// BaseDelay seeds the exponential retry backoff
	// (BaseDelay * 2^(attempt-1)).
	BaseDelay time.Duration
	// ThrottleRemaining and ThrottleDelay implement the cooperative
	// throttle: once the provider reports remaining <= ThrottleRemaining,
	// every successful dispatch is followed by ThrottleDelay.
	ThrottleRemaining int
	ThrottleDelay     time.Duration
	// RequestsPerMinute paces dispatches below the provider quota
	// before header-based limiting kicks in. 0 disables the pacer.
	RequestsPerMinute int
}

const (
	defaultMaxQueueSize = 100
	defaultBaseDelay    = time.Second
	defaultThrottle     = 100 * time.Millisecond
	defaultResetSlack   = time.Second
)

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:      defaultMaxQueueSize,
		MaxRetries:        3,
		BaseDelay:         defaultBaseDelay,
		ThrottleRemaining: 10,
		ThrottleDelay:     defaultThrottle,
	}
}

// RateLimitStatus is the engine's view of the provider quota, rebuilt
// from the x-ratelimit-* response headers after every dispatch.
type RateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Reset     time.Time `json:"reset"`
}

// QueueStatus is a point-in-time snapshot of the request queue.
type QueueStatus struct {
	Length   int  `json:"length"`
	Draining bool `json:"draining"`
	Max      int  `json:"max"`
}
