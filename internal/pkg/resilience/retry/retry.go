// Package retry wraps avast/retry-go behind a small interface with
// functional options. It is used at startup for operations against external
// systems that may not be reachable yet, such as the first RPC dial.
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry executes an operation with automatic retries on failure.
type Retry interface {
	// Execute runs operation, retrying with exponential backoff until it
	// succeeds, the configured attempts are exhausted, or ctx is done. The
	// operation must be safe to call multiple times.
	Execute(ctx context.Context, operation func() error) error
}

type config struct {
	attempts    uint
	delay       time.Duration
	maxDelay    time.Duration
	lastErrOnly bool
}

// Option customizes the retry behavior.
type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New returns a Retry with exponential backoff. Defaults: 3 attempts, 1s
// base delay, 5s max delay, last error only.
func New(opts ...Option) Retry {
	cfg := config{
		attempts:    3,
		delay:       1 * time.Second,
		maxDelay:    5 * time.Second,
		lastErrOnly: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{
		cfg: cfg,
	}
}

func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	options := []retry.Option{
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(r.cfg.lastErrOnly),
		retry.Context(ctx),
	}

	return retry.Do(operation, options...)
}

// WithAttempts sets the maximum number of attempts, including the first.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay before the first retry.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the backoff delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithLastErrorOnly controls whether Execute returns only the final error or
// all attempt errors combined.
func WithLastErrorOnly(b bool) Option {
	return func(c *config) {
		c.lastErrOnly = b
	}
}
