// Package logpoll implements a bounded, cancellable, repeating poll over an
// EVM log filter. A Poller fires a callback once per tick with the batch of
// logs observed since the previous tick, starting from the chain head at the
// moment the watch was created. The poller knows nothing about the meaning of
// the logs it delivers; decoding and filtering belong to the caller.
package logpoll

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/RegisGraptin/whalewatch/internal/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

const (
	defaultPollInterval = 7 * time.Second
	defaultPollLimit    = 3
)

// LogSource provides read access to chain logs. It is implemented by the EVM
// infra client and mocked in tests.
type LogSource interface {
	// FilterLogs returns the logs matching the given filter query.
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// BlockNumber returns the current chain head height.
	BlockNumber(ctx context.Context) (uint64, error)
}

// BatchFunc is invoked once per poll firing with the batch of logs observed
// since the previous firing. The batch may be empty. The next firing is not
// scheduled until the callback returns.
type BatchFunc func(ctx context.Context, logs []types.Log)

// Watch is the cancellable handle of an active poll. Stop prevents any future
// firings but never interrupts a firing already in progress; Done is closed
// once the poll loop has fully wound down.
type Watch interface {
	// ID returns the unique identifier of this watch.
	ID() string

	// Stop cancels the scheduled recurrence of future firings. Safe to call
	// more than once.
	Stop()

	// Done returns a channel closed when the poll has terminated, whether by
	// reaching its firing limit, by Stop, or by context cancellation.
	Done() <-chan struct{}
}

type watch struct {
	id       string
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

var _ Watch = (*watch)(nil)

func (w *watch) ID() string { return w.id }

func (w *watch) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *watch) Done() <-chan struct{} { return w.done }

// Poller schedules repeating, strictly sequential log fetches against a
// LogSource. Each call to WatchLogs starts an independent watch.
type Poller struct {
	source   LogSource
	interval time.Duration
	limit    uint64
	maxLogs  int
}

type config struct {
	interval time.Duration
	limit    uint64
	maxLogs  int
}

// Option customizes a Poller.
type Option func(*config)

// New creates a Poller over the given log source. Defaults: 7 second
// interval, 3 firings per watch, no cap on the batch size.
func New(source LogSource, opts ...Option) *Poller {
	cfg := config{
		interval: defaultPollInterval,
		limit:    defaultPollLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Poller{
		source:   source,
		interval: cfg.interval,
		limit:    cfg.limit,
		maxLogs:  cfg.maxLogs,
	}
}

// WithPollInterval sets the minimum delay between consecutive firings.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.interval = d
	}
}

// WithPollLimit sets the number of firings after which the watch terminates
// on its own.
func WithPollLimit(n uint64) Option {
	return func(c *config) {
		c.limit = n
	}
}

// WithMaxLogsPerPoll caps the number of logs delivered per firing. Zero means
// unlimited.
func WithMaxLogsPerPoll(n int) Option {
	return func(c *config) {
		c.maxLogs = n
	}
}

// WatchLogs begins a bounded repeating poll for logs matching query, starting
// from the block after the current chain head. fn is invoked once per firing;
// firings are strictly sequential and separated by at least the configured
// interval, measured from the completion of the previous callback.
//
// The returned Watch cancels future firings; it does not interrupt a firing
// in progress.
func (p *Poller) WatchLogs(ctx context.Context, query ethereum.FilterQuery, fn BatchFunc) (Watch, error) {
	head, err := p.source.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	w := &watch{
		id:     uuid.NewString(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go p.run(ctx, w, query, head+1, fn)
	return w, nil
}

// run is the poll loop. It owns the firing schedule: a firing only begins at
// a tick, and the next tick is armed after the callback for the current one
// has returned. Stop and context cancellation are observed between firings
// only.
func (p *Poller) run(ctx context.Context, w *watch, query ethereum.FilterQuery, fromBlock uint64, fn BatchFunc) {
	defer close(w.done)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for fired := uint64(0); fired < p.limit; fired++ {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-timer.C:
		}

		logs, next, err := p.collect(ctx, query, fromBlock)
		if err != nil {
			// The firing still happens, with an empty batch, so that it
			// counts toward the limit.
			logger.Warn(ctx, "log fetch failed",
				"watch.id", w.id,
				"from_block", fromBlock,
				"error", err,
			)
		} else {
			fromBlock = next
		}

		fn(ctx, logs)
		timer.Reset(p.interval)
	}
}

// collect fetches the logs matching query in the block range [fromBlock,
// head]. It returns the batch and the next fromBlock to resume from. When no
// new block has been produced the batch is empty and fromBlock is unchanged.
func (p *Poller) collect(ctx context.Context, query ethereum.FilterQuery, fromBlock uint64) ([]types.Log, uint64, error) {
	head, err := p.source.BlockNumber(ctx)
	if err != nil {
		return nil, 0, err
	}

	if head < fromBlock {
		return nil, fromBlock, nil
	}

	query.FromBlock = new(big.Int).SetUint64(fromBlock)
	query.ToBlock = new(big.Int).SetUint64(head)

	logs, err := p.source.FilterLogs(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	if p.maxLogs > 0 && len(logs) > p.maxLogs {
		logs = logs[:p.maxLogs]
	}

	return logs, head + 1, nil
}
