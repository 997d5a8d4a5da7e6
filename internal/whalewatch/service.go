// Package whalewatch owns the watch lifecycle: it starts and stops the
// bounded transfer-log poll, decodes and filters each delivered batch, keeps
// the human-readable record of qualifying transfers, and triggers a mint for
// each of them.
package whalewatch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/RegisGraptin/whalewatch/internal/logpoll"
	"github.com/RegisGraptin/whalewatch/internal/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAlreadyWatching is returned by StartWatch while a watch is active.
	ErrAlreadyWatching = errors.New("already watching for logs")

	// ErrNoActiveWatch is returned by StopWatch when no watch is active.
	ErrNoActiveWatch = errors.New("no active watch to stop")
)

const defaultPollLimit = 3

// defaultThreshold is the transfer amount, in base units, a transfer must
// strictly exceed to qualify.
var defaultThreshold = big.NewInt(1_000_000)

// Minter issues the follow-up mint transaction for a qualifying transfer.
type Minter interface {
	Mint(ctx context.Context, target common.Address) (string, error)
}

// LogWatcher starts a bounded, cancellable repeating poll over a log filter.
// Implemented by logpoll.Poller.
type LogWatcher interface {
	WatchLogs(ctx context.Context, query ethereum.FilterQuery, fn logpoll.BatchFunc) (logpoll.Watch, error)
}

// Service exposes the watch lifecycle and its status.
type Service interface {
	// StartWatch clears previous records, resets the poll count, and begins
	// a new bounded watch. Returns ErrAlreadyWatching if one is active.
	StartWatch(ctx context.Context) (string, error)

	// StopWatch cancels the active watch before it reaches its poll limit.
	// Returns ErrNoActiveWatch if none is active.
	StopWatch() (string, error)

	// IsPolling reports whether a watch is currently active.
	IsPolling() bool

	// PollCount returns the number of completed poll firings since the
	// current watch started.
	PollCount() uint64

	// Logs returns a snapshot of the qualifying transfer records collected
	// by the current watch, in arrival order.
	Logs() []string
}

type service struct {
	mu        sync.Mutex
	watch     logpoll.Watch
	pollCount uint64
	records   []string

	poller LogWatcher
	minter Minter
	guard  IdempotencyGuard

	token     common.Address
	threshold *big.Int
	pollLimit uint64
}

var _ Service = (*service)(nil)

type config struct {
	threshold *big.Int
	pollLimit uint64
	guard     IdempotencyGuard
}

// Option customizes the watch service.
type Option func(*config)

// New creates the watch service for the given token contract. The poll limit
// passed via WithPollLimit must match the limit the LogWatcher was built
// with, since both sides terminate the watch at that count.
func New(token common.Address, poller LogWatcher, m Minter, opts ...Option) *service {
	cfg := config{
		threshold: defaultThreshold,
		pollLimit: defaultPollLimit,
		guard:     nopGuard{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		poller:    poller,
		minter:    m,
		guard:     cfg.guard,
		token:     token,
		threshold: cfg.threshold,
		pollLimit: cfg.pollLimit,
	}
}

// WithThreshold sets the amount, in base units, a transfer must strictly
// exceed to qualify.
func WithThreshold(t *big.Int) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithPollLimit sets the number of poll firings after which the watch
// finishes on its own.
func WithPollLimit(n uint64) Option {
	return func(c *config) {
		c.pollLimit = n
	}
}

// WithIdempotencyGuard installs a guard that deduplicates re-delivered
// transfer logs.
func WithIdempotencyGuard(g IdempotencyGuard) Option {
	return func(c *config) {
		c.guard = g
	}
}

func (s *service) StartWatch(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watch != nil {
		return "", ErrAlreadyWatching
	}

	// A new watch starts from a clean slate.
	s.records = nil
	s.pollCount = 0

	query := ethereum.FilterQuery{
		Addresses: []common.Address{s.token},
		Topics:    [][]common.Hash{{TransferTopic}},
	}

	watch, err := s.poller.WatchLogs(ctx, query, s.handleBatch)
	if err != nil {
		return "", err
	}
	s.watch = watch

	logger.Info(ctx, "watch started",
		"watch.id", watch.ID(),
		"token", s.token.Hex(),
		"poll.limit", s.pollLimit,
	)

	return fmt.Sprintf("watching for transfer logs, polling %d times", s.pollLimit), nil
}

func (s *service) StopWatch() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watch == nil {
		return "", ErrNoActiveWatch
	}

	s.watch.Stop()
	s.watch = nil

	return "stopped watching for transfer logs", nil
}

func (s *service) IsPolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.watch != nil
}

func (s *service) PollCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pollCount
}

func (s *service) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.records))
	copy(out, s.records)
	return out
}
