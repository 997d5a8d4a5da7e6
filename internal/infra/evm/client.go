// Package evm implements the chain-facing collaborators on top of
// go-ethereum's RPC and ethclient stacks: log filtering for the poller,
// account and transaction lookups for the minter, and the signed mint call
// against the whale token contract. HTTP transport retries are handled below
// the RPC layer by retryablehttp.
package evm

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRetryMax       = 3
	defaultRetryWaitMin   = 500 * time.Millisecond
	defaultRetryWaitMax   = 5 * time.Second
)

// Client is a connection to one JSON-RPC endpoint. The watch and mint sides
// of the application each hold their own Client, so the two endpoints can
// point at different networks.
type Client struct {
	eth *ethclient.Client
	rpc *rpc.Client
}

type config struct {
	requestTimeout time.Duration
	retryMax       int
	retryWaitMin   time.Duration
	retryWaitMax   time.Duration
}

// Option customizes the RPC connection.
type Option func(*config)

// WithRequestTimeout caps the total time of a single HTTP request, retries
// included.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config) {
		c.requestTimeout = d
	}
}

// WithRetryMax sets how many times a failed HTTP request is retried before
// the error surfaces to the RPC layer.
func WithRetryMax(n int) Option {
	return func(c *config) {
		c.retryMax = n
	}
}

// WithRetryWait bounds the backoff between HTTP retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *config) {
		c.retryWaitMin = min
		c.retryWaitMax = max
	}
}

// newHTTPClient builds the retrying HTTP client handed to the RPC dialer.
func newHTTPClient(cfg config) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.retryMax
	rc.RetryWaitMin = cfg.retryWaitMin
	rc.RetryWaitMax = cfg.retryWaitMax
	rc.Logger = nil

	httpClient := rc.StandardClient()
	httpClient.Timeout = cfg.requestTimeout
	return httpClient
}

// NewClient dials the given HTTP JSON-RPC endpoint. Transient transport
// failures are retried with backoff inside the HTTP client, so callers above
// the RPC layer never retry themselves.
func NewClient(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	cfg := config{
		requestTimeout: defaultRequestTimeout,
		retryMax:       defaultRetryMax,
		retryWaitMin:   defaultRetryWaitMin,
		retryWaitMax:   defaultRetryWaitMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(newHTTPClient(cfg)))
	if err != nil {
		return nil, err
	}

	return &Client{
		eth: ethclient.NewClient(conn),
		rpc: conn,
	}, nil
}

// Close tears down the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}
