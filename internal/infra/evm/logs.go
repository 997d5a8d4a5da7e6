package evm

import (
	"context"

	"github.com/RegisGraptin/whalewatch/internal/logpoll"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// FilterLogs returns the log entries matching the query via eth_getLogs.
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return c.eth.FilterLogs(ctx, query)
}

// BlockNumber returns the current chain head number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

var _ logpoll.LogSource = (*Client)(nil)
