package evm

import (
	"context"
	"errors"

	"github.com/RegisGraptin/whalewatch/internal/minter"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// TransactionCount returns the account's confirmed transaction count at the
// latest block, which is also the next unused nonce.
func (c *Client) TransactionCount(ctx context.Context, account common.Address) (uint64, error) {
	return c.eth.NonceAt(ctx, account, nil)
}

// TransactionNonce looks up a transaction by hash and returns its nonce.
// found is false when the node does not know the hash; that is not an error.
func (c *Client) TransactionNonce(ctx context.Context, hash common.Hash) (uint64, bool, error) {
	tx, _, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	return tx.Nonce(), true, nil
}

var (
	_ minter.NonceSource       = (*Client)(nil)
	_ minter.TransactionReader = (*Client)(nil)
)
