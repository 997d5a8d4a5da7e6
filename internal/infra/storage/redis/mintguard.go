package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/RegisGraptin/whalewatch/internal/whalewatch"

	"github.com/ethereum/go-ethereum/common"
)

// transferClaimTTL bounds how long a claim is remembered. Re-deliveries of
// the same log happen within a watch, never days later, so claims may expire.
const transferClaimTTL = 24 * time.Hour

// transferClaimKey builds the key for one transfer log. The (transaction
// hash, log index) pair uniquely identifies a log on chain.
func transferClaimKey(txHash common.Hash, logIndex uint) string {
	return fmt.Sprintf("whalewatch:transfer:%s:%d", txHash.Hex(), logIndex)
}

// ClaimTransfer reserves a transfer log for processing via SETNX. A second
// claim for the same log within the TTL fails with ErrAlreadyProcessed.
func (c *client) ClaimTransfer(ctx context.Context, txHash common.Hash, logIndex uint) error {
	ok, err := c.conn.SetNX(ctx, transferClaimKey(txHash, logIndex), "", transferClaimTTL).Result()
	if err != nil {
		return err
	}

	if !ok {
		return whalewatch.ErrAlreadyProcessed
	}

	return nil
}

var _ whalewatch.IdempotencyGuard = new(client)
