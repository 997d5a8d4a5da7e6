package whalewatch

import (
	"context"
	"errors"

	"github.com/RegisGraptin/whalewatch/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrAlreadyProcessed is returned by an IdempotencyGuard when the transfer
// log has already been claimed, typically because the node re-delivered it.
var ErrAlreadyProcessed = errors.New("transfer already processed")

// IdempotencyGuard claims a transfer log before the watch reacts to it, so
// that a re-delivered log does not trigger a second mint. Implementations are
// expected to key on the (transaction hash, log index) pair, which uniquely
// identifies a log on chain.
type IdempotencyGuard interface {
	// ClaimTransfer reserves the given transfer log for processing. It
	// returns ErrAlreadyProcessed when the log was claimed before.
	ClaimTransfer(ctx context.Context, txHash common.Hash, logIndex uint) error
}

// nopGuard claims everything. Used when no guard storage is configured.
type nopGuard struct{}

func (nopGuard) ClaimTransfer(context.Context, common.Hash, uint) error { return nil }

// handleBatch is the poll callback. It processes every entry of the batch in
// chain order and then commits the completed firing, which is what counts
// toward the poll limit: a decode or mint failure inside the batch never
// prevents the firing from completing.
func (s *service) handleBatch(ctx context.Context, logs []types.Log) {
	for _, entry := range logs {
		s.processEntry(ctx, entry)
	}

	s.completePoll(ctx)
}

// processEntry decodes, filters, and reacts to a single log entry. Failures
// are isolated to the entry: an undecodable log is skipped, and a failed mint
// leaves the already-appended record in place.
func (s *service) processEntry(ctx context.Context, entry types.Log) {
	event, err := decodeTransfer(entry)
	if err != nil {
		logger.Warn(ctx, "skipping undecodable log entry",
			"tx.hash", entry.TxHash.Hex(),
			"log.index", entry.Index,
			"error", err,
		)
		return
	}

	// Strictly greater: an amount equal to the threshold does not qualify.
	if event.Value.Cmp(s.threshold) <= 0 {
		return
	}

	if err := s.guard.ClaimTransfer(ctx, entry.TxHash, entry.Index); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			logger.Debug(ctx, "transfer already handled, skipping",
				"tx.hash", entry.TxHash.Hex(),
				"log.index", entry.Index,
			)
			return
		}

		// A broken guard must not suppress the reaction; at worst we mint
		// twice for a re-delivered log.
		logger.Warn(ctx, "idempotency claim failed, processing anyway",
			"tx.hash", entry.TxHash.Hex(),
			"log.index", entry.Index,
			"error", err,
		)
	}

	s.appendRecord(event.record())

	// Issuance is observed before the next entry is handled; its failure
	// does not remove the record appended above.
	if _, err := s.minter.Mint(ctx, event.From); err != nil {
		logger.Error(ctx, "mint failed for qualifying transfer",
			"tx.hash", entry.TxHash.Hex(),
			"sender", event.From.Hex(),
			"value", event.Value.String(),
			"error", err,
		)
	}
}

func (s *service) appendRecord(record string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
}

// completePoll commits one finished firing. Once the configured limit is
// reached the watch handle is cleared, transitioning the service to idle
// without an explicit stop. The handle may already be gone when an external
// stop raced the firing; the count still advances.
func (s *service) completePoll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollCount++

	if s.pollCount >= s.pollLimit && s.watch != nil {
		s.watch.Stop()
		s.watch = nil

		logger.Info(ctx, "poll limit reached, watch finished",
			"poll.count", s.pollCount,
			"records", len(s.records),
		)
	}
}
