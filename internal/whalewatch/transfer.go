package whalewatch

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransferEventSignature is the ERC-20 transfer event the watch filters on.
const TransferEventSignature = "Transfer(address,address,uint256)"

// TransferTopic is the keccak256 hash of TransferEventSignature, i.e. the
// topic0 value of every ERC-20 transfer log.
var TransferTopic = crypto.Keccak256Hash([]byte(TransferEventSignature))

// ErrNotTransferEvent is returned when a log entry does not have the shape of
// an ERC-20 transfer event.
var ErrNotTransferEvent = errors.New("log entry is not an ERC-20 transfer event")

// TransferEvent is a decoded ERC-20 transfer log. It is consumed immediately
// during batch processing and never persisted.
type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// decodeTransfer decodes a raw log entry into a TransferEvent. Both address
// parameters of the event are indexed, so they arrive as topics 1 and 2; the
// value is the single 32-byte data word.
func decodeTransfer(entry types.Log) (TransferEvent, error) {
	if len(entry.Topics) != 3 || entry.Topics[0] != TransferTopic {
		return TransferEvent{}, ErrNotTransferEvent
	}

	if len(entry.Data) != common.HashLength {
		return TransferEvent{}, fmt.Errorf("%w: unexpected data length %d", ErrNotTransferEvent, len(entry.Data))
	}

	return TransferEvent{
		From:  common.BytesToAddress(entry.Topics[1].Bytes()),
		To:    common.BytesToAddress(entry.Topics[2].Bytes()),
		Value: new(big.Int).SetBytes(entry.Data),
	}, nil
}

// record formats the event for the watch log: short sender and recipient with
// the raw transferred amount.
func (e TransferEvent) record() string {
	return fmt.Sprintf("%s -> %s, value: %s", shortAddress(e.From), shortAddress(e.To), e.Value)
}

// shortAddress renders an address as its first 3 and last 3 hex characters,
// e.g. "0x833...913".
func shortAddress(addr common.Address) string {
	hex := addr.Hex()
	return fmt.Sprintf("0x%s...%s", hex[2:5], hex[len(hex)-3:])
}
