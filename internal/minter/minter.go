// Package minter issues the follow-up mint transaction for a qualifying
// transfer. It serializes dependent submissions behind a locally cached
// account nonce so that several mints triggered in rapid succession do not
// collide before any of them confirms.
package minter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RegisGraptin/whalewatch/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrTransactionSendFailed is returned when the mint submission is
	// rejected by the chain. No nonce was consumed; the cache is untouched.
	ErrTransactionSendFailed = errors.New("transaction send failed")

	// ErrTransactionLookupFailed is returned when a submitted transaction
	// cannot be found by its hash. The cache is left untouched; the
	// inconsistency is surfaced to the caller rather than corrected here.
	ErrTransactionLookupFailed = errors.New("transaction lookup failed")
)

// Wallet yields the signing identity's address. Key construction and custody
// live behind this interface.
type Wallet interface {
	Address() common.Address
}

// TokenContract submits a nonce-stamped mint call for the configured token
// and returns the hash of the submitted transaction. ABI encoding, gas
// pricing, chain id stamping, and signing all live behind this interface.
type TokenContract interface {
	Mint(ctx context.Context, nonce uint64, target common.Address) (common.Hash, error)
}

// TransactionReader looks up a submitted transaction by hash. found is false
// when the node does not know the transaction.
type TransactionReader interface {
	TransactionNonce(ctx context.Context, hash common.Hash) (nonce uint64, found bool, err error)
}

// NonceSource reports the current on-chain transaction count for an account.
type NonceSource interface {
	TransactionCount(ctx context.Context, account common.Address) (uint64, error)
}

// Service mints the whale token to a target address.
type Service interface {
	// Mint submits one mint transaction to the target address and returns a
	// human-readable description of it. Returns ErrTransactionSendFailed or
	// ErrTransactionLookupFailed on the corresponding failure.
	Mint(ctx context.Context, target common.Address) (string, error)
}

type service struct {
	mu sync.Mutex

	wallet      Wallet
	token       TokenContract
	txReader    TransactionReader
	nonceSource NonceSource

	nonces *NonceCache
}

var _ Service = (*service)(nil)

// New creates a minter service. The nonce cache starts empty; the first mint
// queries the chain for the account's transaction count.
func New(w Wallet, t TokenContract, tr TransactionReader, ns NonceSource) *service {
	return &service{
		wallet:      w,
		token:       t,
		txReader:    tr,
		nonceSource: ns,
		nonces:      NewNonceCache(),
	}
}

// Mint issues a single mint transaction to target.
//
// The nonce comes from the cache when present, otherwise from the chain's
// transaction count for the signing account. A failed count query degrades to
// nonce 0 rather than aborting the mint: availability over correctness, on
// the theory that a wrong nonce is rejected by the node while a refused mint
// is silently lost.
//
// Mint holds an internal lock for its full duration so that dependent
// submissions commit to the cache strictly in order.
func (s *service) Mint(ctx context.Context, target common.Address) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.wallet.Address()

	nonce, ok := s.nonces.PeekNext()
	if !ok {
		count, err := s.nonceSource.TransactionCount(ctx, from)
		if err != nil {
			logger.Warn(ctx, "transaction count query failed, falling back to nonce 0",
				"account", from.Hex(),
				"error", err,
			)
			count = 0
		}
		nonce = count
	}

	hash, err := s.token.Mint(ctx, nonce, target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSendFailed, err)
	}

	confirmed, found, err := s.txReader.TransactionNonce(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionLookupFailed, err)
	}
	if !found {
		return "", ErrTransactionLookupFailed
	}

	s.nonces.Advance(confirmed)

	logger.Info(ctx, "whale token minted",
		"tx.hash", hash.Hex(),
		"tx.nonce", confirmed,
		"target", target.Hex(),
	)

	return fmt.Sprintf("minted whale token to %s in tx %s (nonce %d)", target.Hex(), hash.Hex(), confirmed), nil
}
