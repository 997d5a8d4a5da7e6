package evm

import (
	"crypto/ecdsa"
	"strings"

	"github.com/RegisGraptin/whalewatch/internal/minter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds the secp256k1 signing key for the minting account.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ minter.Wallet = (*Wallet)(nil)

// NewWallet parses a hex-encoded private key, with or without the 0x prefix,
// and derives the account address from it.
func NewWallet(hexKey string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, err
	}

	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account address derived from the signing key.
func (w *Wallet) Address() common.Address {
	return w.address
}
