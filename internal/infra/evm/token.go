package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/RegisGraptin/whalewatch/internal/minter"
	"github.com/RegisGraptin/whalewatch/internal/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// whaleTokenABI covers the single contract method the watcher calls.
const whaleTokenABI = `[{"inputs":[{"internalType":"address","name":"to","type":"address"}],"name":"newWhale","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// defaultMintGasLimit is used when gas estimation fails, generous enough for
// an ERC-721 mint with storage writes.
const defaultMintGasLimit = 300_000

// WhaleToken submits signed newWhale calls against the token contract.
type WhaleToken struct {
	client   *Client
	wallet   *Wallet
	contract common.Address
	chainID  *big.Int
	abi      abi.ABI
}

var _ minter.TokenContract = (*WhaleToken)(nil)

// NewWhaleToken binds the token contract at the given address on the given
// chain, using wallet as the signing identity and client for submission.
func NewWhaleToken(client *Client, wallet *Wallet, contract common.Address, chainID uint64) (*WhaleToken, error) {
	parsed, err := abi.JSON(strings.NewReader(whaleTokenABI))
	if err != nil {
		return nil, fmt.Errorf("parsing whale token abi: %w", err)
	}

	return &WhaleToken{
		client:   client,
		wallet:   wallet,
		contract: contract,
		chainID:  new(big.Int).SetUint64(chainID),
		abi:      parsed,
	}, nil
}

// Mint signs and submits a newWhale(target) call stamped with the given
// nonce, returning the hash of the submitted transaction.
func (t *WhaleToken) Mint(ctx context.Context, nonce uint64, target common.Address) (common.Hash, error) {
	data, err := t.abi.Pack("newWhale", target)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing newWhale call: %w", err)
	}

	gasTipCap, err := t.client.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggesting gas tip cap: %w", err)
	}

	head, err := t.client.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetching chain head: %w", err)
	}

	// feeCap = 2*baseFee + tip survives the base fee doubling across a few
	// blocks while the transaction is pending.
	gasFeeCap := new(big.Int).Add(
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
		gasTipCap,
	)

	gasLimit, err := t.client.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: t.wallet.Address(),
		To:   &t.contract,
		Data: data,
	})
	if err != nil {
		logger.Warn(ctx, "gas estimation failed, using default limit",
			"contract", t.contract.Hex(),
			"gas.limit", defaultMintGasLimit,
			"error", err,
		)
		gasLimit = defaultMintGasLimit
	}

	tx, err := types.SignNewTx(t.wallet.key, types.LatestSignerForChainID(t.chainID), &types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &t.contract,
		Data:      data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing mint transaction: %w", err)
	}

	if err := t.client.eth.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}

	return tx.Hash(), nil
}
