package config

import (
	"math/big"
	"testing"
	"time"

	"github.com/RegisGraptin/whalewatch/internal/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("WHALEWATCH_WATCH_RPC_ENDPOINT", "https://mainnet.base.org")
	t.Setenv("WHALEWATCH_MINT_RPC_ENDPOINT", "https://rpc.sepolia.org")
	t.Setenv("WHALEWATCH_PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe512961708279df95b4a2200ba33f22")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.TelemetryEnabled)
		assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", cfg.TokenContract)
		assert.Equal(t, "0x63A0bfd6a5cdCF446ae12135E2CD86b908659568", cfg.WhaleContract)
		assert.Equal(t, uint64(11155111), cfg.ChainID)
		assert.Equal(t, 10*time.Second, cfg.PollInterval)
		assert.Equal(t, uint64(3), cfg.PollLimit)
		assert.Equal(t, "1000000", cfg.ValueThreshold)
		assert.Zero(t, cfg.MaxLogsPerPoll)
		assert.Empty(t, cfg.RedisAddr)
	})

	t.Run("overrides from the environment", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEWATCH_POLL_LIMIT", "10")
		t.Setenv("WHALEWATCH_POLL_INTERVAL", "2s")
		t.Setenv("WHALEWATCH_VALUE_THRESHOLD", "5000000000000000000")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, uint64(10), cfg.PollLimit)
		assert.Equal(t, 2*time.Second, cfg.PollInterval)
		assert.Equal(t, "5000000000000000000", cfg.ValueThreshold)
	})

	t.Run("fails without the watch endpoint", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEWATCH_WATCH_RPC_ENDPOINT", "")

		_, err := Load()
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("fails without the signing key", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEWATCH_PRIVATE_KEY", "")

		_, err := Load()
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("fails on a malformed contract address", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEWATCH_TOKEN_CONTRACT", "not-an-address")

		_, err := Load()
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("fails on a non-numeric threshold", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEWATCH_VALUE_THRESHOLD", "a lot")

		_, err := Load()
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("fails on a zero poll limit", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("WHALEWATCH_POLL_LIMIT", "0")

		_, err := Load()
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})
}

func TestThreshold(t *testing.T) {
	t.Run("parses values wider than 64 bits", func(t *testing.T) {
		cfg := Config{ValueThreshold: "100000000000000000000000"}

		v, err := cfg.Threshold()
		require.NoError(t, err)

		want, _ := new(big.Int).SetString("100000000000000000000000", 10)
		assert.Zero(t, v.Cmp(want))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		cfg := Config{ValueThreshold: "1.5"}

		_, err := cfg.Threshold()
		assert.Error(t, err)
	})
}
