// Package config loads the application configuration from WHALEWATCH_*
// environment variables and validates it before anything is wired up.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/RegisGraptin/whalewatch/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full application configuration. The watch and mint sides use
// separate RPC endpoints so the observed token and the minted token can live
// on different networks.
type Config struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	WatchRPCEndpoint string `envconfig:"WATCH_RPC_ENDPOINT" validate:"required,url"`
	MintRPCEndpoint  string `envconfig:"MINT_RPC_ENDPOINT" validate:"required,url"`

	TokenContract string `envconfig:"TOKEN_CONTRACT" default:"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913" validate:"required,eth_addr"`
	WhaleContract string `envconfig:"WHALE_CONTRACT" default:"0x63A0bfd6a5cdCF446ae12135E2CD86b908659568" validate:"required,eth_addr"`
	ChainID       uint64 `envconfig:"CHAIN_ID" default:"11155111" validate:"required"`
	PrivateKey    string `envconfig:"PRIVATE_KEY" validate:"required"`

	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"10s" validate:"required"`
	PollLimit      uint64        `envconfig:"POLL_LIMIT" default:"3" validate:"required,min=1"`
	ValueThreshold string        `envconfig:"VALUE_THRESHOLD" default:"1000000" validate:"required,number"`
	MaxLogsPerPoll int           `envconfig:"MAX_LOGS_PER_POLL" default:"0"`

	// RedisAddr is optional; when empty the mint idempotency guard is
	// disabled and re-delivered logs may trigger duplicate mints.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("whalewatch", &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Threshold parses the configured transfer amount threshold as a base-10
// integer. Amounts are raw token base units, so values can exceed 64 bits.
func (c Config) Threshold() (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.ValueThreshold, 10)
	if !ok {
		return nil, fmt.Errorf("invalid value threshold %q", c.ValueThreshold)
	}
	return v, nil
}
