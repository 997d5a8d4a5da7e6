package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RegisGraptin/whalewatch/internal/config"
	"github.com/RegisGraptin/whalewatch/internal/handlers/cli"
	"github.com/RegisGraptin/whalewatch/internal/infra/evm"
	"github.com/RegisGraptin/whalewatch/internal/infra/storage/redis"
	"github.com/RegisGraptin/whalewatch/internal/logpoll"
	"github.com/RegisGraptin/whalewatch/internal/minter"
	"github.com/RegisGraptin/whalewatch/internal/pkg/logger"
	"github.com/RegisGraptin/whalewatch/internal/pkg/resilience/retry"
	"github.com/RegisGraptin/whalewatch/internal/pkg/telemetry"
	"github.com/RegisGraptin/whalewatch/internal/whalewatch"

	"github.com/ethereum/go-ethereum/common"
)

const serviceName = "whalewatch"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Telemetry comes up before the logger so the log bridge can attach.
	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			fmt.Fprintln(os.Stderr, "telemetry:", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	threshold, err := cfg.Threshold()
	if err != nil {
		logger.Fatal(ctx, "invalid configuration", "error", err)
	}

	wallet, err := evm.NewWallet(cfg.PrivateKey)
	if err != nil {
		logger.Fatal(ctx, "invalid signing key", "error", err)
	}

	// RPC endpoints may still be coming up when the process starts.
	dialRetry := retry.New(
		retry.WithAttempts(5),
		retry.WithDelay(time.Second),
		retry.WithMaxDelay(10*time.Second),
	)

	var watchClient *evm.Client
	err = dialRetry.Execute(ctx, func() error {
		var err error
		watchClient, err = evm.NewClient(ctx, cfg.WatchRPCEndpoint)
		return err
	})
	if err != nil {
		logger.Fatal(ctx, "dialing watch rpc endpoint failed", "error", err)
	}
	defer watchClient.Close()

	var mintClient *evm.Client
	err = dialRetry.Execute(ctx, func() error {
		var err error
		mintClient, err = evm.NewClient(ctx, cfg.MintRPCEndpoint)
		return err
	})
	if err != nil {
		logger.Fatal(ctx, "dialing mint rpc endpoint failed", "error", err)
	}
	defer mintClient.Close()

	token, err := evm.NewWhaleToken(mintClient, wallet, common.HexToAddress(cfg.WhaleContract), cfg.ChainID)
	if err != nil {
		logger.Fatal(ctx, "binding whale token contract failed", "error", err)
	}

	poller := logpoll.New(watchClient,
		logpoll.WithPollInterval(cfg.PollInterval),
		logpoll.WithPollLimit(cfg.PollLimit),
		logpoll.WithMaxLogsPerPoll(cfg.MaxLogsPerPoll),
	)

	watchOpts := []whalewatch.Option{
		whalewatch.WithThreshold(threshold),
		whalewatch.WithPollLimit(cfg.PollLimit),
	}

	if cfg.RedisAddr != "" {
		var guard whalewatch.IdempotencyGuard
		err = dialRetry.Execute(ctx, func() error {
			c, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			guard = c
			return nil
		})
		if err != nil {
			logger.Fatal(ctx, "connecting to redis failed", "error", err)
		}
		watchOpts = append(watchOpts, whalewatch.WithIdempotencyGuard(guard))
	}

	ww := whalewatch.New(
		common.HexToAddress(cfg.TokenContract),
		poller,
		minter.New(wallet, token, mintClient, mintClient),
		watchOpts...,
	)

	if err := cli.Run(ctx, ww); err != nil {
		logger.Fatal(ctx, "whalewatch exited with error", "error", err)
	}
}
