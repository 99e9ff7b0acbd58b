package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"finpulse/internal/amqp"
	"finpulse/internal/bankdata"
	"finpulse/internal/cli"
	"finpulse/internal/log"
	"finpulse/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting finpulse-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	provider, err := bankdata.NewProvider(bankdata.FactoryConfig{
		Type:        bankdata.ProviderType(cfg.DataProvider),
		FixturesDir: cfg.FixturesDir,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize bank data provider", log.FieldError, err)
		os.Exit(1)
	}
	if provider == nil {
		logger.Error("Worker needs a bank data provider", "provider", cfg.DataProvider)
		os.Exit(1)
	}

	store := cli.OpenSnapshotStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker runs in its own process, so stale snapshots are refreshed
	// inline rather than re-published to the queue it consumes.
	syncWorker := worker.NewSyncWorker(store, provider, nil, nil, cfg.StaleAfter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeSnapshotRefresh(ctx, func(msg *amqp.SnapshotRefreshMessage) error {
			return syncWorker.HandleRefreshMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		return syncWorker.RunStaleScan(ctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
