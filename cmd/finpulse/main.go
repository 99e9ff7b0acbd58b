package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/bankdata"
	"finpulse/internal/cli"
	"finpulse/internal/engine"
	apphttp "finpulse/internal/http"
	"finpulse/internal/log"
	"finpulse/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenSnapshotStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	provider, err := bankdata.NewProvider(bankdata.FactoryConfig{
		Type:        bankdata.ProviderType(cfg.DataProvider),
		FixturesDir: cfg.FixturesDir,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize bank data provider", log.FieldError, err)
		os.Exit(1)
	}

	// The AMQP publisher is optional: without it refresh requests run
	// inline against the provider.
	var publisher services.RefreshPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, refreshes will run inline", log.FieldError, err)
	} else {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	eng := engine.New(cfg.EngineParams())
	svc := services.NewMetricsService(store, provider, publisher, eng, logger)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting finpulse server", "port", cfg.Port, "provider", cfg.DataProvider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
