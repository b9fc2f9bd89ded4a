package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"caixa/internal/cli"
	apphttp "caixa/internal/http"
	"caixa/internal/log"
	"caixa/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger("info", log.ComponentApp, nil), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp, nil)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	var publisher services.SummaryPublisher
	client, err := cli.NewSummaryClient(cfg, logger)
	switch {
	case err != nil:
		// The feed is optional: the ledger keeps working without it.
		logger.Warn("Summary feed unavailable, continuing without it", log.FieldError, err)
	case client != nil:
		publisher = client
		logger.Info("Summary feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	ledger, err := cli.OpenLedger(ctx, cfg, logger, publisher)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		cli.Fatal(logger, "Failed to open ledger", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to release ledger resources", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger.Service, apphttp.Options{
		Logger:          logger,
		Pinger:          ledger.Pinger,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting caixa server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return
	}
	logger.Info("Server stopped gracefully")
}
