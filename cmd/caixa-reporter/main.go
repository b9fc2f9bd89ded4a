// Command caixa-reporter consumes the ledger summary feed, logs every
// summary it receives and prints a digest on shutdown.
package main

import (
	"context"
	"errors"

	"caixa/internal/cli"
	"caixa/internal/log"
	"caixa/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger("info", log.ComponentReporter, nil), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentReporter, nil)

	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "Reporter needs a broker", errors.New("AMQP_URL is not set"))
	}
	client, err := cli.NewSummaryClient(cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	logger.Info("Starting caixa-reporter", "queue", cfg.AMQPQueue)
	w := worker.NewSummaryWorker(logger)
	err = client.ConsumeSummaries(ctx, w.HandleSummary)
	w.LogDigest(context.WithoutCancel(ctx))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return
	}
	logger.Info("Reporter stopped")
}
