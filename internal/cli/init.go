// Package cli provides common CLI initialization utilities.
// It consolidates the start-up sequence shared by cmd/caixa,
// cmd/caixa-reporter and cmd/caixactl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"caixa/internal/amqp"
	"caixa/internal/backend"
	"caixa/internal/config"
	"caixa/internal/log"
	"caixa/internal/services"
	"caixa/internal/storage"
)

// SetupLogger initializes structured logging at the given level and makes it
// the process default.
func SetupLogger(level, component string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Ledger bundles an opened ledger service with the resources behind it.
type Ledger struct {
	Service *services.LedgerService
	// Pinger is the store when it supports health checks, nil otherwise.
	Pinger backend.Pinger
	// Ephemeral is set when the store lives only as long as the process.
	Ephemeral bool
	cleanup   []func() error
}

// Close releases the publisher and the store, in that order.
func (l *Ledger) Close() error {
	var errs []error
	for i := len(l.cleanup) - 1; i >= 0; i-- {
		if err := l.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenLedger opens the configured store and loads the ledger from it. A nil
// publisher disables summary publication.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, publisher services.SummaryPublisher) (*Ledger, error) {
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, err
	}

	l := &Ledger{Ephemeral: backendConfig.Type == backend.MemoryBackend}
	if result.Cleanup != nil {
		l.cleanup = append(l.cleanup, result.Cleanup)
	}
	if p, ok := result.Store.(backend.Pinger); ok {
		l.Pinger = p
	}

	settings := cfg.Settings()
	repo := storage.NewStateRepository(result.Store, cfg.StorageNamespace, logger)
	svc, err := services.NewLedgerService(ctx, repo, services.Options{
		Settings:  &settings,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l.Service = svc
	l.cleanup = append(l.cleanup, svc.Close)
	return l, nil
}

// NewSummaryClient connects to the broker when AMQP_URL is set. It returns
// nil, nil when the summary feed is disabled.
func NewSummaryClient(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return client, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("Shutdown requested")
		}
	}()
	return ctx, stop
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}
