package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentLedger})

	assert.Same(t, logger, logger.WithComponent(ComponentLedger))

	storage := logger.WithComponent(ComponentStorage)
	assert.Equal(t, ComponentStorage, storage.Component())
	storage.Info("saved")
	assert.Contains(t, buf.String(), "component=storage")
}

func TestFromContext(t *testing.T) {
	logger := Discard().With(FieldRequestID, "req_1")
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	r := httptest.NewRequest("POST", "/api/transactions?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, 422, 3, "10.0.0.1")
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status_code=422")
	assert.Contains(t, out, "client_ip=10.0.0.1")

	buf.Reset()
	sl.LogMutation(context.Background(), OpAddTransaction, NewFields().WithTransaction("tx1", "SAIDA", "UBER", "-12.00"))
	assert.Contains(t, buf.String(), "operation=add_transaction")
	assert.Contains(t, buf.String(), "transaction_id=tx1")

	buf.Reset()
	sl.LogError(context.Background(), "Persist failed", errors.New("disk full"), OpRecordSale, nil)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `error="disk full"`)
}
