package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"caixa/internal/amqp"
	"caixa/internal/core"
	"caixa/internal/log"
)

var errNilSummary = errors.New("nil summary message")

// SummaryWorker consumes ledger summaries published by the server and the
// CLI. It keeps the latest summary and per-event counters so the reporter
// can print a digest on shutdown.
type SummaryWorker struct {
	logger *log.Logger

	mu       sync.Mutex
	received int
	stale    int
	byEvent  map[string]int
	last     *amqp.SummaryMessage
}

func NewSummaryWorker(logger *log.Logger) *SummaryWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SummaryWorker{
		logger:  logger.WithComponent(log.ComponentReporter),
		byEvent: make(map[string]int),
	}
}

// Stats is a point-in-time digest of what the worker has seen.
type Stats struct {
	Received int
	Stale    int
	ByEvent  map[string]int
	Last     *amqp.SummaryMessage
}

// HandleSummary processes a single summary message from AMQP. Messages older
// than the last one seen are counted and dropped; they are never an error,
// since a requeue would only deliver them again.
func (w *SummaryWorker) HandleSummary(ctx context.Context, msg *amqp.SummaryMessage) error {
	if msg == nil {
		return errNilSummary
	}

	w.mu.Lock()
	w.received++
	if w.last != nil && msg.Timestamp.Before(w.last.Timestamp) {
		w.stale++
		w.mu.Unlock()
		w.logger.WarnContext(ctx, "Dropping out-of-order summary",
			log.FieldEvent, msg.Event,
			"published_at", msg.Timestamp.Format(time.RFC3339Nano))
		return nil
	}
	previous := w.last
	copied := *msg
	w.last = &copied
	w.byEvent[msg.Event]++
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Ledger summary",
		log.FieldEvent, msg.Event,
		log.FieldBalance, msg.Balance.String(),
		"total_receivable", msg.TotalReceivable.String(),
		"estimated_profit", msg.EstimatedProfit.String(),
		"transactions", msg.TransactionCount,
		"published_at", msg.Timestamp.Format(time.RFC3339))

	if crossedBelowZero(previous, msg.Balance) {
		w.logger.WarnContext(ctx, "Balance turned negative",
			log.FieldBalance, msg.Balance.Display(),
			log.FieldEvent, msg.Event)
	}
	return nil
}

func crossedBelowZero(previous *amqp.SummaryMessage, balance core.Money) bool {
	if !balance.IsNegative() {
		return false
	}
	return previous == nil || !previous.Balance.IsNegative()
}

// Stats returns a copy of the counters.
func (w *SummaryWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	byEvent := make(map[string]int, len(w.byEvent))
	for k, v := range w.byEvent {
		byEvent[k] = v
	}
	var last *amqp.SummaryMessage
	if w.last != nil {
		copied := *w.last
		last = &copied
	}
	return Stats{Received: w.received, Stale: w.stale, ByEvent: byEvent, Last: last}
}

// LogDigest writes the counters collected so far.
func (w *SummaryWorker) LogDigest(ctx context.Context) {
	st := w.Stats()
	args := []any{"received", st.Received, "stale", st.Stale}
	for _, ev := range []string{amqp.EventTransactionAdded, amqp.EventTransactionDeleted, amqp.EventDebtorUpdated, amqp.EventSaleRecorded} {
		args = append(args, ev, st.ByEvent[ev])
	}
	if st.Last != nil {
		args = append(args, log.FieldBalance, st.Last.Balance.String())
	}
	w.logger.InfoContext(ctx, "Summary digest", args...)
}
