package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"caixa/internal/amqp"
	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/log"
	"caixa/internal/profit"
	"caixa/internal/report"
)

// StateStore loads and saves the whole ledger state.
type StateStore interface {
	Load(ctx context.Context) (core.State, error)
	Save(ctx context.Context, state core.State) error
}

// SummaryPublisher announces committed changes to downstream consumers.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, msg *amqp.SummaryMessage) error
}

// Options configures a LedgerService. Zero values select the defaults.
type Options struct {
	Catalog   *core.Catalog
	Settings  *core.Settings
	Engine    *ledger.Engine
	Publisher SummaryPublisher
	Logger    *log.Logger
	Now       func() time.Time
}

// Stats counts service activity since start.
type Stats struct {
	Mutations       uint64
	PersistFailures uint64
	PublishFailures uint64
}

// DebtorChange reports the outcome of UpdateDebtorAmount.
type DebtorChange struct {
	Found     bool
	Previous  core.Money
	Current   core.Money
	Synthetic *core.Transaction
}

// LedgerService is the only writer of the ledger state. Each mutation runs
// a pure ledger operation on the current snapshot, swaps the result in and
// saves all collections in one write. Saving is best-effort: on failure the
// in-memory snapshot stays authoritative and the next successful save
// catches the store up.
type LedgerService struct {
	mu      sync.RWMutex
	state   core.State
	version uint64

	store     StateStore
	publisher SummaryPublisher
	engine    ledger.Engine
	catalog   core.Catalog
	settings  core.Settings
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time

	mutations       atomic.Uint64
	persistFailures atomic.Uint64
	publishFailures atomic.Uint64
}

// NewLedgerService loads the stored state and returns a ready service.
func NewLedgerService(ctx context.Context, store StateStore, opts Options) (*LedgerService, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}

	s := &LedgerService{
		store:     store,
		publisher: opts.Publisher,
		engine:    ledger.New(),
		catalog:   core.DefaultCatalog(),
		settings:  core.DefaultSettings(),
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if opts.Catalog != nil {
		s.catalog = *opts.Catalog
	}
	if opts.Settings != nil {
		s.settings = *opts.Settings
	}
	if opts.Engine != nil {
		s.engine = *opts.Engine
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	if s.now == nil {
		s.now = time.Now
	}

	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	s.state = state.Clone()

	s.logger.InfoContext(ctx, "Ledger loaded",
		"transactions", len(s.state.Transactions),
		"debtors", len(s.state.Debtors),
		"sales", len(s.state.Sales),
		log.FieldBalance, ledger.ComputeBalance(s.settings.InitialBalance, s.state.Transactions).String())
	return s, nil
}

func (s *LedgerService) Catalog() core.Catalog   { return s.catalog }
func (s *LedgerService) Settings() core.Settings { return s.settings }

// Snapshot returns a copy of the current state and its version. The version
// increases with every committed change.
func (s *LedgerService) Snapshot() (core.State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), s.version
}

func (s *LedgerService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Balance is the current cash balance.
func (s *LedgerService) Balance() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.ComputeBalance(s.settings.InitialBalance, s.state.Transactions)
}

// Summary computes the dashboard aggregate for today.
func (s *LedgerService) Summary() (report.Summary, uint64) {
	state, version := s.Snapshot()
	return report.Summarize(state, s.settings, s.catalog, s.now()), version
}

// ProfitBreakdown returns the per-product profit table and its total.
func (s *LedgerService) ProfitBreakdown() ([]profit.ProductProfit, core.Money) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return profit.Breakdown(s.state.Sales, s.catalog), profit.TotalProfit(s.state.Sales, s.catalog)
}

func (s *LedgerService) Stats() Stats {
	return Stats{
		Mutations:       s.mutations.Load(),
		PersistFailures: s.persistFailures.Load(),
		PublishFailures: s.publishFailures.Load(),
	}
}

// AddTransaction validates a user-entered transaction against the catalog,
// normalises its sign to the type and records it.
func (s *LedgerService) AddTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(s.catalog); err != nil {
		return core.Transaction{}, err
	}
	in.Amount = core.SignedAmount(in.Type, in.Amount)

	var added core.Transaction
	s.commit(ctx, log.OpAddTransaction, amqp.EventTransactionAdded, func(st *core.State) bool {
		st.Transactions, added = s.engine.AddTransaction(st.Transactions, in)
		return true
	})

	s.events.LogMutation(ctx, log.OpAddTransaction, log.NewFields().
		WithTransaction(added.ID, string(added.Type), added.Category, added.Amount.String()))
	return added, nil
}

// DeleteTransaction removes a transaction. It reports false when no
// transaction has that id, in which case nothing is written.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) bool {
	removed := s.commit(ctx, log.OpDeleteTransaction, amqp.EventTransactionDeleted, func(st *core.State) bool {
		next := ledger.DeleteTransaction(st.Transactions, id)
		if len(next) == len(st.Transactions) {
			return false
		}
		st.Transactions = next
		return true
	})
	if removed {
		s.events.LogMutation(ctx, log.OpDeleteTransaction, log.NewFields().WithTransaction(id, "", "", ""))
	}
	return removed
}

// UpdateDebtorAmount sets a debtor's amount, recording the compensating
// transaction. Debtor and transaction lists are committed together. Unknown
// ids and unchanged amounts write nothing.
func (s *LedgerService) UpdateDebtorAmount(ctx context.Context, id string, amount core.Money) DebtorChange {
	var change DebtorChange
	s.commit(ctx, log.OpUpdateDebtor, amqp.EventDebtorUpdated, func(st *core.State) bool {
		res := s.engine.UpdateDebtorAmount(st.Debtors, st.Transactions, id, amount)
		change = DebtorChange{Found: res.Found, Previous: res.Previous, Current: res.Current, Synthetic: res.Synthetic}
		if res.Synthetic == nil {
			return false
		}
		st.Debtors, st.Transactions = res.Debtors, res.Transactions
		return true
	})

	switch {
	case !change.Found:
		s.logger.DebugContext(ctx, "Debtor not found, update ignored", log.FieldDebtorID, id)
	case change.Synthetic != nil:
		t := change.Synthetic
		s.events.LogMutation(ctx, log.OpUpdateDebtor, log.NewFields().
			WithTransaction(t.ID, string(t.Type), t.Category, t.Amount.String()))
	}
	return change
}

// RecordSale logs quantity units of productID sold at date (now when zero).
// Products missing from the catalog are recorded and earn nothing.
func (s *LedgerService) RecordSale(ctx context.Context, productID string, quantity int, date time.Time) error {
	if quantity <= 0 {
		return core.ErrInvalidQuantity
	}
	if date.IsZero() {
		date = s.now()
	}
	if _, known := s.catalog.Product(productID); !known {
		s.logger.WarnContext(ctx, "Sale of product outside the catalog", log.FieldProductID, productID)
	}

	s.commit(ctx, log.OpRecordSale, amqp.EventSaleRecorded, func(st *core.State) bool {
		var ok bool
		st.Sales, ok = profit.RecordSale(st.Sales, productID, quantity, date)
		return ok
	})
	s.events.LogMutation(ctx, log.OpRecordSale, log.NewFields().With(log.FieldProductID, productID).With(log.FieldQuantity, quantity))
	return nil
}

// commit applies mutate to a copy of the state under the write lock. When
// mutate reports a change the copy replaces the state and is saved; the
// summary is then published outside the lock.
func (s *LedgerService) commit(ctx context.Context, op, event string, mutate func(*core.State) bool) bool {
	s.mu.Lock()
	next := s.state
	if !mutate(&next) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.version++
	snapshot := s.state.Clone()

	if err := s.store.Save(ctx, snapshot); err != nil {
		s.persistFailures.Add(1)
		s.events.LogError(ctx, "Failed to persist ledger state", err, op, log.NewFields().
			With("version", s.version))
	}
	s.mu.Unlock()

	s.mutations.Add(1)
	s.publish(ctx, event, snapshot)
	return true
}

func (s *LedgerService) publish(ctx context.Context, event string, state core.State) {
	if s.publisher == nil {
		return
	}
	summary := report.Summarize(state, s.settings, s.catalog, s.now())
	if err := s.publisher.PublishSummary(ctx, amqp.NewSummaryMessage(event, summary)); err != nil {
		s.publishFailures.Add(1)
		s.logger.WarnContext(ctx, "Failed to publish ledger summary", log.FieldEvent, event, log.FieldError, err)
	}
}

// Close releases the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
