package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"caixa/internal/core"
	"caixa/internal/log"
)

// DefaultNamespace prefixes the slot keys of a fresh installation.
const DefaultNamespace = "alho_e_so_v6_final"

// Slot keys are "<namespace>_<suffix>".
const (
	slotTransactions = "transactions"
	slotDebtors      = "debtors"
	slotSales        = "sales"
)

// StateRepository stores core.State as three JSON slots.
type StateRepository struct {
	store     SlotStore
	namespace string
	logger    *log.Logger
}

// NewStateRepository creates a repository over store. An empty namespace
// selects DefaultNamespace.
func NewStateRepository(store SlotStore, namespace string, logger *log.Logger) *StateRepository {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &StateRepository{
		store:     store,
		namespace: namespace,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

// Key returns the full slot key for suffix.
func (r *StateRepository) Key(suffix string) string {
	return r.namespace + "_" + suffix
}

// Load reads the three slots. A slot that is missing, unreadable or holds
// invalid JSON falls back to its seed value independently of the others, so
// Load only fails when ctx is done.
func (r *StateRepository) Load(ctx context.Context) (core.State, error) {
	seed := core.SeedState()
	state := core.State{
		Transactions: loadSlot(ctx, r, slotTransactions, seed.Transactions),
		Debtors:      loadSlot(ctx, r, slotDebtors, seed.Debtors),
		Sales:        loadSlot(ctx, r, slotSales, seed.Sales),
	}
	if err := ctx.Err(); err != nil {
		return core.State{}, err
	}
	return state, nil
}

func loadSlot[T any](ctx context.Context, r *StateRepository, suffix string, seed []T) []T {
	key := r.Key(suffix)
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "Slot unreadable, using seed", log.FieldSlot, key, log.FieldError, err)
		return seed
	}
	if !ok {
		r.logger.DebugContext(ctx, "Slot empty, using seed", log.FieldSlot, key)
		return seed
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		r.logger.WarnContext(ctx, "Slot corrupt, using seed", log.FieldSlot, key, log.FieldError, err)
		return seed
	}
	if out == nil {
		return seed
	}
	return out
}

// Save replaces all three slots in one write.
func (r *StateRepository) Save(ctx context.Context, state core.State) error {
	entries := make(map[string][]byte, 3)
	for suffix, v := range map[string]any{
		slotTransactions: nonNil(state.Transactions),
		slotDebtors:      nonNil(state.Debtors),
		slotSales:        nonNil(state.Sales),
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", suffix, err)
		}
		entries[r.Key(suffix)] = raw
	}

	if err := r.store.PutAll(ctx, entries); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
