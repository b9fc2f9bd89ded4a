package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caixa/internal/core"
	"caixa/internal/storage"
	"caixa/internal/storage/memory"
)

func sampleState() core.State {
	state := core.SeedState()
	state.Transactions = []core.Transaction{
		{ID: "tx-2", Date: core.NewDate(2026, 10, 18), Type: core.Saida, Category: "UBER", Description: "corrida", Amount: core.MustParseMoney("-23.45")},
		{ID: "tx-1", Date: core.NewDate(2026, 10, 17), Type: core.Entrada, Category: "Venda Alho", Description: "feira", Amount: core.MustParseMoney("500")},
	}
	state.Debtors[1].Amount = core.Zero
	state.Sales = []core.SaleRecord{{ProductID: "p500", Quantity: 10, Date: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)}}
	return state
}

func assertStateEqual(t *testing.T, want, got core.State) {
	t.Helper()
	require.Len(t, got.Transactions, len(want.Transactions))
	for i := range want.Transactions {
		w, g := want.Transactions[i], got.Transactions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Date.String(), g.Date.String())
		assert.Equal(t, w.Type, g.Type)
		assert.Equal(t, w.Category, g.Category)
		assert.Equal(t, w.Description, g.Description)
		assert.True(t, w.Amount.Equal(g.Amount), "amount %s != %s", w.Amount, g.Amount)
	}
	require.Len(t, got.Debtors, len(want.Debtors))
	for i := range want.Debtors {
		assert.Equal(t, want.Debtors[i].ID, got.Debtors[i].ID)
		assert.Equal(t, want.Debtors[i].Name, got.Debtors[i].Name)
		assert.True(t, want.Debtors[i].Amount.Equal(got.Debtors[i].Amount))
	}
	require.Len(t, got.Sales, len(want.Sales))
	for i := range want.Sales {
		assert.Equal(t, want.Sales[i].ProductID, got.Sales[i].ProductID)
		assert.Equal(t, want.Sales[i].Quantity, got.Sales[i].Quantity)
		assert.True(t, want.Sales[i].Date.Equal(got.Sales[i].Date))
	}
}

func TestLoadEmptyStoreReturnsSeed(t *testing.T) {
	repo := storage.NewStateRepository(memory.New(), "", nil)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Transactions)
	assert.Empty(t, state.Sales)
	assertStateEqual(t, core.SeedState(), state)
}

func TestSaveLoadRoundTripMemory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := storage.NewStateRepository(store, "", nil)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))
	assert.Equal(t, []string{
		"alho_e_so_v6_final_debtors",
		"alho_e_so_v6_final_sales",
		"alho_e_so_v6_final_transactions",
	}, store.Keys())

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assertStateEqual(t, want, got)
}

func TestLoadFallsBackPerSlot(t *testing.T) {
	store := memory.NewWithSlots(map[string][]byte{
		"ns_transactions": []byte(`[{"id":"a","date":"2026-10-18","type":"ENTRADA","category":"Taxa","description":"","amount":12.5}]`),
		"ns_debtors":      []byte(`{not json`),
		"ns_sales":        []byte(`null`),
	})
	repo := storage.NewStateRepository(store, "ns", nil)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, "12.50", state.Transactions[0].Amount.String())
	assertStateEqual(t, core.State{Transactions: state.Transactions, Debtors: core.SeedDebtors(), Sales: []core.SaleRecord{}}, state)
}

func TestLoadReadsOriginalSlotFormat(t *testing.T) {
	store := memory.NewWithSlots(map[string][]byte{
		"alho_e_so_v6_final_transactions": []byte(`[{"id":"1729","date":"2024-10-18","type":"SAIDA","category":"UBER","description":"x","amount":-23.45}]`),
		"alho_e_so_v6_final_sales":        []byte(`[{"productId":"p250","quantity":2,"date":"2024-10-18T12:34:56.000Z"}]`),
	})
	repo := storage.NewStateRepository(store, "", nil)

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, "2024-10-18", state.Transactions[0].Date.String())
	assert.Equal(t, "-23.45", state.Transactions[0].Amount.String())
	require.Len(t, state.Sales, 1)
	assert.Equal(t, 2, state.Sales[0].Quantity)
	assert.Len(t, state.Debtors, 3)
}

type failingStore struct{ *memory.Store }

func (*failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestLoadUnreadableStoreReturnsSeed(t *testing.T) {
	repo := storage.NewStateRepository(&failingStore{Store: memory.New()}, "", nil)
	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assertStateEqual(t, core.SeedState(), state)
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := storage.NewStateRepository(memory.New(), "", nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveWriteFailure(t *testing.T) {
	store := memory.New()
	store.FailWrites(errors.New("quota exceeded"))
	err := storage.NewStateRepository(store, "", nil).Save(context.Background(), sampleState())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestSaveLoadRoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "caixa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repo := storage.NewStateRepository(store, "", nil)
	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	// Second save overwrites instead of duplicating.
	want.Transactions = want.Transactions[:1]
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assertStateEqual(t, want, got)
	require.NoError(t, store.Ping(ctx))
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "caixa.db")

	store, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.PutAll(ctx, map[string][]byte{"k": []byte(`[1]`)}))
	require.NoError(t, store.Close())

	store, err = storage.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(v))

	_, ok, err = store.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}
