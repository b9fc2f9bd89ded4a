package profit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caixa/internal/core"
	"caixa/internal/ledger"
)

var when = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestProfitForProduct(t *testing.T) {
	catalog := core.Catalog{Products: []core.Product{{ID: "x", Name: "X", ProfitPerUnit: core.NewMoney(10)}}}
	records := []core.SaleRecord{{ProductID: "x", Quantity: 3}}

	pp := ProfitForProduct(records, catalog, "x")
	assert.Equal(t, 3, pp.Quantity)
	assert.Equal(t, "30.00", pp.Profit.String())
	assert.Equal(t, "30.00", TotalProfit(records, catalog).String())
}

func TestUnknownProductContributesZero(t *testing.T) {
	catalog := core.Catalog{Products: []core.Product{{ID: "x", ProfitPerUnit: core.NewMoney(10)}}}
	records := []core.SaleRecord{{ProductID: "ghost", Quantity: 4}, {ProductID: "x", Quantity: 1}}

	pp := ProfitForProduct(records, catalog, "ghost")
	assert.Equal(t, 4, pp.Quantity)
	assert.True(t, pp.Profit.IsZero())
	assert.Equal(t, "10.00", TotalProfit(records, catalog).String())
}

func TestTotalProfitCountsEachProductOnce(t *testing.T) {
	catalog := core.DefaultCatalog()
	records := []core.SaleRecord{
		{ProductID: "p500", Quantity: 2},
		{ProductID: "p250", Quantity: 1},
		{ProductID: "p500", Quantity: 3},
	}
	// 5 * 15.76 + 9.27
	assert.Equal(t, "88.07", TotalProfit(records, catalog).String())
}

func TestRecordSale(t *testing.T) {
	records, ok := RecordSale(nil, "p500", 10, when)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, core.SaleRecord{ProductID: "p500", Quantity: 10, Date: when}, records[0])

	for _, q := range []int{0, -1} {
		out, ok := RecordSale(records, "p500", q, when)
		assert.False(t, ok)
		assert.Equal(t, records, out)
	}

	more, ok := RecordSale(records, "p250", 1, when)
	require.True(t, ok)
	assert.Len(t, more, 2)
	assert.Len(t, records, 1, "input must not be mutated")
}

func TestSaleDoesNotAffectBalance(t *testing.T) {
	catalog := core.DefaultCatalog()
	var txs []core.Transaction
	before := ledger.ComputeBalance(core.NewMoney(-300), txs)

	records, ok := RecordSale(nil, "p500", 10, when)
	require.True(t, ok)

	assert.Equal(t, "157.60", TotalProfit(records, catalog).String())
	assert.True(t, before.Equal(ledger.ComputeBalance(core.NewMoney(-300), txs)))
}

func TestBreakdown(t *testing.T) {
	catalog := core.DefaultCatalog()
	records := []core.SaleRecord{{ProductID: "temp_bacon", Quantity: 2}}

	rows := Breakdown(records, catalog)
	require.Len(t, rows, len(catalog.Products))
	assert.Equal(t, "p500", rows[0].ProductID)
	assert.True(t, rows[0].Profit.IsZero())
	last := rows[len(rows)-1]
	assert.Equal(t, "Tempero de Bacon", last.Name)
	assert.Equal(t, "27.30", last.Profit.String())
}
