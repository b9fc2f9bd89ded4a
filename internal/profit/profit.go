// Package profit estimates profit from logged sales and the product catalog.
// It never reads or changes the cash ledger.
package profit

import (
	"time"

	"caixa/internal/core"
)

// ProductProfit is the aggregated profit of one product.
type ProductProfit struct {
	ProductID string     `json:"productId"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	Profit    core.Money `json:"profit"`
}

// ProfitForProduct sums the quantity sold of productID and multiplies it by
// the catalog profit per unit. Products missing from the catalog earn zero.
func ProfitForProduct(records []core.SaleRecord, catalog core.Catalog, productID string) ProductProfit {
	pp := ProductProfit{ProductID: productID, Profit: core.Zero}
	for _, r := range records {
		if r.ProductID == productID {
			pp.Quantity += r.Quantity
		}
	}
	if p, ok := catalog.Product(productID); ok {
		pp.Name = p.Name
		pp.Profit = p.ProfitPerUnit.Mul(pp.Quantity)
	}
	return pp
}

// TotalProfit sums ProfitForProduct over every product appearing in records.
func TotalProfit(records []core.SaleRecord, catalog core.Catalog) core.Money {
	total := core.Zero
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		total = total.Add(ProfitForProduct(records, catalog, r.ProductID).Profit)
	}
	return total
}

// RecordSale appends a sale. Non-positive quantities are rejected and the
// records are returned unchanged with ok false.
func RecordSale(records []core.SaleRecord, productID string, quantity int, date time.Time) (out []core.SaleRecord, ok bool) {
	if quantity <= 0 {
		return records, false
	}
	out = make([]core.SaleRecord, 0, len(records)+1)
	out = append(out, records...)
	out = append(out, core.SaleRecord{ProductID: productID, Quantity: quantity, Date: date})
	return out, true
}

// Breakdown returns the profit of every catalog product, in catalog order.
func Breakdown(records []core.SaleRecord, catalog core.Catalog) []ProductProfit {
	out := make([]ProductProfit, 0, len(catalog.Products))
	for _, p := range catalog.Products {
		out = append(out, ProfitForProduct(records, catalog, p.ID))
	}
	return out
}
