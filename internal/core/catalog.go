package core

import "slices"

// Categories synthesized by debtor updates.
const (
	CategoryDebtorPayment = "Recebimento de Devedor"
	CategoryDebtIncrease  = "Aumento de Dívida"
)

// Catalog is the static configuration the ledger reads: the category list
// per transaction type and the product price/profit table.
type Catalog struct {
	Categories map[TransactionType][]string
	Products   []Product
}

// DefaultCatalog returns the business catalog. Profits are computed with
// garlic at R$ 16,00/kg.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: map[TransactionType][]string{
			Entrada: {"Saldo Anterior", "Taxa", "Venda Alho", "Venda Tempero", CategoryDebtorPayment},
			Saida: {
				"Adesivo", "Vivo", "VIAGEM", "UBER", "TEMPERO", "SEM PARAR", "SALÁRIO", "SACOLA",
				"POTE 500G", "POTE 250G", "OUTROS", "NUBANK", "MERCADO", "MC DONALDS",
				"LUVA PARA O ALHO", "ITEM PARA TEMPERO", "GASOLINA", "FUNCIONÁRIO",
				"DIVULGAÇÃO", "DIARISTA", "DAS", "CONVENIO", "CONTA DE LUZ", "CONTA DE AGUA",
				"CLARI", "CARTAO WILLIAM", "CARTAO FERNANDA", "APP", CategoryDebtIncrease,
			},
		},
		Products: []Product{
			{ID: "p500", Name: "Pote de 500g", SellingPrice: NewMoney(26), ProfitPerUnit: NewMoney(15.76)},
			{ID: "p250", Name: "Pote de 250g", SellingPrice: NewMoney(15), ProfitPerUnit: NewMoney(9.27)},
			{ID: "rev17", Name: "Revenda", SellingPrice: NewMoney(17), ProfitPerUnit: NewMoney(8.16)},
			{ID: "rev19", Name: "Revenda", SellingPrice: NewMoney(19.50), ProfitPerUnit: NewMoney(9.85)},
			{ID: "temp_temp", Name: "Tempero Temperado", SellingPrice: NewMoney(17), ProfitPerUnit: NewMoney(12.65)},
			{ID: "temp_comp", Name: "Tempero Completo", SellingPrice: NewMoney(18), ProfitPerUnit: NewMoney(14.25)},
			{ID: "temp_bacon", Name: "Tempero de Bacon", SellingPrice: NewMoney(19), ProfitPerUnit: NewMoney(13.65)},
		},
	}
}

// Product looks a product up by id. Callers must handle the absent case.
func (c Catalog) Product(id string) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CategoriesFor returns a copy of the categories allowed for t.
func (c Catalog) CategoriesFor(t TransactionType) []string {
	return slices.Clone(c.Categories[t])
}

// HasCategory reports whether cat belongs to the catalog for t.
func (c Catalog) HasCategory(t TransactionType, cat string) bool {
	return slices.Contains(c.Categories[t], cat)
}

// SeedDebtors returns the debtors used when no stored list exists.
func SeedDebtors() []Debtor {
	return []Debtor{
		{ID: "d1", Name: "ALESSANDRO REVENDA", Amount: NewMoney(390)},
		{ID: "d2", Name: "MIDIAN", Amount: NewMoney(115)},
		{ID: "d3", Name: "DALILA TAIPAS", Amount: NewMoney(55)},
	}
}

// Settings are the fixed amounts the ledger is configured with. The
// emergency reserve is shown next to the balance and never computed with.
type Settings struct {
	InitialBalance   Money
	EmergencyReserve Money
}

// DefaultSettings returns the opening balance and reserve of the business.
func DefaultSettings() Settings {
	return Settings{InitialBalance: NewMoney(-300), EmergencyReserve: NewMoney(2300)}
}
