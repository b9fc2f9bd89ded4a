// Package report derives the read-only aggregates shown on the dashboard.
// Nothing computed here is ever persisted.
package report

import (
	"fmt"
	"strings"
	"time"

	"caixa/internal/core"
	"caixa/internal/ledger"
	"caixa/internal/profit"
)

// CashFlowDays is the width of the dashboard cash-flow chart.
const CashFlowDays = 7

// CashFlowDay is one bar pair of the cash-flow chart.
type CashFlowDay struct {
	Date    core.Date  `json:"date"`
	Label   string     `json:"label"`
	Inflow  core.Money `json:"inflow"`
	Outflow core.Money `json:"outflow"`
}

// Summary is the dashboard aggregate.
type Summary struct {
	Balance            core.Money             `json:"balance"`
	EmergencyReserve   core.Money             `json:"emergencyReserve"`
	TotalReceivable    core.Money             `json:"totalReceivable"`
	EstimatedProfit    core.Money             `json:"estimatedProfit"`
	TransactionCount   int                    `json:"transactionCount"`
	DebtorsPending     int                    `json:"debtorsPending"`
	CashFlow           []CashFlowDay          `json:"cashFlow"`
	ProfitDistribution []profit.ProductProfit `json:"profitDistribution"`
}

// CashFlow buckets transactions into the last days calendar days, today
// included, oldest first. A transaction belongs to a day when its date equals
// that day exactly. Outflow is reported as a positive amount.
func CashFlow(txs []core.Transaction, today time.Time, days int) []CashFlowDay {
	if days <= 0 {
		return []CashFlowDay{}
	}
	out := make([]CashFlowDay, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := core.DateOf(today.AddDate(0, 0, i-days+1))
		out[i] = CashFlowDay{
			Date:    d,
			Label:   d.Format("02/01"),
			Inflow:  core.Zero,
			Outflow: core.Zero,
		}
		index[d.String()] = i
	}

	outflows := make([]core.Money, days)
	for _, t := range txs {
		i, ok := index[t.Date.String()]
		if !ok {
			continue
		}
		switch t.Type {
		case core.Entrada:
			out[i].Inflow = out[i].Inflow.Add(t.Amount)
		case core.Saida:
			outflows[i] = outflows[i].Add(t.Amount)
		}
	}
	for i := range out {
		out[i].Outflow = outflows[i].Abs()
	}
	return out
}

// ProfitDistribution returns the catalog products with a positive profit, in
// catalog order.
func ProfitDistribution(records []core.SaleRecord, catalog core.Catalog) []profit.ProductProfit {
	out := []profit.ProductProfit{}
	for _, pp := range profit.Breakdown(records, catalog) {
		if pp.Profit.IsPositive() {
			out = append(out, pp)
		}
	}
	return out
}

// Summarize computes every dashboard value from a state snapshot.
func Summarize(state core.State, settings core.Settings, catalog core.Catalog, today time.Time) Summary {
	return Summary{
		Balance:            ledger.ComputeBalance(settings.InitialBalance, state.Transactions),
		EmergencyReserve:   settings.EmergencyReserve,
		TotalReceivable:    ledger.TotalReceivable(state.Debtors),
		EstimatedProfit:    profit.TotalProfit(state.Sales, catalog),
		TransactionCount:   len(state.Transactions),
		DebtorsPending:     ledger.PendingDebtors(state.Debtors),
		CashFlow:           CashFlow(state.Transactions, today, CashFlowDays),
		ProfitDistribution: ProfitDistribution(state.Sales, catalog),
	}
}

// Markdown renders a summary as a markdown document for terminal output.
func Markdown(s Summary) string {
	var b strings.Builder

	b.WriteString("# Resumo Operacional\n\n")
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Caixa Disponível | %s |\n", s.Balance.Display())
	fmt.Fprintf(&b, "| Reserva Emergência | %s |\n", s.EmergencyReserve.Display())
	fmt.Fprintf(&b, "| Total a Receber | %s |\n", s.TotalReceivable.Display())
	fmt.Fprintf(&b, "| Lucro Estimado Total | %s |\n", s.EstimatedProfit.Display())

	b.WriteString("\n## Fluxo de Caixa (Últimos 7 Dias)\n\n")
	b.WriteString("| Dia | Entradas | Saídas |\n|---|---:|---:|\n")
	for _, d := range s.CashFlow {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Label, d.Inflow.Display(), d.Outflow.Display())
	}

	b.WriteString("\n## Distribuição de Lucro por Produto\n\n")
	if len(s.ProfitDistribution) == 0 {
		b.WriteString("_Nenhuma venda registrada._\n")
		return b.String()
	}
	b.WriteString("| Produto | Qtd | Lucro |\n|---|---:|---:|\n")
	for _, p := range s.ProfitDistribution {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", p.Name, p.Quantity, p.Profit.Display())
	}
	return b.String()
}
