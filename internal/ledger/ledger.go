// Package ledger computes the cash balance and keeps debtor balances and the
// transaction history consistent.
//
// Every function here is pure: it takes snapshots and returns new ones
// without mutating its inputs. Persisting the result is the caller's job.
package ledger

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"caixa/internal/core"
)

// Engine carries the two impure inputs of the ledger, id generation and the
// clock, so that everything else stays deterministic under test.
type Engine struct {
	NewID func() string
	Now   func() time.Time
}

// New returns an Engine using random UUIDs and the wall clock.
func New() Engine {
	return Engine{NewID: uuid.NewString, Now: time.Now}
}

// DebtorUpdate is the outcome of a debtor amount edit. Debtors and
// Transactions must be committed together.
type DebtorUpdate struct {
	Debtors      []core.Debtor
	Transactions []core.Transaction
	// Synthetic is the compensating transaction, nil when the amount did not
	// change or the debtor was not found.
	Synthetic *core.Transaction
	Found     bool
	Previous  core.Money
	Current   core.Money
}

// ComputeBalance returns initial plus the sum of every transaction amount.
func ComputeBalance(initial core.Money, txs []core.Transaction) core.Money {
	balance := initial
	for _, t := range txs {
		balance = balance.Add(t.Amount)
	}
	return balance
}

// AddTransaction assigns a fresh id to in and prepends it, newest first.
// The amount sign is not checked against the type.
func (e Engine) AddTransaction(txs []core.Transaction, in core.TransactionInput) ([]core.Transaction, core.Transaction) {
	t := core.Transaction{
		ID:          e.NewID(),
		Date:        in.Date,
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
	}
	out := make([]core.Transaction, 0, len(txs)+1)
	out = append(out, t)
	out = append(out, txs...)
	return out, t
}

// DeleteTransaction removes the transaction with the given id. An unknown id
// yields the same elements in the same order.
func DeleteTransaction(txs []core.Transaction, id string) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// ClampDebt floors a requested debtor amount at zero.
func ClampDebt(m core.Money) core.Money {
	if m.IsNegative() {
		return core.Zero
	}
	return m
}

// UpdateDebtorAmount sets the debtor's amount and synthesizes the
// compensating cash movement: a lower debt means cash came in, a higher one
// means goods left on credit.
//
// Unknown ids and unchanged amounts are silent no-ops that return the input
// collections untouched.
func (e Engine) UpdateDebtorAmount(debtors []core.Debtor, txs []core.Transaction, id string, newAmount core.Money) DebtorUpdate {
	res := DebtorUpdate{Debtors: debtors, Transactions: txs}

	idx := slices.IndexFunc(debtors, func(d core.Debtor) bool { return d.ID == id })
	if idx < 0 {
		return res
	}
	res.Found = true

	d := debtors[idx]
	newAmount = ClampDebt(newAmount)
	res.Previous, res.Current = d.Amount, newAmount

	difference := d.Amount.Sub(newAmount)
	if difference.IsZero() {
		return res
	}

	in := core.TransactionInput{
		Date:   core.DateOf(e.Now()),
		Amount: difference,
	}
	if difference.IsPositive() {
		in.Type = core.Entrada
		in.Category = core.CategoryDebtorPayment
		in.Description = "Recebimento parcial/total de " + d.Name
	} else {
		in.Type = core.Saida
		in.Category = core.CategoryDebtIncrease
		in.Description = "Novo fornecimento fiado para " + d.Name
	}

	updated := slices.Clone(debtors)
	updated[idx].Amount = newAmount
	res.Debtors = updated

	var synthetic core.Transaction
	res.Transactions, synthetic = e.AddTransaction(txs, in)
	res.Synthetic = &synthetic
	return res
}

// TotalReceivable sums what all debtors owe.
func TotalReceivable(debtors []core.Debtor) core.Money {
	total := core.Zero
	for _, d := range debtors {
		total = total.Add(d.Amount)
	}
	return total
}

// PendingDebtors counts debtors that still owe something.
func PendingDebtors(debtors []core.Debtor) int {
	n := 0
	for _, d := range debtors {
		if !d.Settled() {
			n++
		}
	}
	return n
}
