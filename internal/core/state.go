package core

import "slices"

// State holds the three stored collections. Transactions are ordered newest
// first; sales are in insertion order. Derived values never live here.
type State struct {
	Transactions []Transaction
	Debtors      []Debtor
	Sales        []SaleRecord
}

// SeedState is the state of a fresh installation.
func SeedState() State {
	return State{
		Transactions: []Transaction{},
		Debtors:      SeedDebtors(),
		Sales:        []SaleRecord{},
	}
}

// Clone returns a copy that shares no slice storage with s.
func (s State) Clone() State {
	return State{
		Transactions: cloneOrEmpty(s.Transactions),
		Debtors:      cloneOrEmpty(s.Debtors),
		Sales:        cloneOrEmpty(s.Sales),
	}
}

func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
