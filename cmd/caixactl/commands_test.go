package main

import (
	"bytes"
	"context"
	"flag"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caixa/internal/cli"
	"caixa/internal/config"
	"caixa/internal/core"
	"caixa/internal/log"
)

// newTestEnv shares one in-memory ledger across command runs.
func newTestEnv(t *testing.T) (*env, *bytes.Buffer, *cli.Ledger) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")

	l, err := cli.OpenLedger(context.Background(), config.Load(), log.Discard(), nil)
	require.NoError(t, err)
	// The ledger outlives every command run here, so changes are kept.
	l.Ephemeral = false

	var out bytes.Buffer
	return &env{
		out:  &out,
		open: func(context.Context) (*cli.Ledger, error) { return l, nil },
	}, &out, l
}

func execute(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return cmd.Execute(context.Background(), f)
}

func TestBalance(t *testing.T) {
	e, out, _ := newTestEnv(t)

	assert.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{env: e}))
	assert.Contains(t, out.String(), "Caixa disponível")
	assert.Contains(t, out.String(), "(3 devedores)")
}

func TestMutatingCommandsRefuseMemoryBackend(t *testing.T) {
	e, out, l := newTestEnv(t)
	l.Ephemeral = true

	cases := []struct {
		cmd  subcommands.Command
		args []string
	}{
		{&addCmd{env: e}, []string{"-type", "saida", "-category", "UBER", "-amount", "10", "-date", "2026-10-18"}},
		{&rmCmd{env: e}, []string{"tx-1"}},
		{&debtorCmd{env: e}, []string{"-id", "d1", "-amount", "0"}},
		{&saleCmd{env: e}, []string{"-product", "p500", "-qty", "1"}},
	}
	for _, tc := range cases {
		out.Reset()
		assert.Equal(t, subcommands.ExitFailure, execute(t, tc.cmd, tc.args...), tc.cmd.Name())
		assert.Contains(t, out.String(), "DATA_BACKEND=memory keeps nothing between runs", tc.cmd.Name())
	}

	st, version := l.Service.Snapshot()
	assert.Empty(t, st.Transactions)
	assert.Empty(t, st.Sales)
	assert.Zero(t, version)

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, execute(t, &balanceCmd{env: e}))
	assert.Equal(t, subcommands.ExitSuccess, execute(t, &debtorCmd{env: e}))
}

func TestAddAndRemove(t *testing.T) {
	e, out, l := newTestEnv(t)

	status := execute(t, &addCmd{env: e}, "-type", "saida", "-category", "GASOLINA", "-amount", "120,50", "-date", "2026-10-18")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "-420.50", l.Service.Balance().String())

	st, _ := l.Service.Snapshot()
	require.Len(t, st.Transactions, 1)
	id := st.Transactions[0].ID

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, execute(t, &rmCmd{env: e}, id, "missing"))
	assert.Contains(t, out.String(), "deleted "+id)
	assert.Contains(t, out.String(), "not found missing")
	assert.Equal(t, "-300.00", l.Service.Balance().String())
}

func TestAddRejectsBadInput(t *testing.T) {
	e, _, l := newTestEnv(t)

	assert.Equal(t, subcommands.ExitUsageError, execute(t, &addCmd{env: e}, "-type", "SAIDA", "-category", "DAS", "-amount", "x"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &addCmd{env: e}, "-type", "OTHER", "-category", "DAS", "-amount", "1"))
	assert.Equal(t, subcommands.ExitFailure, execute(t, &addCmd{env: e}, "-type", "ENTRADA", "-category", "DAS", "-amount", "1"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &rmCmd{env: e}))

	st, _ := l.Service.Snapshot()
	assert.Empty(t, st.Transactions)
}

func TestAddInputDefaultsToToday(t *testing.T) {
	c := &addCmd{typ: "ENTRADA", category: " Taxa ", amount: "-10"}
	in, err := c.input(time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", in.Date.String())
	assert.Equal(t, "Taxa", in.Category)
	assert.Equal(t, core.Entrada, in.Type)
}

func TestDebtor(t *testing.T) {
	e, out, l := newTestEnv(t)

	assert.Equal(t, subcommands.ExitSuccess, execute(t, &debtorCmd{env: e}, "-id", "d3", "-amount", "0"))
	assert.Contains(t, out.String(), core.CategoryDebtorPayment)
	assert.Equal(t, "-245.00", l.Service.Balance().String())

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, execute(t, &debtorCmd{env: e}, "-id", "nobody", "-amount", "5"))
	assert.Contains(t, out.String(), "not found")

	out.Reset()
	assert.Equal(t, subcommands.ExitSuccess, execute(t, &debtorCmd{env: e}))
	assert.Contains(t, out.String(), "ALESSANDRO REVENDA")

	assert.Equal(t, subcommands.ExitUsageError, execute(t, &debtorCmd{env: e}, "-id", "d1", "-amount", "lots"))
}

func TestSale(t *testing.T) {
	e, out, l := newTestEnv(t)

	assert.Equal(t, subcommands.ExitSuccess, execute(t, &saleCmd{env: e}, "-product", "temp_bacon", "-qty", "2"))
	assert.Contains(t, out.String(), "recorded 2 x temp_bacon")

	_, total := l.Service.ProfitBreakdown()
	assert.Equal(t, "27.30", total.String())

	assert.Equal(t, subcommands.ExitUsageError, execute(t, &saleCmd{env: e}, "-product", "p500", "-qty", "0"))
	assert.Equal(t, subcommands.ExitUsageError, execute(t, &saleCmd{env: e}, "-qty", "1"))
}

func TestReportPlain(t *testing.T) {
	e, out, _ := newTestEnv(t)

	assert.Equal(t, subcommands.ExitSuccess, execute(t, &reportCmd{env: e}, "-plain"))
	assert.Contains(t, out.String(), "# Resumo Operacional")
	assert.Contains(t, out.String(), "Nenhuma venda registrada")
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range commands(&bytes.Buffer{}) {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"balance", "add", "rm", "debtor", "sale", "report"}, names)
}
