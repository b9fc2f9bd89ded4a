package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"caixa/internal/cli"
	"caixa/internal/core"
	"caixa/internal/log"
	"caixa/internal/report"
	"caixa/internal/services"
)

// env opens the configured ledger for one command run.
type env struct {
	out  io.Writer
	open func(ctx context.Context) (*cli.Ledger, error)
}

func commands(out io.Writer) []subcommands.Command {
	e := &env{out: out, open: openConfiguredLedger}
	return []subcommands.Command{
		&balanceCmd{env: e},
		&addCmd{env: e},
		&rmCmd{env: e},
		&debtorCmd{env: e},
		&saleCmd{env: e},
		&reportCmd{env: e},
	}
}

func openConfiguredLedger(ctx context.Context) (*cli.Ledger, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentCLI, os.Stderr)

	var publisher services.SummaryPublisher
	if client, err := cli.NewSummaryClient(cfg, logger); err != nil {
		logger.Warn("Summary feed unavailable", log.FieldError, err)
	} else if client != nil {
		publisher = client
	}
	return cli.OpenLedger(ctx, cfg, logger, publisher)
}

// errEphemeralStore is returned by mutating commands on the memory backend,
// where every change would vanish when the command exits.
var errEphemeralStore = errors.New("DATA_BACKEND=memory keeps nothing between runs; set DATA_BACKEND to sqlite, mysql or sheets to record changes")

// run opens the ledger, calls fn and maps its error to an exit status.
func (e *env) run(ctx context.Context, fn func(*services.LedgerService) error) subcommands.ExitStatus {
	return e.exec(ctx, false, fn)
}

// mutate is run for commands that change the ledger.
func (e *env) mutate(ctx context.Context, fn func(*services.LedgerService) error) subcommands.ExitStatus {
	return e.exec(ctx, true, fn)
}

func (e *env) exec(ctx context.Context, mutating bool, fn func(*services.LedgerService) error) subcommands.ExitStatus {
	l, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer l.Close()

	if mutating && l.Ephemeral {
		fmt.Fprintln(e.out, "Error:", errEphemeralStore)
		return subcommands.ExitFailure
	}

	if err := fn(l.Service); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type balanceCmd struct{ *env }

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "print the cash balance and receivables" }
func (*balanceCmd) Usage() string {
	return `caixactl balance

  Prints the available cash, the emergency reserve and what debtors owe.
`
}
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(svc *services.LedgerService) error {
		sum, _ := svc.Summary()
		fmt.Fprintf(c.out, "Caixa disponível:   %s\n", sum.Balance.Display())
		fmt.Fprintf(c.out, "Reserva emergência: %s\n", sum.EmergencyReserve.Display())
		fmt.Fprintf(c.out, "Total a receber:    %s (%d devedores)\n", sum.TotalReceivable.Display(), sum.DebtorsPending)
		return nil
	})
}

type addCmd struct {
	*env
	typ         string
	category    string
	amount      string
	date        string
	description string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a cash entry or exit" }
func (*addCmd) Usage() string {
	return `caixactl add -type <ENTRADA|SAIDA> -category <name> -amount <value> [-date YYYY-MM-DD] [-desc <text>]

  Records a transaction. The amount sign follows the type.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", "", "ENTRADA or SAIDA.")
	f.StringVar(&c.category, "category", "", "Catalog category for the type.")
	f.StringVar(&c.amount, "amount", "", "Amount, dot or comma decimal separator.")
	f.StringVar(&c.date, "date", "", "Transaction date. Defaults to today.")
	f.StringVar(&c.description, "desc", "", "Free text description.")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.input(time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return c.mutate(ctx, func(svc *services.LedgerService) error {
		tx, err := svc.AddTransaction(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s %s %s\n", tx.ID, tx.Date, tx.Category, tx.Amount.Display())
		return nil
	})
}

func (c *addCmd) input(now time.Time) (core.TransactionInput, error) {
	typ, err := core.ParseTransactionType(c.typ)
	if err != nil {
		return core.TransactionInput{}, err
	}
	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	date := core.DateOf(now)
	if c.date != "" {
		if date, err = core.ParseDate(c.date); err != nil {
			return core.TransactionInput{}, err
		}
	}
	return core.TransactionInput{
		Date:        date,
		Type:        typ,
		Category:    strings.TrimSpace(c.category),
		Description: strings.TrimSpace(c.description),
		Amount:      amount,
	}, nil
}

type rmCmd struct{ *env }

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete transactions by id" }
func (*rmCmd) Usage() string {
	return `caixactl rm <id>...

  Deletes the given transactions. Unknown ids are reported and skipped.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one transaction id is required")
		return subcommands.ExitUsageError
	}
	return c.mutate(ctx, func(svc *services.LedgerService) error {
		for _, id := range f.Args() {
			if svc.DeleteTransaction(ctx, id) {
				fmt.Fprintf(c.out, "deleted %s\n", id)
			} else {
				fmt.Fprintf(c.out, "not found %s\n", id)
			}
		}
		return nil
	})
}

type debtorCmd struct {
	*env
	id     string
	amount string
}

func (*debtorCmd) Name() string     { return "debtor" }
func (*debtorCmd) Synopsis() string { return "set what a debtor owes" }
func (*debtorCmd) Usage() string {
	return `caixactl debtor -id <debtor> -amount <value>
caixactl debtor

  Sets the debtor's amount and records the matching cash movement.
  Without flags, lists the debtors.
`
}

func (c *debtorCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Debtor id.")
	f.StringVar(&c.amount, "amount", "", "New amount owed. Negative values become zero.")
}

func (c *debtorCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.run(ctx, func(svc *services.LedgerService) error {
			st, _ := svc.Snapshot()
			for _, d := range st.Debtors {
				fmt.Fprintf(c.out, "%-6s %-24s %s\n", d.ID, d.Name, d.Amount.Display())
			}
			return nil
		})
	}

	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return c.mutate(ctx, func(svc *services.LedgerService) error {
		change := svc.UpdateDebtorAmount(ctx, c.id, amount)
		switch {
		case !change.Found:
			fmt.Fprintf(c.out, "debtor %s not found, nothing changed\n", c.id)
		case change.Synthetic == nil:
			fmt.Fprintf(c.out, "debtor %s already owes %s\n", c.id, change.Current.Display())
		default:
			t := change.Synthetic
			fmt.Fprintf(c.out, "%s -> %s (%s %s)\n", change.Previous.Display(), change.Current.Display(), t.Category, t.Amount.Display())
		}
		return nil
	})
}

type saleCmd struct {
	*env
	product  string
	quantity string
	date     string
}

func (*saleCmd) Name() string     { return "sale" }
func (*saleCmd) Synopsis() string { return "log units of a product sold" }
func (*saleCmd) Usage() string {
	return `caixactl sale -product <id> -qty <n> [-date YYYY-MM-DD]

  Logs a sale for profit reporting. The cash balance is not touched.
`
}

func (c *saleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.product, "product", "", "Catalog product id, e.g. p500.")
	f.StringVar(&c.quantity, "qty", "", "Units sold, a positive integer.")
	f.StringVar(&c.date, "date", "", "Sale date. Defaults to now.")
}

func (c *saleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.product == "" {
		fmt.Fprintln(os.Stderr, "Error: -product is required")
		return subcommands.ExitUsageError
	}
	qty, err := core.ParseQuantity(c.quantity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	var date time.Time
	if c.date != "" {
		d, err := core.ParseDate(c.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		date = d.Time
	}
	return c.mutate(ctx, func(svc *services.LedgerService) error {
		if err := svc.RecordSale(ctx, c.product, qty, date); err != nil {
			return err
		}
		_, total := svc.ProfitBreakdown()
		fmt.Fprintf(c.out, "recorded %d x %s, estimated profit now %s\n", qty, c.product, total.Display())
		return nil
	})
}

type reportCmd struct {
	*env
	plain bool
	style string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render the dashboard summary" }
func (*reportCmd) Usage() string {
	return `caixactl report [-plain] [-style dark|light|notty]

  Renders balances, the last 7 days of cash flow and profit per product.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown.")
	f.StringVar(&c.style, "style", "dark", "Glamour style used for rendering.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, func(svc *services.LedgerService) error {
		sum, _ := svc.Summary()
		md := report.Markdown(sum)
		if c.plain {
			_, err := io.WriteString(c.out, md)
			return err
		}
		printMarkdown(c.out, md, c.style)
		return nil
	})
}

// printMarkdown renders md for the terminal, falling back to the raw text
// when rendering fails.
func printMarkdown(w io.Writer, md, style string) {
	out, err := glamour.Render(md, style)
	if err != nil {
		out = md
	}
	fmt.Fprint(w, out)
}
