package main

import (
	"context"
	"flag"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database/repository"
)

type accountsCmd struct {
	all bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts with balances" }
func (*accountsCmd) Usage() string {
	return `wizflow accounts [-all]

  Lists active accounts, newest first, and the total balance across them.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Include archived accounts.")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		list, err := s.accounts.List(ctx, repository.AccountFilters{IncludeArchived: c.all})
		if err != nil {
			return err
		}
		sym := s.prefs.CurrencySymbol
		rows := make([][]string, 0, len(list))
		for _, acct := range list {
			name := acct.Name
			if acct.IsArchived {
				name = dimStyle.Render(name + " (archived)")
			}
			rows = append(rows, []string{strconv.FormatInt(acct.ID, 10), name, string(acct.Type), acct.Currency, signed(sym, acct.Balance)})
		}
		a.printf("%s\n%s", headingStyle.Render("Accounts"), table([]string{"ID", "Name", "Type", "Currency", "Balance"}, rows))
		total, err := s.accounts.TotalBalance(ctx)
		if err != nil {
			return err
		}
		a.printf("%s %s\n", labelStyle.Render("Total balance:"), signed(sym, total))
		return nil
	})
}

type accountAddCmd struct {
	name     string
	balance  string
	currency string
	typ      string
	icon     string
	color    string
}

func (*accountAddCmd) Name() string     { return "account-add" }
func (*accountAddCmd) Synopsis() string { return "create an account" }
func (*accountAddCmd) Usage() string {
	return `wizflow account-add -name <name> [-balance <amount>] [-type bank] [-currency USD]

  Creates an account. The balance is the opening balance.
`
}

func (c *accountAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name.")
	f.StringVar(&c.balance, "balance", "0", "Opening balance. May be negative for credit accounts.")
	f.StringVar(&c.currency, "currency", "", "Currency code. Defaults to the currency setting.")
	f.StringVar(&c.typ, "type", string(repository.AccountGeneral), "general, cash, bank, credit or investment.")
	f.StringVar(&c.icon, "icon", "wallet", "Icon name.")
	f.StringVar(&c.color, "color", "#89b4fa", "Display color.")
}

func (c *accountAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		balance, err := parseSignedAmount(c.balance)
		if err != nil {
			return err
		}
		currency := c.currency
		if currency == "" {
			currency = s.prefs.Currency
		}
		id, err := s.accounts.Create(ctx, repository.NewAccount{
			Name: c.name, Balance: balance, Currency: currency, Icon: c.icon, Color: c.color,
			Type: repository.AccountType(c.typ),
		})
		if err != nil {
			return err
		}
		a.printf("Created account %s (id %d)\n", accentStyle.Render(c.name), id)
		return nil
	})
}

type accountArchiveCmd struct{}

func (*accountArchiveCmd) Name() string     { return "account-archive" }
func (*accountArchiveCmd) Synopsis() string { return "archive an account" }
func (*accountArchiveCmd) Usage() string {
	return `wizflow account-archive <id>

  Hides the account from listings and the total balance. Its history is kept and it can
  still be posted to.
`
}

func (*accountArchiveCmd) SetFlags(*flag.FlagSet) {}

func (*accountArchiveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := parseID(f)
		if err != nil {
			return err
		}
		if _, err := s.resolveAccount(ctx, f.Arg(0)); err != nil {
			return err
		}
		if err := s.accounts.Archive(ctx, id); err != nil {
			return err
		}
		a.printf("Archived account %d\n", id)
		return nil
	})
}

type accountEditCmd struct {
	name      string
	currency  string
	typ       string
	icon      string
	color     string
	unarchive bool
}

func (*accountEditCmd) Name() string     { return "account-edit" }
func (*accountEditCmd) Synopsis() string { return "rename, restyle or unarchive an account" }
func (*accountEditCmd) Usage() string {
	return `wizflow account-edit [-name <name>] [-currency <code>] [-type <type>] [-icon <icon>] [-color <color>] [-unarchive] <id>

  The balance is maintained by posting transactions and cannot be edited here.
`
}

func (c *accountEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "New name.")
	f.StringVar(&c.currency, "currency", "", "Currency code.")
	f.StringVar(&c.typ, "type", "", "general, cash, bank, credit or investment.")
	f.StringVar(&c.icon, "icon", "", "Icon name.")
	f.StringVar(&c.color, "color", "", "Display color.")
	f.BoolVar(&c.unarchive, "unarchive", false, "Show the account again.")
}

func (c *accountEditCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := parseID(f)
		if err != nil {
			return err
		}
		if _, err := s.resolveAccount(ctx, f.Arg(0)); err != nil {
			return err
		}
		set := visited(f)
		var p repository.AccountPatch
		if set["name"] {
			p.Name = &c.name
		}
		if set["currency"] {
			cur := strings.ToUpper(c.currency)
			p.Currency = &cur
		}
		if set["type"] {
			t := repository.AccountType(c.typ)
			p.Type = &t
		}
		if set["icon"] {
			p.Icon = &c.icon
		}
		if set["color"] {
			p.Color = &c.color
		}
		if c.unarchive {
			archived := false
			p.IsArchived = &archived
		}
		if err := s.accounts.Update(ctx, id, p); err != nil {
			return err
		}
		a.printf("Updated account %d\n", id)
		return nil
	})
}

type accountDeleteCmd struct{}

func (*accountDeleteCmd) Name() string     { return "account-delete" }
func (*accountDeleteCmd) Synopsis() string { return "delete an account with no transactions" }
func (*accountDeleteCmd) Usage() string {
	return `wizflow account-delete <id>

  Accounts referenced by transactions cannot be deleted; archive them instead.
`
}

func (*accountDeleteCmd) SetFlags(*flag.FlagSet) {}

func (*accountDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := parseID(f)
		if err != nil {
			return err
		}
		if _, err := s.resolveAccount(ctx, f.Arg(0)); err != nil {
			return err
		}
		n, err := s.transactions.Count(ctx, repository.TransactionFilters{AccountID: &id})
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Validation("account %d has %d transactions; archive it instead", id, n)
		}
		if err := s.accounts.Delete(ctx, id); err != nil {
			return err
		}
		a.printf("Deleted account %d\n", id)
		return nil
	})
}
