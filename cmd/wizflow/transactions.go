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

// postFlags are shared by add and transfer.
type postFlags struct {
	title  string
	amount string
	date   string
	note   string
	tags   string
}

func (p *postFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.title, "title", "", "Title.")
	f.StringVar(&p.amount, "amount", "", "Amount, always positive.")
	f.StringVar(&p.date, "date", "", "Date as YYYY-MM-DD. Defaults to now.")
	f.StringVar(&p.note, "note", "", "Optional note.")
	f.StringVar(&p.tags, "tags", "", "Optional comma separated tags.")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type addCmd struct {
	postFlags
	typ      string
	account  string
	category string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record income or an expense" }
func (*addCmd) Usage() string {
	return `wizflow add -type income|expense -amount <amount> -category <name> [-account <id|name>] [-title <title>] [-date YYYY-MM-DD]

  Posts a transaction and updates the account balance. Without -account the default
  account setting is used.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.postFlags.register(f)
	f.StringVar(&c.typ, "type", string(repository.TransactionExpense), "income or expense.")
	f.StringVar(&c.account, "account", "", "Account id or name.")
	f.StringVar(&c.category, "category", "", "Category name.")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		typ := repository.TransactionType(c.typ)
		if typ == repository.TransactionTransfer {
			return apperrors.Validation("use the transfer command for transfers")
		}
		amount, err := parseAmount(c.amount)
		if err != nil {
			return err
		}
		date, err := a.parseDate(c.date)
		if err != nil {
			return err
		}
		acct, err := s.resolveAccount(ctx, c.account)
		if err != nil {
			return err
		}
		title := c.title
		if title == "" {
			title = c.category
		}
		id, err := s.ledger.CreateTransaction(ctx, repository.NewTransaction{
			Title: title, Amount: amount, Type: typ, AccountID: acct, Category: c.category,
			Note: optional(c.note), Tags: optional(c.tags), Date: date,
		})
		if err != nil {
			return err
		}
		a.printf("Recorded %s %s (id %d)\n", typ, money(s.prefs.CurrencySymbol, amount), id)
		return nil
	})
}

type transferCmd struct {
	postFlags
	from string
	to   string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move money between two accounts" }
func (*transferCmd) Usage() string {
	return `wizflow transfer -from <id|name> -to <id|name> -amount <amount> [-title <title>] [-date YYYY-MM-DD]
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	c.postFlags.register(f)
	f.StringVar(&c.from, "from", "", "Source account id or name.")
	f.StringVar(&c.to, "to", "", "Destination account id or name.")
}

func (c *transferCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		amount, err := parseAmount(c.amount)
		if err != nil {
			return err
		}
		date, err := a.parseDate(c.date)
		if err != nil {
			return err
		}
		from, err := s.resolveAccount(ctx, c.from)
		if err != nil {
			return err
		}
		if strings.TrimSpace(c.to) == "" {
			return apperrors.Validation("-to is required")
		}
		to, err := s.resolveAccount(ctx, c.to)
		if err != nil {
			return err
		}
		title := c.title
		if title == "" {
			title = "Transfer"
		}
		id, err := s.ledger.CreateTransaction(ctx, repository.NewTransaction{
			Title: title, Amount: amount, Type: repository.TransactionTransfer, AccountID: from, ToAccountID: &to,
			Category: repository.TransferCategory, Note: optional(c.note), Tags: optional(c.tags), Date: date,
		})
		if err != nil {
			return err
		}
		a.printf("Transferred %s (id %d)\n", money(s.prefs.CurrencySymbol, amount), id)
		return nil
	})
}

type editCmd struct {
	postFlags
	typ      string
	account  string
	to       string
	category string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of a transaction" }
func (*editCmd) Usage() string {
	return `wizflow edit [-amount <amount>] [-type <type>] [-account <id|name>] [-to <id|name>] [-category <name>] [-title <title>] [-date YYYY-MM-DD] [-note <note>] <id>

  Only the flags given are changed. Balances are re-synchronized. An empty -note clears it.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.postFlags.register(f)
	f.StringVar(&c.typ, "type", "", "income, expense or transfer.")
	f.StringVar(&c.account, "account", "", "Source account id or name.")
	f.StringVar(&c.to, "to", "", "Destination account id or name, for transfers.")
	f.StringVar(&c.category, "category", "", "Category name.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := parseID(f)
		if err != nil {
			return err
		}
		set := visited(f)
		var p repository.TransactionPatch
		if set["title"] {
			p.Title = &c.title
		}
		if set["amount"] {
			amount, err := parseAmount(c.amount)
			if err != nil {
				return err
			}
			p.Amount = &amount
		}
		if set["type"] {
			t := repository.TransactionType(c.typ)
			p.Type = &t
		}
		if set["account"] {
			acct, err := s.resolveAccount(ctx, c.account)
			if err != nil {
				return err
			}
			p.AccountID = &acct
		}
		if set["to"] {
			to, err := s.resolveAccount(ctx, c.to)
			if err != nil {
				return err
			}
			p.ToAccountID = &to
		}
		if set["category"] {
			p.Category = &c.category
		}
		if set["date"] {
			d, err := a.parseDate(c.date)
			if err != nil {
				return err
			}
			p.Date = &d
		}
		if set["note"] {
			p.Note = &c.note
		}
		if set["tags"] {
			p.Tags = &c.tags
		}
		if err := s.ledger.UpdateTransaction(ctx, id, p); err != nil {
			return err
		}
		a.printf("Updated transaction %d\n", id)
		return nil
	})
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction and reverse its effect" }
func (*deleteCmd) Usage() string {
	return `wizflow delete <id>
`
}

func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (*deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := parseID(f)
		if err != nil {
			return err
		}
		if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		a.printf("Deleted transaction %d\n", id)
		return nil
	})
}

type listCmd struct {
	account  string
	typ      string
	category string
	from     string
	to       string
	limit    int
	offset   int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions, newest first" }
func (*listCmd) Usage() string {
	return `wizflow list [-account <id|name>] [-type <type>] [-category <name>] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-limit n] [-offset n]
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Only transactions touching this account.")
	f.StringVar(&c.typ, "type", "", "income, expense or transfer.")
	f.StringVar(&c.category, "category", "", "Category name.")
	f.StringVar(&c.from, "from", "", "First day, inclusive.")
	f.StringVar(&c.to, "to", "", "Last day, inclusive.")
	f.IntVar(&c.limit, "limit", 50, "Maximum rows. 0 lists everything.")
	f.IntVar(&c.offset, "offset", 0, "Rows to skip.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		filters := repository.TransactionFilters{
			Type: repository.TransactionType(c.typ), Category: c.category, Limit: c.limit, Offset: c.offset,
		}
		if filters.Type != "" && !filters.Type.Valid() {
			return apperrors.Validation("transaction type %q", c.typ)
		}
		if c.account != "" {
			id, err := s.resolveAccount(ctx, c.account)
			if err != nil {
				return err
			}
			filters.AccountID = &id
		}
		r, err := a.dayRange(c.from, c.to)
		if err != nil {
			return err
		}
		if r != nil {
			filters.Start, filters.End = r.Start, r.End
		}
		list, err := s.transactions.ListWithAccounts(ctx, filters)
		if err != nil {
			return err
		}
		sym := s.prefs.CurrencySymbol
		rows := make([][]string, 0, len(list))
		for _, t := range list {
			amount := t.Amount
			account := t.AccountName
			switch t.Type {
			case repository.TransactionExpense:
				amount = -amount
			case repository.TransactionTransfer:
				account += " → " + t.ToAccountName
			}
			amt := signed(sym, amount)
			if t.Type == repository.TransactionTransfer {
				amt = accentStyle.Render(money(sym, t.Amount))
			}
			rows = append(rows, []string{
				strconv.FormatInt(t.ID, 10), t.Date.In(a.loc).Format(s.prefs.DateLayout()), t.Title, t.Category, account, amt,
			})
		}
		a.printf("%s\n%s", headingStyle.Render("Transactions"), table([]string{"ID", "Date", "Title", "Category", "Account", "Amount"}, rows))
		if len(list) == 0 {
			a.printf("%s\n", dimStyle.Render("No transactions."))
		}
		return nil
	})
}
